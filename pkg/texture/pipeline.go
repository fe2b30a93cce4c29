package texture

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// Layer names match the files the globe script requests from /textures/.
const (
	LayerAlbedo    = "albedo"
	LayerNight     = "night"
	LayerClouds    = "clouds"
	LayerRoughness = "roughness"
	LayerBump      = "bump"
)

// AllLayers lists every layer in bake order. Albedo comes first because the
// roughness bake can derive from it.
var AllLayers = []string{LayerAlbedo, LayerNight, LayerClouds, LayerRoughness, LayerBump}

// Baker renders texture layers from local source rasters, falling back to
// remote imagery for the albedo layer when a fetcher is configured.
type Baker struct {
	cfg    Config
	logger Logger
}

func NewBaker(cfg Config) *Baker {
	cfg = cfg.withDefaults()
	return &Baker{cfg: cfg, logger: cfg.Logger}
}

// BakeAll renders every layer. A layer with no usable source is skipped and
// reported in the returned error; it does not stop the remaining layers.
func (b *Baker) BakeAll(ctx context.Context) error {
	var failed []string
	for _, layer := range AllLayers {
		if err := b.Bake(ctx, layer); err != nil {
			b.logger.Warn("Layer bake failed", "layer", layer, "error", err.Error())
			failed = append(failed, layer)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("texture: bake failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

func (b *Baker) Bake(ctx context.Context, layer string) error {
	switch layer {
	case LayerAlbedo:
		return b.bakeAlbedo(ctx)
	case LayerNight:
		return b.bakeNight(ctx)
	case LayerClouds:
		return b.bakeClouds(ctx)
	case LayerRoughness:
		return b.bakeRoughness(ctx)
	case LayerBump:
		return b.bakeBump(ctx)
	default:
		return fmt.Errorf("texture: unknown layer %q", layer)
	}
}

func (b *Baker) bakeAlbedo(ctx context.Context) error {
	src, err := b.sourceImage(ctx, LayerAlbedo)
	if err != nil {
		if b.cfg.Fetcher == nil {
			return err
		}
		b.logger.Info("No local albedo source, fetching satellite imagery")
		src, err = b.cfg.Fetcher.FetchWorldImage(ctx, b.cfg.Width, b.cfg.height())
		if err != nil {
			return err
		}
	}
	return b.writeLayer(LayerAlbedo, Resample(src, b.cfg.Width, b.cfg.height()))
}

func (b *Baker) bakeNight(ctx context.Context) error {
	src, err := b.sourceImage(ctx, LayerNight)
	if err != nil {
		return err
	}

	gray := ToGrayscale(Resample(src, b.cfg.Width, b.cfg.height()))
	// Gamma below one lifts the dim settlement glow.
	return b.writeLayer(LayerNight, ApplyGamma(gray, 0.85))
}

func (b *Baker) bakeClouds(ctx context.Context) error {
	src, err := b.sourceImage(ctx, LayerClouds)
	if err != nil {
		return err
	}

	gray := Normalize(ToGrayscale(Resample(src, b.cfg.Width, b.cfg.height())))
	return b.writeLayer(LayerClouds, gray)
}

// bakeRoughness prefers a dedicated source map and otherwise derives one from
// the baked albedo: land is rough, open water is smooth.
func (b *Baker) bakeRoughness(ctx context.Context) error {
	if src, err := b.sourceImage(ctx, LayerRoughness); err == nil {
		gray := Normalize(ToGrayscale(Resample(src, b.cfg.Width, b.cfg.height())))
		return b.writeLayer(LayerRoughness, gray)
	}

	albedo, err := LoadImage(filepath.Join(b.cfg.OutDir, LayerAlbedo+".png"))
	if err != nil {
		return fmt.Errorf("texture: roughness needs a source map or a baked albedo: %w", err)
	}

	mask := Invert(OceanMask(Resample(albedo, b.cfg.Width, b.cfg.height())))
	return b.writeLayer(LayerRoughness, BoxBlur(mask, 2))
}

func (b *Baker) bakeBump(ctx context.Context) error {
	src, err := b.sourceImage(ctx, LayerBump, "elevation")
	if err != nil {
		return err
	}

	gray := Normalize(ToGrayscale(Resample(src, b.cfg.Width, b.cfg.height())))
	return b.writeLayer(LayerBump, BoxBlur(gray, 1))
}

// sourceImage resolves a layer source from the source directory, trying each
// candidate base name as a PNG first and as a GeoTIFF second.
func (b *Baker) sourceImage(ctx context.Context, names ...string) (image.Image, error) {
	for _, name := range names {
		pngPath := filepath.Join(b.cfg.SourceDir, name+".png")
		if _, err := os.Stat(pngPath); err == nil {
			return LoadImage(pngPath)
		}

		for _, ext := range []string{".tif", ".tiff"} {
			tifPath := filepath.Join(b.cfg.SourceDir, name+ext)
			if _, err := os.Stat(tifPath); err != nil {
				continue
			}
			return b.convertGeoTIFF(ctx, tifPath)
		}
	}
	return nil, fmt.Errorf("texture: no source for %s under %s", names[0], b.cfg.SourceDir)
}

// convertGeoTIFF warps a GeoTIFF to the world extent and converts it to PNG
// through GDAL. Satellite sources carry sensor speckle, so a median filter
// runs when ImageMagick is available.
func (b *Baker) convertGeoTIFF(ctx context.Context, tifPath string) (image.Image, error) {
	workDir, err := os.MkdirTemp("", "texturegen-*")
	if err != nil {
		return nil, fmt.Errorf("texture: temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	warped := filepath.Join(workDir, "warped.tif")
	if err := b.cfg.Tools.GdalWarp(ctx, tifPath, warped); err != nil {
		return nil, err
	}

	converted := filepath.Join(workDir, "converted.png")
	if err := b.cfg.Tools.GdalTranslate(ctx, warped, converted, b.cfg.Width, b.cfg.height()); err != nil {
		return nil, err
	}

	cleaned := filepath.Join(workDir, "cleaned.png")
	if err := b.cfg.Tools.MagickDespeckle(ctx, converted, cleaned); err != nil {
		b.logger.Warn("Despeckle skipped", "error", err.Error())
		return LoadImage(converted)
	}
	return LoadImage(cleaned)
}

// writeLayer writes the full sheet and the 1024-wide preview next to it.
func (b *Baker) writeLayer(layer string, img image.Image) error {
	fullPath := filepath.Join(b.cfg.OutDir, layer+".png")
	if err := SavePNG(fullPath, img); err != nil {
		return err
	}

	previewPath := filepath.Join(b.cfg.OutDir, layer+"_1024.png")
	if err := SavePNG(previewPath, Resample(img, PreviewWidth, PreviewWidth/2)); err != nil {
		return err
	}

	b.logger.Info("Layer baked",
		"layer", layer,
		"size", fmt.Sprintf("%dx%d", b.cfg.Width, b.cfg.height()),
		"out", fullPath,
	)
	return nil
}
