package texture

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSourcePNG(t *testing.T, dir, name string, img image.Image) {
	t.Helper()
	if err := SavePNG(filepath.Join(dir, name+".png"), img); err != nil {
		t.Fatalf("write source %s: %v", name, err)
	}
}

func TestNewBaker_ClampsWidth(t *testing.T) {
	cases := []struct {
		name  string
		width int
		want  int
	}{
		{"zero gets the default", 0, DefaultWidth},
		{"below minimum", 11, MinWidth},
		{"above maximum", 1 << 20, MaxWidth},
		{"odd rounds down", 601, 600},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			baker := NewBaker(Config{Width: tc.width})
			if baker.cfg.Width != tc.want {
				t.Fatalf("width %d should clamp to %d, got %d", tc.width, tc.want, baker.cfg.Width)
			}
			if baker.cfg.height() != tc.want/2 {
				t.Fatalf("height should be half the width, got %d", baker.cfg.height())
			}
		})
	}
}

func TestBakeAlbedo_FromLocalSource(t *testing.T) {
	sourceDir, outDir := t.TempDir(), t.TempDir()
	writeSourcePNG(t, sourceDir, LayerAlbedo, solidRGBA(16, 8, color.RGBA{R: 30, G: 90, B: 160, A: 255}))

	baker := NewBaker(Config{Width: MinWidth, OutDir: outDir, SourceDir: sourceDir})
	if err := baker.Bake(context.Background(), LayerAlbedo); err != nil {
		t.Fatalf("bake failed: %v", err)
	}

	full, err := LoadImage(filepath.Join(outDir, "albedo.png"))
	if err != nil {
		t.Fatalf("full sheet missing: %v", err)
	}
	if got := full.Bounds(); got.Dx() != MinWidth || got.Dy() != MinWidth/2 {
		t.Fatalf("expected %dx%d, got %dx%d", MinWidth, MinWidth/2, got.Dx(), got.Dy())
	}

	preview, err := LoadImage(filepath.Join(outDir, "albedo_1024.png"))
	if err != nil {
		t.Fatalf("preview missing: %v", err)
	}
	if got := preview.Bounds(); got.Dx() != PreviewWidth || got.Dy() != PreviewWidth/2 {
		t.Fatalf("preview should be %dx%d, got %dx%d", PreviewWidth, PreviewWidth/2, got.Dx(), got.Dy())
	}
}

func TestBakeRoughness_DerivesFromBakedAlbedo(t *testing.T) {
	sourceDir, outDir := t.TempDir(), t.TempDir()

	// Left half ocean blue, right half terrain green.
	albedo := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			if x < 8 {
				albedo.SetRGBA(x, y, color.RGBA{R: 15, G: 40, B: 130, A: 255})
			} else {
				albedo.SetRGBA(x, y, color.RGBA{R: 80, G: 120, B: 50, A: 255})
			}
		}
	}
	writeSourcePNG(t, sourceDir, LayerAlbedo, albedo)

	baker := NewBaker(Config{Width: MinWidth, OutDir: outDir, SourceDir: sourceDir})
	if err := baker.Bake(context.Background(), LayerAlbedo); err != nil {
		t.Fatalf("albedo bake failed: %v", err)
	}
	if err := baker.Bake(context.Background(), LayerRoughness); err != nil {
		t.Fatalf("roughness bake failed: %v", err)
	}

	rough, err := LoadImage(filepath.Join(outDir, "roughness.png"))
	if err != nil {
		t.Fatalf("roughness sheet missing: %v", err)
	}

	// Sample well inside each half so the blur does not bleed across.
	water, _, _, _ := rough.At(MinWidth/8, MinWidth/4).RGBA()
	land, _, _, _ := rough.At(MinWidth-MinWidth/8, MinWidth/4).RGBA()
	if water>>8 > 50 {
		t.Fatalf("water should be smooth (dark), got %d", water>>8)
	}
	if land>>8 < 200 {
		t.Fatalf("land should be rough (bright), got %d", land>>8)
	}
}

func TestBakeRoughness_WithoutAnySource(t *testing.T) {
	baker := NewBaker(Config{Width: MinWidth, OutDir: t.TempDir(), SourceDir: t.TempDir()})

	err := baker.Bake(context.Background(), LayerRoughness)
	if err == nil || !strings.Contains(err.Error(), "baked albedo") {
		t.Fatalf("expected a missing-albedo error, got %v", err)
	}
}

func TestBakeBump_AcceptsElevationAlias(t *testing.T) {
	sourceDir, outDir := t.TempDir(), t.TempDir()
	writeSourcePNG(t, sourceDir, "elevation", solidRGBA(16, 8, color.RGBA{R: 128, G: 128, B: 128, A: 255}))

	baker := NewBaker(Config{Width: MinWidth, OutDir: outDir, SourceDir: sourceDir})
	if err := baker.Bake(context.Background(), LayerBump); err != nil {
		t.Fatalf("bump bake failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "bump.png")); err != nil {
		t.Fatalf("bump sheet missing: %v", err)
	}
}

func TestBakeAll_ReportsEveryMissingLayer(t *testing.T) {
	baker := NewBaker(Config{Width: MinWidth, OutDir: t.TempDir(), SourceDir: t.TempDir()})

	err := baker.BakeAll(context.Background())
	if err == nil {
		t.Fatalf("expected an error with no sources at all")
	}
	for _, layer := range AllLayers {
		if !strings.Contains(err.Error(), layer) {
			t.Fatalf("error should name layer %s: %v", layer, err)
		}
	}
}

func TestBake_UnknownLayer(t *testing.T) {
	baker := NewBaker(Config{Width: MinWidth})

	if err := baker.Bake(context.Background(), "specular"); err == nil {
		t.Fatalf("expected an error for an unknown layer")
	}
}
