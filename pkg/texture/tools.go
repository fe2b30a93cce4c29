package texture

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Toolchain shells out to the external raster tools the pipeline depends on:
// GDAL for reprojection and format conversion, ImageMagick for despeckle.
type Toolchain struct {
	logger Logger
}

var runCommand = func(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("texture: %s: %w: %s", name, err, detail)
		}
		return fmt.Errorf("texture: %s: %w", name, err)
	}
	return nil
}

var lookupTool = exec.LookPath

func NewToolchain(logger Logger) *Toolchain {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Toolchain{logger: logger}
}

// GdalWarp reprojects a GeoTIFF to plate carree covering the full world
// extent.
func (t *Toolchain) GdalWarp(ctx context.Context, src, dst string) error {
	t.logger.Info("Reprojecting source raster", "src", src)
	return runCommand(ctx, "gdalwarp",
		"-t_srs", "EPSG:4326",
		"-te", "-180", "-90", "180", "90",
		"-r", "bilinear",
		"-overwrite",
		src, dst,
	)
}

// GdalTranslate converts a raster to PNG at the requested dimensions.
func (t *Toolchain) GdalTranslate(ctx context.Context, src, dst string, width, height int) error {
	return runCommand(ctx, "gdal_translate",
		"-of", "PNG",
		"-outsize", strconv.Itoa(width), strconv.Itoa(height),
		"-r", "cubic",
		src, dst,
	)
}

// MagickDespeckle runs a median filter over a raster to knock out sensor
// speckle. Accepts either the v7 magick binary or the v6 convert binary.
func (t *Toolchain) MagickDespeckle(ctx context.Context, src, dst string) error {
	binary, err := magickBinary()
	if err != nil {
		return err
	}
	return runCommand(ctx, binary, src, "-median", "3", dst)
}

func magickBinary() (string, error) {
	for _, candidate := range []string{"magick", "convert"} {
		if _, err := lookupTool(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("texture: neither magick nor convert found in PATH")
}

// CheckTools reports which external binaries are reachable on PATH.
func (t *Toolchain) CheckTools() map[string]bool {
	available := make(map[string]bool)
	for _, tool := range []string{"gdalwarp", "gdal_translate", "magick", "convert"} {
		_, err := lookupTool(tool)
		available[tool] = err == nil
	}
	return available
}
