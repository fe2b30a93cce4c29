package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wayfarermaps/landing/config"
	"github.com/wayfarermaps/landing/internal/log"
	"github.com/wayfarermaps/landing/pkg/texture"
	"github.com/wayfarermaps/landing/pkg/utils"
)

var logger = log.NewLoggerWithTextOutput()

// Flag values. Empty or zero means "fall back to the environment".
var (
	outDir      string
	sourceDir   string
	sheetWidth  int
	mapboxStyle string
)

var rootCmd = &cobra.Command{
	Use:   "texturegen",
	Short: "Bakes the globe texture sheets served under /textures/",
	Long: `texturegen renders the equirectangular texture layers the landing page
globe loads: albedo, night lights, clouds, roughness and bump.

Sources are read from the source directory as PNG or GeoTIFF. GeoTIFFs are
reprojected through GDAL. When no local albedo source exists and MAPBOX_TOKEN
is set, satellite imagery is fetched from the Mapbox Static Images API.`,
}

func init() {
	cobra.OnInitialize(func() { config.InitializeEnvFile(logger) })

	rootCmd.PersistentFlags().StringVar(&outDir, "out", "", "output directory for baked layers (default $OUT_DIR or assets/textures)")
	rootCmd.PersistentFlags().StringVar(&sourceDir, "source", "", "directory scanned for source rasters (default $SOURCE_DIR or assets/source)")
	rootCmd.PersistentFlags().IntVar(&sheetWidth, "size", 0, "sheet width in pixels, height is half (default $SIZE_W or 4096)")
	rootCmd.PersistentFlags().StringVar(&mapboxStyle, "style", "", "Mapbox style for fetched imagery (default $MAPBOX_STYLE or satellite)")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig merges flags over environment variables over built-in
// defaults. MAPBOX_TOKEN is read from the environment only; tokens do not
// belong on the command line.
func resolveConfig() texture.Config {
	cfg := texture.Config{
		Width:     sheetWidth,
		OutDir:    outDir,
		SourceDir: sourceDir,
		Logger:    logger,
	}

	if cfg.Width == 0 {
		cfg.Width = widthFromEnv()
	}
	if cfg.OutDir == "" {
		cfg.OutDir = utils.GetEnvTrimmedOrDefault("OUT_DIR", "assets/textures")
	}
	if cfg.SourceDir == "" {
		cfg.SourceDir = utils.GetEnvTrimmedOrDefault("SOURCE_DIR", "assets/source")
	}

	if token := utils.GetEnvTrimmed("MAPBOX_TOKEN"); token != "" {
		style := mapboxStyle
		if style == "" {
			style = utils.GetEnvTrimmed("MAPBOX_STYLE")
		}
		cfg.Fetcher = texture.NewMapboxFetcher(texture.FetcherConfig{
			Token:  token,
			Style:  style,
			Logger: logger,
		})
	}

	return cfg
}

func widthFromEnv() int {
	raw := utils.GetEnvTrimmed("SIZE_W")
	if raw == "" {
		return texture.DefaultWidth
	}

	width, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("SIZE_W is not a number, using the default", "value", raw)
		return texture.DefaultWidth
	}
	return width
}
