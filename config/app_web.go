package config

import (
	"github.com/wayfarermaps/landing/config/router"
	"github.com/wayfarermaps/landing/internal/assets"
	"github.com/wayfarermaps/landing/internal/log"
	"github.com/wayfarermaps/landing/pkg/utils"
)

// NewWebConfig assembles the website surface from the embedded assets and the
// optional baked texture directory.
func NewWebConfig(logger *log.Logger) *router.WebConfig {
	templates, err := assets.Templates()
	if err != nil {
		// Embedded templates failing to parse is a build defect. Keep the API
		// surface alive instead of crashing the process.
		logger.Error("Failed to parse embedded templates, web surface disabled", "error", err)
		return nil
	}

	staticFS, err := assets.StaticFS()
	if err != nil {
		logger.Error("Failed to open embedded static assets, web surface disabled", "error", err)
		return nil
	}

	return &router.WebConfig{
		Templates:  templates,
		StaticFS:   staticFS,
		TextureDir: utils.GetEnvTrimmed("TEXTURE_DIR"),
		Robots:     assets.Robots(),
	}
}
