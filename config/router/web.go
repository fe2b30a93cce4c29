package router

import (
	"html/template"
	"net/http"
	"os"
)

// WebConfig carries the website surface: parsed templates, the embedded
// static filesystem, and the optional on-disk texture directory produced by
// the texture pipeline.
type WebConfig struct {
	Templates  *template.Template
	StaticFS   http.FileSystem
	TextureDir string
	Robots     []byte
}

type errorPageData struct {
	Status int
	Title  string
	Detail string
}

func (routerService *RouterService) mountWeb(cfg *WebConfig) {
	if cfg == nil {
		routerService.logger.Info("No web configuration; serving API surface only")
		return
	}

	if cfg.Templates != nil {
		routerService.engine.SetHTMLTemplate(cfg.Templates)
		routerService.templatesLoaded = true
	}

	if cfg.StaticFS != nil {
		routerService.engine.StaticFS("/static", cfg.StaticFS)
	}

	// Baked globe textures live on disk, not in the binary. When the
	// directory is absent the client falls back to procedural textures.
	if cfg.TextureDir != "" {
		info, err := os.Stat(cfg.TextureDir)
		if err != nil || !info.IsDir() {
			routerService.logger.Warn("Texture directory not found; globe will fall back to procedural textures",
				"dir", cfg.TextureDir)
		} else {
			routerService.engine.Static("/textures", cfg.TextureDir)
			routerService.logger.Info("Serving baked textures", "dir", cfg.TextureDir)
		}
	}

	if len(cfg.Robots) > 0 {
		robots := cfg.Robots
		routerService.engine.GET("/robots.txt", func(c *RequestContext) {
			c.Data(http.StatusOK, "text/plain; charset=utf-8", robots)
		})
	}

	routerService.logger.Info("Web surface mounted")
}

// renderErrorPage renders the styled error template, degrading to JSON when
// templates were never loaded.
func (routerService *RouterService) renderErrorPage(c *RequestContext, statusCode int, title, detail string) {
	if !routerService.templatesLoaded {
		c.JSON(statusCode, ErrorResult(statusCode, detail, nil).Body)
		return
	}

	c.HTML(statusCode, "error.html.tmpl", errorPageData{
		Status: statusCode,
		Title:  title,
		Detail: detail,
	})
}
