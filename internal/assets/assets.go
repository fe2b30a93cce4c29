package assets

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static/css/*.css static/js/*.js static/img/*.svg
var staticFS embed.FS

//go:embed robots.txt
var robotsTxt []byte

// Templates parses every embedded template. Template names are the base file
// names, e.g. "index.html.tmpl".
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.tmpl")
}

// StaticFS returns the embedded static tree rooted at static/, so a stylesheet
// embedded as static/css/site.css is served at /static/css/site.css.
func StaticFS() (http.FileSystem, error) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	return http.FS(sub), nil
}

func Robots() []byte {
	return robotsTxt
}
