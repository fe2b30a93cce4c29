package texture

// Logger is the minimal logging surface the pipeline needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

const (
	// MinWidth and MaxWidth bound the full-size sheet. Height is always
	// half the width so the sheet stays equirectangular.
	MinWidth     = 512
	MaxWidth     = 16384
	DefaultWidth = 4096

	// PreviewWidth is the size of the reduced copy written next to every
	// full sheet. The globe script requests it when the full sheet is
	// missing.
	PreviewWidth = 1024
)

// Config holds the dimensions and locations for a bake run.
type Config struct {
	// Width of the full-size sheets in pixels. Clamped to MinWidth..MaxWidth
	// and rounded down to an even number.
	Width int

	// OutDir receives the baked PNG layers.
	OutDir string

	// SourceDir is scanned for per-layer source rasters (PNG or GeoTIFF).
	SourceDir string

	// Fetcher, when set, supplies satellite imagery for the albedo layer if
	// no local source exists.
	Fetcher *MapboxFetcher

	// Tools wraps the external GDAL and ImageMagick binaries.
	Tools *Toolchain

	Logger Logger
}

func (c Config) withDefaults() Config {
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Width < MinWidth {
		c.Width = MinWidth
	}
	if c.Width > MaxWidth {
		c.Width = MaxWidth
	}
	c.Width -= c.Width % 2

	if c.OutDir == "" {
		c.OutDir = "assets/textures"
	}
	if c.SourceDir == "" {
		c.SourceDir = "assets/source"
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	if c.Tools == nil {
		c.Tools = NewToolchain(c.Logger)
	}
	return c
}

func (c Config) height() int {
	return c.Width / 2
}
