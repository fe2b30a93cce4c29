package texture

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wayfarermaps/landing/pkg/circuitbreaker"
	"github.com/wayfarermaps/landing/pkg/retry"
	xdraw "golang.org/x/image/draw"
)

const (
	mapboxBaseURL = "https://api.mapbox.com"

	defaultMapboxStyle = "mapbox/satellite-v9"

	// The Static Images API caps a single request at 1280 pixels a side.
	tileSize    = 1280
	tileColumns = 4
	tileRows    = 2

	// Web Mercator sources carry nothing beyond 85 degrees of latitude.
	maxLatitude = 85.0
)

// FetcherConfig configures a MapboxFetcher. Zero values fall back to the
// public API with conservative retry settings.
type FetcherConfig struct {
	Token   string
	Style   string // e.g. mapbox/satellite-v9
	BaseURL string
	Client  *http.Client
	Retry   *retry.Config
	Breaker *circuitbreaker.Config
	Logger  Logger
}

// MapboxFetcher downloads satellite imagery through the Mapbox Static Images
// API and stitches the tiles into a single equirectangular sheet.
type MapboxFetcher struct {
	token   string
	style   string
	baseURL string
	client  *http.Client
	policy  retry.Policy
	breaker circuitbreaker.Breaker
	logger  Logger
}

func NewMapboxFetcher(cfg FetcherConfig) *MapboxFetcher {
	if cfg.Style == "" {
		cfg.Style = defaultMapboxStyle
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = mapboxBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Retry == nil {
		cfg.Retry = &retry.Config{
			MaxAttempts: 4,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    10 * time.Second,
			Multiplier:  2.0,
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	logger := cfg.Logger
	breakerCfg := cfg.Breaker
	if breakerCfg == nil {
		breakerCfg = circuitbreaker.DefaultConfig()
	}
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(from, to circuitbreaker.State) {
			logger.Warn("Mapbox circuit state changed", "from", from.String(), "to", to.String())
		}
	}

	return &MapboxFetcher{
		token:   cfg.Token,
		style:   cfg.Style,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  cfg.Client,
		policy:  retry.NewBackoff(cfg.Retry),
		breaker: circuitbreaker.New(breakerCfg),
		logger:  logger,
	}
}

// FetchWorldImage assembles a world sheet at the requested dimensions. The
// world is fetched as a grid of bounding-box tiles, composited, and then
// resampled. Latitude is clamped to the Web Mercator limit, so the polar
// fringes are stretched rather than sourced.
func (f *MapboxFetcher) FetchWorldImage(ctx context.Context, width, height int) (*image.RGBA, error) {
	if f.token == "" {
		return nil, fmt.Errorf("texture: mapbox token is not set")
	}

	sheet := image.NewRGBA(image.Rect(0, 0, tileColumns*tileSize, tileRows*tileSize))
	lonStep := 360.0 / tileColumns
	latStep := 2 * maxLatitude / tileRows

	for row := 0; row < tileRows; row++ {
		for col := 0; col < tileColumns; col++ {
			minLon := -180.0 + float64(col)*lonStep
			topLat := maxLatitude - float64(row)*latStep
			box := [4]float64{minLon, topLat - latStep, minLon + lonStep, topLat}

			tile, err := f.fetchTile(ctx, box)
			if err != nil {
				return nil, err
			}

			origin := image.Pt(col*tileSize, row*tileSize)
			target := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(tileSize, tileSize))}
			xdraw.CatmullRom.Scale(sheet, target, tile, tile.Bounds(), xdraw.Src, nil)
		}
	}

	f.logger.Info("World imagery fetched", "tiles", tileColumns*tileRows, "style", f.style)
	return Resample(sheet, width, height), nil
}

// fetchTile requests one bounding-box tile. The circuit breaker sits inside
// the retry loop; once it opens, ErrCircuitOpen is not retryable and the
// backoff stops immediately.
func (f *MapboxFetcher) fetchTile(ctx context.Context, box [4]float64) (image.Image, error) {
	requestURL := fmt.Sprintf("%s/styles/v1/%s/static/[%g,%g,%g,%g]/%dx%d?access_token=%s",
		f.baseURL, f.style, box[0], box[1], box[2], box[3], tileSize, tileSize, url.QueryEscape(f.token))

	var tile image.Image
	err := f.policy.Execute(ctx, func() error {
		return f.breaker.Call(func() error {
			fetched, fetchErr := f.doFetch(ctx, requestURL)
			if fetchErr != nil {
				return fetchErr
			}
			tile = fetched
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tile, nil
}

func (f *MapboxFetcher) doFetch(ctx context.Context, requestURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("texture: build mapbox request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("texture: mapbox request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// decode below
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("texture: mapbox too many requests")
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("texture: mapbox service unavailable (status %d)", resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("texture: mapbox rejected the request (status %d): %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	tile, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("texture: decode mapbox tile: %w", err)
	}
	return tile, nil
}
