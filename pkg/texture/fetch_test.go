package texture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wayfarermaps/landing/pkg/circuitbreaker"
	"github.com/wayfarermaps/landing/pkg/retry"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func fastRetry(attempts int) *retry.Config {
	return &retry.Config{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestFetchWorldImage_StitchesTiles(t *testing.T) {
	payload := tinyPNG(t)
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if !strings.HasPrefix(r.URL.Path, "/styles/v1/test/style/static/[") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("access_token") != "secret" {
			t.Errorf("missing access token in %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewMapboxFetcher(FetcherConfig{
		Token:   "secret",
		Style:   "test/style",
		BaseURL: server.URL,
		Retry:   fastRetry(2),
	})

	sheet, err := fetcher.FetchWorldImage(context.Background(), 64, 32)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got := sheet.Bounds(); got.Dx() != 64 || got.Dy() != 32 {
		t.Fatalf("expected a 64x32 sheet, got %dx%d", got.Dx(), got.Dy())
	}
	if got := requests.Load(); got != int64(tileColumns*tileRows) {
		t.Fatalf("expected %d tile requests, got %d", tileColumns*tileRows, got)
	}
}

func TestFetchWorldImage_RequiresToken(t *testing.T) {
	fetcher := NewMapboxFetcher(FetcherConfig{})

	_, err := fetcher.FetchWorldImage(context.Background(), 8, 4)
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("expected a token error, got %v", err)
	}
}

func TestFetchTile_RetriesTransientFailures(t *testing.T) {
	payload := tinyPNG(t)
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewMapboxFetcher(FetcherConfig{
		Token:   "secret",
		BaseURL: server.URL,
		Retry:   fastRetry(3),
	})

	tile, err := fetcher.fetchTile(context.Background(), [4]float64{-180, 0, -90, 85})
	if err != nil {
		t.Fatalf("expected the third attempt to succeed: %v", err)
	}
	if tile == nil {
		t.Fatalf("expected a decoded tile")
	}
	if got := requests.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestFetchTile_DoesNotRetryClientErrors(t *testing.T) {
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid token"))
	}))
	defer server.Close()

	fetcher := NewMapboxFetcher(FetcherConfig{
		Token:   "wrong",
		BaseURL: server.URL,
		Retry:   fastRetry(4),
	})

	_, err := fetcher.fetchTile(context.Background(), [4]float64{-180, 0, -90, 85})
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("expected a 401 error, got %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Fatalf("auth failures must not be retried, got %d attempts", got)
	}
}

func TestFetchTile_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewMapboxFetcher(FetcherConfig{
		Token:   "secret",
		BaseURL: server.URL,
		Retry:   fastRetry(1),
		Breaker: &circuitbreaker.Config{
			FailureThreshold: 2,
			RecoveryTimeout:  time.Minute,
			SuccessThreshold: 1,
		},
	})

	box := [4]float64{-180, 0, -90, 85}
	for i := 0; i < 2; i++ {
		if _, err := fetcher.fetchTile(context.Background(), box); err == nil {
			t.Fatalf("expected failure %d", i+1)
		}
	}
	if fetcher.breaker.State() != circuitbreaker.Open {
		t.Fatalf("breaker should be open after two failures")
	}

	_, err := fetcher.fetchTile(context.Background(), box)
	if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Fatalf("expected the open circuit to short the call, got %v", err)
	}
	if got := requests.Load(); got != 2 {
		t.Fatalf("open circuit must not reach the server, got %d requests", got)
	}
}
