package texture

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func stubLookup(t *testing.T, available ...string) {
	t.Helper()

	previous := lookupTool
	lookupTool = func(name string) (string, error) {
		for _, tool := range available {
			if tool == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", fmt.Errorf("%s not found", name)
	}
	t.Cleanup(func() { lookupTool = previous })
}

func stubRunCommand(t *testing.T) *[][]string {
	t.Helper()

	var calls [][]string
	previous := runCommand
	runCommand = func(_ context.Context, name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		return nil
	}
	t.Cleanup(func() { runCommand = previous })
	return &calls
}

func TestCheckTools_ReportsAvailability(t *testing.T) {
	stubLookup(t, "gdalwarp", "convert")

	available := NewToolchain(nil).CheckTools()

	if !available["gdalwarp"] || !available["convert"] {
		t.Fatalf("stubbed tools should report available: %v", available)
	}
	if available["gdal_translate"] || available["magick"] {
		t.Fatalf("missing tools should report unavailable: %v", available)
	}
}

func TestMagickBinary_PrefersV7(t *testing.T) {
	stubLookup(t, "magick", "convert")

	binary, err := magickBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if binary != "magick" {
		t.Fatalf("expected magick to win over convert, got %s", binary)
	}
}

func TestMagickBinary_FallsBackToConvert(t *testing.T) {
	stubLookup(t, "convert")

	binary, err := magickBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if binary != "convert" {
		t.Fatalf("expected convert fallback, got %s", binary)
	}
}

func TestMagickBinary_NeitherInstalled(t *testing.T) {
	stubLookup(t)

	if _, err := magickBinary(); err == nil {
		t.Fatalf("expected an error when no binary is installed")
	}
}

func TestGdalTranslate_BuildsExpectedArgs(t *testing.T) {
	calls := stubRunCommand(t)

	err := NewToolchain(nil).GdalTranslate(context.Background(), "in.tif", "out.png", 512, 256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(*calls) != 1 {
		t.Fatalf("expected one command, got %d", len(*calls))
	}
	call := (*calls)[0]
	if call[0] != "gdal_translate" {
		t.Fatalf("wrong binary: %s", call[0])
	}

	joined := strings.Join(call, " ")
	for _, fragment := range []string{"-of PNG", "-outsize 512 256", "in.tif out.png"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("command %q missing %q", joined, fragment)
		}
	}
}

func TestGdalWarp_PinsWorldExtent(t *testing.T) {
	calls := stubRunCommand(t)

	err := NewToolchain(nil).GdalWarp(context.Background(), "src.tif", "dst.tif")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join((*calls)[0], " ")
	for _, fragment := range []string{"EPSG:4326", "-te -180 -90 180 90"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("command %q missing %q", joined, fragment)
		}
	}
}
