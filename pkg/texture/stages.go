package texture

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	// Mapbox serves JPEG for some styles; register the decoder.
	_ "image/jpeg"
)

// Resample scales src to the given dimensions with Catmull-Rom interpolation.
func Resample(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// ToGrayscale converts any image to 8-bit grayscale.
func ToGrayscale(src image.Image) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	xdraw.Draw(dst, bounds, src, bounds.Min, xdraw.Src)
	return dst
}

// Invert flips every gray value.
func Invert(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst
}

// Normalize stretches the gray range so the darkest pixel maps to 0 and the
// brightest to 255. A flat image is returned unchanged.
func Normalize(src *image.Gray) *image.Gray {
	low, high := uint8(255), uint8(0)
	for _, v := range src.Pix {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}

	dst := image.NewGray(src.Bounds())
	if high <= low {
		copy(dst.Pix, src.Pix)
		return dst
	}

	scale := 255.0 / float64(high-low)
	for i, v := range src.Pix {
		dst.Pix[i] = uint8(math.Round(float64(v-low) * scale))
	}
	return dst
}

// ApplyGamma remaps gray values through a power curve. Gamma below one lifts
// shadows, above one deepens them.
func ApplyGamma(src *image.Gray, gamma float64) *image.Gray {
	if gamma <= 0 {
		gamma = 1
	}

	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(math.Round(255 * math.Pow(float64(i)/255, gamma)))
	}

	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		dst.Pix[i] = lut[v]
	}
	return dst
}

// BoxBlur averages each pixel over a square window of the given radius. A
// radius of zero returns an untouched copy.
func BoxBlur(src *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		dst := image.NewGray(src.Bounds())
		copy(dst.Pix, src.Pix)
		return dst
	}

	horizontal := blurAxis(src, radius, true)
	return blurAxis(horizontal, radius, false)
}

func blurAxis(src *image.Gray, radius int, horizontal bool) *image.Gray {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(bounds)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum, count := 0, 0
			for offset := -radius; offset <= radius; offset++ {
				nx, ny := x, y
				if horizontal {
					nx += offset
				} else {
					ny += offset
				}
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				sum += int(src.GrayAt(bounds.Min.X+nx, bounds.Min.Y+ny).Y)
				count++
			}
			dst.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: uint8(sum / count)})
		}
	}
	return dst
}

// Threshold maps values at or above cutoff to white and everything else to
// black.
func Threshold(src *image.Gray, cutoff uint8) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		if v >= cutoff {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// waterBlueMargin is how far the blue channel must exceed red and green for a
// pixel to count as water, in 16-bit channel units.
const waterBlueMargin = 0x0a00

// OceanMask marks pixels whose blue channel dominates red and green, which
// picks out open water on satellite albedo. Water is white, land is black.
func OceanMask(src image.Image) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			if b > r+waterBlueMargin && b > g+waterBlueMargin {
				dst.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return dst
}

// LoadImage reads and decodes a PNG or JPEG raster.
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture: open %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	return img, nil
}

// SavePNG writes img to path, creating parent directories as needed.
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("texture: create output dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("texture: create %s: %w", path, err)
	}

	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("texture: encode %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("texture: close %s: %w", path, err)
	}
	return nil
}
