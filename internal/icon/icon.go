// Package icon renders the tray icon for a color temperature.
//
// The icon is a lit disc whose color follows a fixed temperature ramp.
// Rendering is pure: the same temperature always yields identical pixels and
// identical PNG bytes.
package icon

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

const (
	// Size is the side of the rendered icon in pixels.
	Size = 32

	// Margin is the space between the disc and the icon border.
	Margin = 2

	// Falloff is how much darker the disc edge is than its center.
	Falloff = 0.3
)

// band maps temperatures up to and including max to a color.
type band struct {
	max   uint16
	color color.RGBA
}

var bands = [...]band{
	{3000, color.RGBA{255, 100, 50, 255}},
	{3500, color.RGBA{255, 140, 70, 255}},
	{4000, color.RGBA{255, 180, 90, 255}},
	{4500, color.RGBA{255, 210, 120, 255}},
	{5000, color.RGBA{255, 230, 150, 255}},
	{5500, color.RGBA{255, 250, 180, 255}},
	{6000, color.RGBA{240, 240, 200, 255}},
	{6500, color.RGBA{200, 220, 255, 255}},
}

var coldest = color.RGBA{150, 200, 255, 255}

// Color returns the base color of the icon for temperature.
func Color(temperature uint16) color.RGBA {
	for _, b := range bands {
		if temperature <= b.max {
			return b.color
		}
	}

	return coldest
}

// Render draws the icon for temperature.
//
// Pixels farther than Size/2-Margin from the center (Size/2, Size/2) are
// transparent. Pixels inside the disc are opaque and scaled by
// 1 - distance/radius*Falloff, truncated to 8 bits.
func Render(temperature uint16) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	base := Color(temperature)

	center := float32(Size) / 2
	radius := float32(Size)/2 - Margin

	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			dx := float32(x) - center
			dy := float32(y) - center
			distance := float32(math.Sqrt(float64(dx*dx + dy*dy)))

			if distance > radius {
				continue
			}

			// Conversions keep each step rounded to float32 and prevent fused
			// multiply-add.
			intensity := 1 - float32(float32(distance/radius)*Falloff)

			img.SetRGBA(x, y, color.RGBA{
				R: scale(base.R, intensity),
				G: scale(base.G, intensity),
				B: scale(base.B, intensity),
				A: 255,
			})
		}
	}

	return img
}

// scale multiplies channel by intensity and truncates the result to 0..255.
func scale(channel uint8, intensity float32) uint8 {
	v := float32(float32(channel) * intensity)

	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// Encode renders the icon for temperature and encodes it as PNG.
func Encode(temperature uint16) ([]byte, error) {
	var buf bytes.Buffer

	if err := png.Encode(&buf, Render(temperature)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
