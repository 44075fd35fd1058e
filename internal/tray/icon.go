package tray

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Pixmap is a binary icon in the D-Bus format
//
//	(iiay)
//
// Where:
//   - Width: width of the icon (int32)
//   - Height: height of the icon (int32)
//   - Bytes: ARGB32 pixels in network byte order, row by row ([]byte)
type Pixmap struct {
	Width  int32
	Height int32
	Bytes  []byte
}

// NewPixmapFromImage converts img to a [Pixmap].
func NewPixmapFromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	data := make([]byte, 0, width*height*4)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			data = append(data, c.A, c.R, c.G, c.B)
		}
	}

	return &Pixmap{
		Width:  int32(width),
		Height: int32(height),
		Bytes:  data,
	}
}

// NewPixmapFromPNG decodes PNG data and converts it to a [Pixmap].
func NewPixmapFromPNG(data []byte) (*Pixmap, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid icon: %w", err)
	}

	return NewPixmapFromImage(img), nil
}

// toolTip is the D-Bus representation of the item tooltip
//
//	(sa(iiay)ss)
//
// Where:
//   - IconName: Freedesktop-compliant icon name
//   - IconPixmap: icon pixmaps
//   - Title: tooltip title
//   - Description: tooltip body, may contain basic markup
type toolTip struct {
	IconName    string
	IconPixmap  []Pixmap
	Title       string
	Description string
}
