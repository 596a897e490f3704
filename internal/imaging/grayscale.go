package imaging

import (
	"fmt"
	"image"
)

// Luminance converts an 8-bit RGB color to gray using the ITU-R BT.601
// weights, Y = 0.299*R + 0.587*G + 0.114*B, truncated toward zero.
func Luminance(r, g, b uint8) uint8 {
	// each product is rounded on its own so no platform fuses them into an
	// FMA; truncation makes the last bit visible (mid gray 128 gives 127)
	y := float64(0.299*float64(r)) + float64(0.587*float64(g)) + float64(0.114*float64(b))
	return uint8(y)
}

// Grayscale converts a row-major buffer of R, G, B triplets to a single
// channel buffer of width*height bytes.
//
// Grayscale panics if len(rgb) != width*height*3.
func Grayscale(rgb []byte, width, height int) []byte {
	if width < 0 || height < 0 || len(rgb) != width*height*3 {
		panic(fmt.Sprintf("imaging: Grayscale buffer of %d bytes does not match %dx%d RGB", len(rgb), width, height))
	}
	gray := make([]byte, width*height)
	for i := range gray {
		gray[i] = Luminance(rgb[i*3], rgb[i*3+1], rgb[i*3+2])
	}
	return gray
}

// GrayImage wraps a row-major buffer as an *image.Gray anchored at (0, 0)
// without copying.
func GrayImage(pix []byte, width, height int) *image.Gray {
	return &image.Gray{
		Pix:    pix,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}
}
