package bitmap

import (
	"fmt"
	"io"
	"os"
	"strconv"
)

// DefaultMaxPixels bounds the pixel buffer Decode is willing to allocate.
const DefaultMaxPixels = 1 << 26

// DecodeOptions constrains what Decode accepts.
type DecodeOptions struct {
	// Width and Height, when non-zero, must match the file exactly.
	Width  int
	Height int

	// MaxPixels caps width*height. Zero means DefaultMaxPixels.
	MaxPixels int
}

// Image is a decoded 24-bit bitmap.
type Image struct {
	Width  int
	Height int

	// Pix holds R, G, B triplets in row-major order, row 0 at the top.
	Pix []byte

	// Header is the header the image was decoded from.
	Header Header
}

// RGBAt returns the color of the pixel at (x, y). Coordinates must be in range.
func (m *Image) RGBAt(x, y int) (r, g, b uint8) {
	i := (y*m.Width + x) * 3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// DecodeFile opens path and decodes it with Decode.
func DecodeFile(path string, opts DecodeOptions) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bitmap: %w", err)
	}
	defer f.Close()

	img, err := Decode(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Decode reads a 24-bit uncompressed bottom-up bitmap from r.
//
// The headers are validated with ReadHeader and then checked against opts.
// Pixel rows are read from the header's data offset, the per-row padding is
// skipped, and the rows are flipped into top-down order.
func Decode(r io.ReadSeeker, opts DecodeOptions) (*Image, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	width, height := int(h.Info.Width), int(h.Info.Height)
	if opts.Width != 0 && width != opts.Width {
		return nil, &FormatError{Field: "width", Got: int64(width), Want: strconv.Itoa(opts.Width), Err: ErrDimensions}
	}
	if opts.Height != 0 && height != opts.Height {
		return nil, &FormatError{Field: "height", Got: int64(height), Want: strconv.Itoa(opts.Height), Err: ErrDimensions}
	}
	maxPixels := opts.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if int64(width)*int64(height) > int64(maxPixels) {
		return nil, &FormatError{Field: "pixel count", Got: int64(width) * int64(height), Want: "<= " + strconv.Itoa(maxPixels), Err: ErrDimensions}
	}

	if _, err := r.Seek(int64(h.File.Offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to pixel data: %w", err)
	}

	rowBytes := width * 3
	padding := RowPadding(width, 3)
	row := make([]byte, rowBytes+padding)
	pix := make([]byte, rowBytes*height)

	for i := 0; i < height; i++ {
		n, err := io.ReadFull(r, row)
		// Some writers drop the padding after the final row.
		lastRow := i == height-1
		if err != nil && !(lastRow && n >= rowBytes) {
			return nil, readError(fmt.Sprintf("pixel row %d", i), err)
		}

		dst := pix[(height-1-i)*rowBytes:]
		for x := 0; x < width; x++ {
			// stored as B, G, R
			dst[x*3+0] = row[x*3+2]
			dst[x*3+1] = row[x*3+1]
			dst[x*3+2] = row[x*3+0]
		}
	}

	return &Image{
		Width:  width,
		Height: height,
		Pix:    pix,
		Header: *h,
	}, nil
}
