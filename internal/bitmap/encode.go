package bitmap

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// RowOrder selects the order rows are written to the pixel array.
type RowOrder int

const (
	// BottomUp writes the last buffer row first, the standard BMP layout.
	BottomUp RowOrder = iota
	// TopDown writes the first buffer row first. The declared height stays
	// positive, so viewers show the picture upside down.
	TopDown
)

func (o RowOrder) String() string {
	switch o {
	case BottomUp:
		return "bottom-up"
	case TopDown:
		return "top-down"
	default:
		return fmt.Sprintf("RowOrder(%d)", int(o))
	}
}

// ParseRowOrder accepts "bottom-up" or "top-down" (case-insensitive).
func ParseRowOrder(s string) (RowOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bottom-up", "bottomup":
		return BottomUp, nil
	case "top-down", "topdown":
		return TopDown, nil
	default:
		return 0, fmt.Errorf("unknown row order %q (want bottom-up or top-down)", s)
	}
}

// EncodeOptions controls how EncodeGray lays out the file.
type EncodeOptions struct {
	RowOrder RowOrder

	// Resolution copied into the info header.
	XPelsPerMeter int32
	YPelsPerMeter int32
}

// GrayPalette returns the 256-entry linear grayscale palette in file order
// (B, G, R, reserved), entry i mapping to R=G=B=i.
func GrayPalette() [paletteSize]byte {
	var p [paletteSize]byte
	for i := 0; i < 256; i++ {
		p[i*4+0] = byte(i)
		p[i*4+1] = byte(i)
		p[i*4+2] = byte(i)
	}
	return p
}

// GrayHeader returns the headers EncodeGray writes for a width x height image.
func GrayHeader(width, height int, opts EncodeOptions) Header {
	stride := width + RowPadding(width, 1)
	sizeImage := uint32(stride * height)
	return Header{
		File: FileHeader{
			Type:   Signature,
			Size:   GrayDataOffset + sizeImage,
			Offset: GrayDataOffset,
		},
		Info: InfoHeader{
			Size:          infoHeaderSize,
			Width:         int32(width),
			Height:        int32(height),
			Planes:        1,
			BitCount:      8,
			Compression:   compressionRGB,
			SizeImage:     sizeImage,
			XPelsPerMeter: opts.XPelsPerMeter,
			YPelsPerMeter: opts.YPelsPerMeter,
			ClrUsed:       256,
			ClrImportant:  256,
		},
	}
}

// EncodeGray writes pix, a width x height row-major grayscale buffer, as an
// 8-bit indexed bitmap with the linear gray palette.
func EncodeGray(w io.Writer, pix []byte, width, height int, opts EncodeOptions) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d: %w", width, height, ErrDimensions)
	}
	if len(pix) != width*height {
		return fmt.Errorf("buffer holds %d bytes, want %d for %dx%d: %w", len(pix), width*height, width, height, ErrDimensions)
	}

	bw := bufio.NewWriter(w)
	h := GrayHeader(width, height, opts)
	if err := binary.Write(bw, binary.LittleEndian, &h.File); err != nil {
		return fmt.Errorf("failed to write file header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, &h.Info); err != nil {
		return fmt.Errorf("failed to write info header: %w", err)
	}
	palette := GrayPalette()
	if _, err := bw.Write(palette[:]); err != nil {
		return fmt.Errorf("failed to write palette: %w", err)
	}

	pad := make([]byte, RowPadding(width, 1))
	for i := 0; i < height; i++ {
		y := i
		if opts.RowOrder == BottomUp {
			y = height - 1 - i
		}
		if _, err := bw.Write(pix[y*width : (y+1)*width]); err != nil {
			return fmt.Errorf("failed to write pixel row %d: %w", y, err)
		}
		if _, err := bw.Write(pad); err != nil {
			return fmt.Errorf("failed to write row padding: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush bitmap: %w", err)
	}
	return nil
}

// FlipRows reverses the order of the rows of a row-major buffer in place.
// stride is the length of one row in bytes.
func FlipRows(pix []byte, stride int) {
	if stride <= 0 {
		return
	}
	rows := len(pix) / stride
	tmp := make([]byte, stride)
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
