package imaging

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/bmp-edge-tools/internal/bitmap"
)

// writeTestBitmap writes a 24-bit bottom-up bitmap to dir/name. pixel
// returns the color of each pixel in top-down coordinates.
func writeTestBitmap(t *testing.T, dir, name string, width, height int, pixel func(x, y int) (r, g, b uint8)) string {
	t.Helper()
	pad := bitmap.RowPadding(width, 3)
	stride := width*3 + pad
	h := bitmap.Header{
		File: bitmap.FileHeader{
			Type:   bitmap.Signature,
			Size:   uint32(54 + stride*height),
			Offset: 54,
		},
		Info: bitmap.InfoHeader{
			Size:      40,
			Width:     int32(width),
			Height:    int32(height),
			Planes:    1,
			BitCount:  24,
			SizeImage: uint32(stride * height),
		},
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &h.File); err != nil {
		t.Fatalf("failed to write file header: %v", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, &h.Info); err != nil {
		t.Fatalf("failed to write info header: %v", err)
	}
	for y := height - 1; y >= 0; y-- {
		for x := 0; x < width; x++ {
			r, g, b := pixel(x, y)
			buf.Write([]byte{b, g, r})
		}
		buf.Write(make([]byte, pad))
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write bitmap: %v", err)
	}
	return path
}

// solid returns a pixel function for a single color.
func solid(r, g, b uint8) func(x, y int) (uint8, uint8, uint8) {
	return func(x, y int) (uint8, uint8, uint8) { return r, g, b }
}

// verticalStep returns black left of column split and white from it on.
func verticalStep(split int) func(x, y int) (uint8, uint8, uint8) {
	return func(x, y int) (uint8, uint8, uint8) {
		if x < split {
			return 0, 0, 0
		}
		return 255, 255, 255
	}
}
