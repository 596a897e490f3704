package bitmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// Signature is the "BM" file type read as a little-endian uint16.
	Signature = 0x4D42

	fileHeaderSize = 14
	infoHeaderSize = 40
	paletteSize    = 256 * 4

	// GrayDataOffset is where pixel data starts in files written by EncodeGray.
	GrayDataOffset = fileHeaderSize + infoHeaderSize + paletteSize

	compressionRGB = 0
)

// FileHeader is the 14-byte BITMAPFILEHEADER.
type FileHeader struct {
	Type      uint16 // must be Signature
	Size      uint32 // file size in bytes
	Reserved1 uint16
	Reserved2 uint16
	Offset    uint32 // offset of the pixel array
}

// InfoHeader is the 40-byte BITMAPINFOHEADER.
type InfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32 // positive for bottom-up rows
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// Header holds both headers of a bitmap file.
type Header struct {
	File FileHeader
	Info InfoHeader
}

// RowPadding returns the number of zero bytes that follow each row of
// width pixels at bytesPerPixel, so rows end on a 4-byte boundary.
func RowPadding(width, bytesPerPixel int) int {
	return (4 - (width*bytesPerPixel)%4) % 4
}

// ReadHeader reads and validates the file and info headers of a 24-bit
// uncompressed bitmap. The reader is left positioned right after the info
// header.
func ReadHeader(r io.Reader) (*Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h.File); err != nil {
		return nil, readError("file header", err)
	}
	if h.File.Type != Signature {
		return nil, &FormatError{Field: "signature", Got: int64(h.File.Type), Want: "0x4D42", Err: ErrSignature}
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Info); err != nil {
		return nil, readError("info header", err)
	}
	if h.Info.BitCount != 24 {
		return nil, &FormatError{Field: "bit count", Got: int64(h.Info.BitCount), Want: "24", Err: ErrBitDepth}
	}
	if h.Info.Compression != compressionRGB {
		return nil, &FormatError{Field: "compression", Got: int64(h.Info.Compression), Want: "0 (BI_RGB)", Err: ErrCompression}
	}
	if h.Info.Width <= 0 {
		return nil, &FormatError{Field: "width", Got: int64(h.Info.Width), Want: "> 0", Err: ErrDimensions}
	}
	if h.Info.Height <= 0 {
		return nil, &FormatError{Field: "height", Got: int64(h.Info.Height), Want: "> 0 (bottom-up rows)", Err: ErrDimensions}
	}
	return &h, nil
}

// readError maps short reads to ErrTruncated and wraps everything else.
func readError(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("failed to read %s: %w", what, ErrTruncated)
	}
	return fmt.Errorf("failed to read %s: %w", what, err)
}
