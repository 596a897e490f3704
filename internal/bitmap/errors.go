package bitmap

import (
	"errors"
	"fmt"
)

// Sentinel errors for each way a source file can be rejected.
var (
	ErrSignature   = errors.New("bitmap: not a BMP file")
	ErrBitDepth    = errors.New("bitmap: unsupported bit depth")
	ErrCompression = errors.New("bitmap: compressed bitmaps are not supported")
	ErrDimensions  = errors.New("bitmap: unexpected dimensions")
	ErrTruncated   = errors.New("bitmap: truncated file")
)

// FormatError describes a header field that failed validation.
// It unwraps to one of the sentinel errors above.
type FormatError struct {
	Field string
	Got   int64
	Want  string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: %s is %d, want %s", e.Err, e.Field, e.Got, e.Want)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
