// Package bitmap reads 24-bit uncompressed BMP files and writes 8-bit
// grayscale BMP files with a linear 256-entry palette.
//
// Only the BITMAPINFOHEADER layout (40 bytes) is read. Any other bit depth,
// a compressed pixel array, or a file that is shorter than its headers
// declare is rejected with a distinct error value, so callers can tell the
// failure kinds apart with errors.Is:
//
//	img, err := bitmap.DecodeFile("goldmine.bmp", bitmap.DecodeOptions{})
//	if errors.Is(err, bitmap.ErrBitDepth) {
//	    // not a 24-bit file
//	}
//
// # Row Order
//
// BMP files store rows bottom-up. Decode flips them so that row 0 of
// Image.Pix is the top row of the picture. EncodeGray writes rows in the order
// selected by EncodeOptions.RowOrder; BottomUp is the standard layout, TopDown
// writes the first buffer row first while still declaring a positive height,
// which viewers display vertically flipped.
package bitmap
