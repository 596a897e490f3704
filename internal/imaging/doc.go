// Package imaging implements grayscale conversion and Sobel edge detection
// over flat 8-bit buffers, plus the cached frames, previews, and statistics
// the tool server builds on them.
//
// All buffers in this package are row-major, width*height bytes long, with
// (0,0) at the top-left pixel, X increasing rightward and Y downward.
//
// # Edge Detection
//
// DetectEdges applies the horizontal and vertical 3x3 Sobel kernels to every
// pixel and stores the saturated gradient magnitude. Neighborhoods that reach
// past the image border are read through Sample, which clamps each
// coordinate to the nearest valid row and column. Clamping replicates border
// pixels, so a flat region produces no edge response at the border, at the
// cost of slightly weaker responses in the outermost pixel ring.
//
// The computation is a pure function of its input: identical input yields a
// byte-identical output, and pixels do not depend on each other's results.
//
// # Thread Safety
//
// FrameCache is safe for concurrent use. Frame computes its edge map once
// and shares it; callers must treat Frame buffers as read-only. The remaining
// functions are stateless.
//
// # Error Handling
//
// Sample and DetectEdges cannot fail for a well-formed buffer. A buffer whose
// length does not match its declared dimensions is a programming error and
// panics. File and encoding failures in FrameCache and Preview are returned as
// wrapped errors; bitmap decode errors keep their bitmap sentinel identity.
package imaging
