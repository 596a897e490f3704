package imaging

import (
	"fmt"
	"image"
	"math"
)

// kernel is a 3x3 convolution matrix indexed [row][column].
type kernel [3][3]int32

var (
	// sobelX responds to horizontal intensity change (vertical edges).
	sobelX = kernel{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}

	// sobelY responds to vertical intensity change (horizontal edges).
	sobelY = kernel{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// SobelKernels returns copies of the horizontal and vertical Sobel kernels.
func SobelKernels() (x, y [3][3]int32) {
	return sobelX, sobelY
}

// ClampPoint constrains (x, y) to the pixel grid of a width x height image.
// Each axis is clamped independently, so a coordinate outside the image maps
// to the nearest border pixel.
//
// width and height must be at least 1.
func ClampPoint(width, height, x, y int) (int, int) {
	return clamp(x, 0, width-1), clamp(y, 0, height-1)
}

// Sample returns the pixel of buf at (x, y) with clamp-to-border addressing.
//
// buf is a row-major width x height grayscale buffer. x and y may be any
// value; coordinates outside the image read the nearest border pixel rather
// than wrapping or reading zero, which keeps a flat region flat right up to
// the image border.
func Sample(buf []byte, width, height, x, y int) uint8 {
	cx, cy := ClampPoint(width, height, x, y)
	return buf[cy*width+cx]
}

// gradient applies both Sobel kernels to the 3x3 neighborhood centered on
// (x, y).
func gradient(input []byte, width, height, x, y int) (gx, gy int32) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			p := int32(Sample(input, width, height, x+dx, y+dy))
			gx += p * sobelX[dy+1][dx+1]
			gy += p * sobelY[dy+1][dx+1]
		}
	}
	return gx, gy
}

// magnitude combines a gradient pair into an edge intensity in [0, 255].
func magnitude(gx, gy int32) uint8 {
	fx, fy := float64(gx), float64(gy)
	m := math.Floor(math.Sqrt(fx*fx + fy*fy))
	if m > 255 {
		return 255
	}
	return uint8(m)
}

// DetectEdges computes the Sobel edge-intensity map of a grayscale buffer.
//
// input is a row-major width x height buffer and is not modified. The
// returned buffer has the same dimensions; each pixel holds
// floor(sqrt(gx² + gy²)) saturated to 255, where gx and gy are the
// horizontal and vertical Sobel responses over the pixel's 3x3
// neighborhood, sampled with Sample so border pixels see replicated
// neighbors.
//
// # Algorithm
//
// Every pixel is computed independently from the read-only input:
//
//  1. gx = gy = 0
//  2. For each offset (dx, dy) in {-1,0,1}²:
//     p = Sample(input, width, height, x+dx, y+dy)
//     gx += p * sobelX[dy+1][dx+1]
//     gy += p * sobelY[dy+1][dx+1]
//  3. Store min(floor(sqrt(gx² + gy²)), 255)
//
// The largest possible |gx| or |gy| is 4*255 = 1020, so int32 accumulators
// cannot overflow.
//
// DetectEdges panics if len(input) != width*height.
func DetectEdges(input []byte, width, height int) []byte {
	if width < 0 || height < 0 || len(input) != width*height {
		panic(fmt.Sprintf("imaging: DetectEdges buffer of %d bytes does not match %dx%d", len(input), width, height))
	}

	output := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx, gy := gradient(input, width, height, x, y)
			output[y*width+x] = magnitude(gx, gy)
		}
	}
	return output
}

// DetectEdgesGray runs DetectEdges on a stdlib grayscale image. The result
// has the same bounds as src.
func DetectEdgesGray(src *image.Gray) *image.Gray {
	pix, w, h := compactGray(src)
	dst := image.NewGray(src.Bounds())
	copy(dst.Pix, DetectEdges(pix, w, h))
	return dst
}

// compactGray returns the pixels of src as a tightly packed row-major buffer.
func compactGray(src *image.Gray) ([]byte, int, int) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if src.Stride == w && b.Min == (image.Point{}) && len(src.Pix) == w*h {
		return src.Pix, w, h
	}
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		i := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*w:(y+1)*w], src.Pix[i:i+w])
	}
	return pix, w, h
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
