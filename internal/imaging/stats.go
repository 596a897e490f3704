package imaging

import (
	"fmt"

	"github.com/anthonynsimon/bild/histogram"
)

// EdgeStats summarizes an edge-intensity map.
type EdgeStats struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Threshold is the magnitude at or above which a pixel counts as an edge.
	Threshold int `json:"threshold"`

	EdgePixels    int     `json:"edge_pixels"`
	EdgePercent   float64 `json:"edge_percent"`
	ZeroPixels    int     `json:"zero_pixels"`
	Saturated     int     `json:"saturated_pixels"`
	MeanMagnitude float64 `json:"mean_magnitude"`
	MaxMagnitude  int     `json:"max_magnitude"`

	// Histogram holds the pixel count for each magnitude 0..255.
	Histogram []int `json:"histogram,omitempty"`
}

// ComputeEdgeStats builds a magnitude histogram of a width x height edge
// map and derives the counts in EdgeStats from it.
func ComputeEdgeStats(edges []byte, width, height, threshold int, withHistogram bool) (*EdgeStats, error) {
	if len(edges) != width*height || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("edge buffer of %d bytes does not match %dx%d", len(edges), width, height)
	}
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("threshold %d outside 0-255", threshold)
	}

	// gray pixels land in the R, G and B channels alike
	bins := histogram.NewRGBAHistogram(GrayImage(edges, width, height)).R.Bins

	stats := &EdgeStats{
		Width:     width,
		Height:    height,
		Threshold: threshold,
	}
	var sum int
	for v, n := range bins {
		if n == 0 {
			continue
		}
		sum += v * n
		stats.MaxMagnitude = v
		if v >= threshold {
			stats.EdgePixels += n
		}
	}
	total := width * height
	stats.ZeroPixels = bins[0]
	stats.Saturated = bins[255]
	stats.MeanMagnitude = float64(sum) / float64(total)
	stats.EdgePercent = float64(stats.EdgePixels) * 100 / float64(total)
	if withHistogram {
		stats.Histogram = append([]int(nil), bins...)
	}
	return stats, nil
}
