package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// Region is a rectangle in pixel coordinates; (X1,Y1) is inclusive and
// (X2,Y2) exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// PreviewOptions controls Preview.
type PreviewOptions struct {
	// Region limits the preview to part of the image. Nil means all of it.
	Region *Region

	// Scale resizes the result; values <= 0 or 1.0 keep the size.
	Scale float64

	// FlipV mirrors the result vertically, which turns a bitmap written with
	// top-down rows back upright.
	FlipV bool
}

// PreviewResult contains an image encoded as base64 PNG.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Preview crops, scales, and encodes img as a base64 PNG.
func Preview(img image.Image, opts PreviewOptions) (*PreviewResult, error) {
	bounds := img.Bounds()
	rect := bounds
	if r := opts.Region; r != nil {
		if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
			return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
		}
		if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
			return nil, fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
		}
		rect = image.Rect(r.X1, r.Y1, r.X2, r.Y2)
	}

	out := imaging.Crop(img, rect)
	if opts.FlipV {
		out = imaging.FlipV(out)
	}
	if opts.Scale > 0 && opts.Scale != 1.0 {
		newWidth := int(float64(out.Bounds().Dx()) * opts.Scale)
		newHeight := int(float64(out.Bounds().Dy()) * opts.Scale)
		if newWidth < 1 || newHeight < 1 {
			return nil, fmt.Errorf("scale %.3f shrinks %dx%d below one pixel", opts.Scale, out.Bounds().Dx(), out.Bounds().Dy())
		}
		out = imaging.Resize(out, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
