// Package pipeline runs the full conversion: decode a 24-bit bitmap, convert
// it to grayscale, detect edges, and write the grayscale bitmap, the edge
// bitmap, and the memory dump.
//
// Run stops at the first failure. Every output is written to a temporary file
// next to its destination and renamed into place once complete, so an output
// is either fully written or absent, and outputs after a failed step are never
// created.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/bmp-edge-tools/internal/bitmap"
	"github.com/ironsheep/bmp-edge-tools/internal/config"
	"github.com/ironsheep/bmp-edge-tools/internal/imaging"
	"github.com/ironsheep/bmp-edge-tools/internal/memfile"
)

// ErrWriteOutput is wrapped by every error that occurs while writing one of
// the outputs.
var ErrWriteOutput = errors.New("failed to write output")

// Options describes one conversion.
type Options struct {
	Input      string
	GrayOutput string
	EdgeOutput string
	MemOutput  string

	// Width and Height, when non-zero, must match the source bitmap.
	Width  int
	Height int

	// MemRowOrder is the row order of the working grayscale buffer. The
	// memory dump lists the buffer as is, and both bitmaps are encoded from
	// it. BottomUp, the zero value, keeps source file order: the bottom
	// picture row comes first.
	MemRowOrder bitmap.RowOrder

	// EdgeRowOrder selects how the edge bitmap stores the buffer rows. The
	// grayscale bitmap is always written bottom-up.
	EdgeRowOrder bitmap.RowOrder

	// Logger receives progress messages. Nil discards them.
	Logger *log.Logger
}

// FromConfig builds Options from a validated configuration.
func FromConfig(cfg *config.Config) Options {
	return Options{
		Input:        cfg.Input,
		GrayOutput:   cfg.GrayOutput,
		EdgeOutput:   cfg.EdgeOutput,
		MemOutput:    cfg.MemOutput,
		Width:        cfg.Width,
		Height:       cfg.Height,
		MemRowOrder:  cfg.MemOrder(),
		EdgeRowOrder: cfg.EdgeOrder(),
	}
}

// Result describes a completed conversion.
type Result struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	GrayOutput   string `json:"gray_output"`
	EdgeOutput   string `json:"edge_output"`
	MemOutput    string `json:"mem_output"`
	EdgeRowOrder string `json:"edge_row_order"`
	MemRowOrder  string `json:"mem_row_order"`
	MemEntries   int    `json:"mem_entries"`
	ElapsedMS    int64  `json:"elapsed_ms"`

	// GrayUpright and EdgeUpright report whether each bitmap displays the
	// right way up in a standard viewer.
	GrayUpright bool `json:"gray_upright"`
	EdgeUpright bool `json:"edge_upright"`
}

// Upright reports whether a bitmap encoded with file order from a buffer
// held in buffer order displays the right way up. Viewers treat the first
// stored row as the bottom one, so the two orders must differ.
func Upright(buffer, file bitmap.RowOrder) bool {
	return buffer != file
}

// Run executes the conversion described by opts.
func Run(opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	start := time.Now()

	img, err := bitmap.DecodeFile(opts.Input, bitmap.DecodeOptions{
		Width:  opts.Width,
		Height: opts.Height,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	logger.Printf("decoded %s: %dx%d", opts.Input, img.Width, img.Height)

	// decoded rows are top-down; restore file order unless asked not to
	gray := imaging.Grayscale(img.Pix, img.Width, img.Height)
	if opts.MemRowOrder == bitmap.BottomUp {
		bitmap.FlipRows(gray, img.Width)
	}
	edges := imaging.DetectEdges(gray, img.Width, img.Height)
	logger.Printf("computed grayscale and edge maps (%s buffer)", opts.MemRowOrder)

	grayOpts := bitmap.EncodeOptions{
		RowOrder:      bitmap.BottomUp,
		XPelsPerMeter: img.Header.Info.XPelsPerMeter,
		YPelsPerMeter: img.Header.Info.YPelsPerMeter,
	}
	edgeOpts := grayOpts
	edgeOpts.RowOrder = opts.EdgeRowOrder

	err = writeOutput("grayscale bitmap", opts.GrayOutput, func(w io.Writer) error {
		return bitmap.EncodeGray(w, gray, img.Width, img.Height, grayOpts)
	})
	if err != nil {
		return nil, err
	}
	logger.Printf("wrote %s", opts.GrayOutput)

	err = writeOutput("edge bitmap", opts.EdgeOutput, func(w io.Writer) error {
		return bitmap.EncodeGray(w, edges, img.Width, img.Height, edgeOpts)
	})
	if err != nil {
		return nil, err
	}
	logger.Printf("wrote %s (%s)", opts.EdgeOutput, opts.EdgeRowOrder)

	err = writeOutput("memory dump", opts.MemOutput, func(w io.Writer) error {
		return memfile.Write(w, gray)
	})
	if err != nil {
		return nil, err
	}
	logger.Printf("wrote %s", opts.MemOutput)

	return &Result{
		Width:        img.Width,
		Height:       img.Height,
		GrayOutput:   opts.GrayOutput,
		EdgeOutput:   opts.EdgeOutput,
		MemOutput:    opts.MemOutput,
		EdgeRowOrder: opts.EdgeRowOrder.String(),
		MemRowOrder:  opts.MemRowOrder.String(),
		MemEntries:   len(gray),
		ElapsedMS:    time.Since(start).Milliseconds(),
		GrayUpright:  Upright(opts.MemRowOrder, grayOpts.RowOrder),
		EdgeUpright:  Upright(opts.MemRowOrder, edgeOpts.RowOrder),
	}, nil
}

// writeOutput writes path through a temporary file in the same directory and
// renames it into place after write succeeds.
func writeOutput(what, path string, write func(io.Writer) error) error {
	fail := func(err error) error {
		return fmt.Errorf("%w: %s %s: %w", ErrWriteOutput, what, path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fail(err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := write(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fail(err)
	}
	committed = true
	return nil
}
