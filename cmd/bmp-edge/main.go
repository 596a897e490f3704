package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/ironsheep/bmp-edge-tools/internal/bitmap"
	"github.com/ironsheep/bmp-edge-tools/internal/config"
	"github.com/ironsheep/bmp-edge-tools/internal/pipeline"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	defaultColor = "\x1b[0m"
	successColor = "\x1b[32m"
	warnColor    = "\x1b[33m"
	errorColor   = "\x1b[31m"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	errColor, outColor := isTerminal(stderr), isTerminal(stdout)
	decorate := func(s, c string) string {
		if !errColor {
			return s
		}
		return c + s + defaultColor
	}
	highlight := func(s string) string {
		if !outColor {
			return s
		}
		return successColor + s + defaultColor
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, decorate("Error: "+err.Error(), errorColor))
		return 1
	}

	fs := flag.NewFlagSet("bmp-edge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Input, "in", cfg.Input, "source 24-bit BMP")
	fs.StringVar(&cfg.GrayOutput, "gray", cfg.GrayOutput, "grayscale BMP to write")
	fs.StringVar(&cfg.EdgeOutput, "edge", cfg.EdgeOutput, "edge-map BMP to write")
	fs.StringVar(&cfg.MemOutput, "mem", cfg.MemOutput, "memory dump to write")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "required source width (0 accepts any)")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "required source height (0 accepts any)")
	fs.StringVar(&cfg.EdgeRowOrder, "edge-order", cfg.EdgeRowOrder, "edge BMP row order: top-down or bottom-up")
	fs.StringVar(&cfg.MemRowOrder, "mem-order", cfg.MemRowOrder, "buffer and memory dump row order: bottom-up (source file order) or top-down")
	verbose := fs.Bool("v", cfg.Debug(), "log each step")
	version := fs.Bool("version", false, "print version information")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "bmp-edge - convert a 24-bit BMP to grayscale, edge-map, and memory dump outputs")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage: bmp-edge [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Settings may also come from BMP_EDGE_* environment variables or a .env file.")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *version {
		fmt.Fprintf(stdout, "bmp-edge %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, decorate("Error: "+err.Error(), errorColor))
		return 2
	}

	opts := pipeline.FromConfig(cfg)
	if *verbose {
		opts.Logger = log.New(stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
	}
	if !pipeline.Upright(opts.MemRowOrder, bitmap.BottomUp) {
		fmt.Fprintln(stderr, decorate("Note: "+cfg.GrayOutput+" displays vertically flipped (use -mem-order top-down)", warnColor))
	}
	if !pipeline.Upright(opts.MemRowOrder, opts.EdgeRowOrder) {
		fmt.Fprintln(stderr, decorate("Note: "+cfg.EdgeOutput+" displays vertically flipped (change -edge-order)", warnColor))
	}

	result, err := pipeline.Run(opts)
	if err != nil {
		fmt.Fprintln(stderr, decorate("Error: "+err.Error(), errorColor))
		return 1
	}

	fmt.Fprintf(stdout, "Processed %dx%d image in %d ms\n", result.Width, result.Height, result.ElapsedMS)
	fmt.Fprintf(stdout, "Grayscale image saved as: %s\n", highlight(result.GrayOutput))
	fmt.Fprintf(stdout, "Edge-detected image saved as: %s\n", highlight(result.EdgeOutput))
	fmt.Fprintf(stdout, "Memory file saved as: %s\n", highlight(result.MemOutput))
	return 0
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
