package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/bmp-edge-tools/internal/config"
	"github.com/ironsheep/bmp-edge-tools/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// envHelp lists the settings the server reads, in help output order.
var envHelp = []struct{ key, text string }{
	{config.EnvInput, "default source BMP for bmp_convert (" + config.DefaultInput + ")"},
	{config.EnvGrayOutput, "default grayscale BMP output (" + config.DefaultGrayOutput + ")"},
	{config.EnvEdgeOutput, "default edge-map BMP output (" + config.DefaultEdgeOutput + ")"},
	{config.EnvMemOutput, "default memory dump output (" + config.DefaultMemOutput + ")"},
	{config.EnvWidth, "required source width, 0 accepts any"},
	{config.EnvHeight, "required source height, 0 accepts any"},
	{config.EnvEdgeRowOrder, "edge BMP row order: top-down or bottom-up (" + config.DefaultEdgeRowOrder + ")"},
	{config.EnvMemRowOrder, "buffer and memory dump row order (" + config.DefaultMemRowOrder + ")"},
	{config.EnvLogLevel, "debug enables debug logging"},
}

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("bmp-edge-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp(os.Stdout)
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	srv := server.New(cfg)
	if cfg.Debug() {
		log.Printf("BMP Edge MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Defaults: edge rows %s, memory rows %s", cfg.EdgeRowOrder, cfg.MemRowOrder)
		srv.Logger = log.Default()
	}

	server.Version = Version
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "bmp-edge-mcp - MCP server for BMP grayscale and edge conversion")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: bmp-edge-mcp [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Environment variables (also read from %s):\n", config.DotEnvFile)
	for _, e := range envHelp {
		fmt.Fprintf(w, "  %-24s %s\n", e.key, e.text)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "This server communicates via MCP protocol over stdin/stdout.")
}
