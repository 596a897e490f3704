// Package config resolves the settings for a conversion run from an optional
// .env file, the process environment, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ironsheep/bmp-edge-tools/internal/bitmap"
)

// Environment variables read by Load.
const (
	EnvInput        = "BMP_EDGE_INPUT"
	EnvGrayOutput   = "BMP_EDGE_GRAY_OUTPUT"
	EnvEdgeOutput   = "BMP_EDGE_EDGE_OUTPUT"
	EnvMemOutput    = "BMP_EDGE_MEM_OUTPUT"
	EnvWidth        = "BMP_EDGE_WIDTH"
	EnvHeight       = "BMP_EDGE_HEIGHT"
	EnvEdgeRowOrder = "BMP_EDGE_EDGE_ROW_ORDER"
	EnvMemRowOrder  = "BMP_EDGE_MEM_ROW_ORDER"
	EnvLogLevel     = "BMP_EDGE_LOG_LEVEL"
)

// Defaults used when neither the environment nor a flag sets a value.
const (
	DefaultInput        = "goldmine.bmp"
	DefaultGrayOutput   = "output_grayscale.bmp"
	DefaultEdgeOutput   = "output_edge.bmp"
	DefaultMemOutput    = "output_image.mem"
	DefaultEdgeRowOrder = "top-down"
	DefaultMemRowOrder  = "bottom-up"
)

// DotEnvFile is the file Load reads before consulting the environment.
var DotEnvFile = ".env"

// Config holds the settings for one conversion run.
type Config struct {
	Input      string
	GrayOutput string
	EdgeOutput string
	MemOutput  string

	// Width and Height are the expected source dimensions; zero accepts any.
	Width  int
	Height int

	// EdgeRowOrder is the row order of the edge bitmap: "top-down" or
	// "bottom-up".
	EdgeRowOrder string

	// MemRowOrder is the row order of the working buffer, and so of the
	// memory dump. "bottom-up" keeps the rows in source file order, bottom
	// picture row first; "top-down" starts with the top picture row. Both
	// bitmaps are encoded from this buffer.
	MemRowOrder string

	LogLevel string
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Input:        DefaultInput,
		GrayOutput:   DefaultGrayOutput,
		EdgeOutput:   DefaultEdgeOutput,
		MemOutput:    DefaultMemOutput,
		EdgeRowOrder: DefaultEdgeRowOrder,
		MemRowOrder:  DefaultMemRowOrder,
	}
}

// Load returns the defaults overridden by DotEnvFile and then the process
// environment. Variables already set in the environment win over the file.
// A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	cfg := Default()
	stringVar(&cfg.Input, EnvInput)
	stringVar(&cfg.GrayOutput, EnvGrayOutput)
	stringVar(&cfg.EdgeOutput, EnvEdgeOutput)
	stringVar(&cfg.MemOutput, EnvMemOutput)
	stringVar(&cfg.EdgeRowOrder, EnvEdgeRowOrder)
	stringVar(&cfg.MemRowOrder, EnvMemRowOrder)
	stringVar(&cfg.LogLevel, EnvLogLevel)
	if err := intVar(&cfg.Width, EnvWidth); err != nil {
		return nil, err
	}
	if err := intVar(&cfg.Height, EnvHeight); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input path is empty")
	}
	if c.GrayOutput == "" || c.EdgeOutput == "" || c.MemOutput == "" {
		return fmt.Errorf("output paths must not be empty")
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("expected dimensions %dx%d must not be negative", c.Width, c.Height)
	}
	if _, err := bitmap.ParseRowOrder(c.EdgeRowOrder); err != nil {
		return fmt.Errorf("invalid edge row order: %w", err)
	}
	if _, err := bitmap.ParseRowOrder(c.MemRowOrder); err != nil {
		return fmt.Errorf("invalid memory row order: %w", err)
	}
	return nil
}

// EdgeOrder returns the parsed edge row order. It assumes Validate passed.
func (c *Config) EdgeOrder() bitmap.RowOrder {
	order, err := bitmap.ParseRowOrder(c.EdgeRowOrder)
	if err != nil {
		return bitmap.TopDown
	}
	return order
}

// MemOrder returns the parsed working buffer row order. It assumes Validate
// passed.
func (c *Config) MemOrder() bitmap.RowOrder {
	order, err := bitmap.ParseRowOrder(c.MemRowOrder)
	if err != nil {
		return bitmap.BottomUp
	}
	return order
}

// Debug reports whether debug logging was requested.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

func stringVar(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func intVar(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", key, err)
	}
	*dst = n
	return nil
}
