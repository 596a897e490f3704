package pipeline

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"

	"github.com/ironsheep/bmp-edge-tools/internal/bitmap"
	"github.com/ironsheep/bmp-edge-tools/internal/config"
	"github.com/ironsheep/bmp-edge-tools/internal/imaging"
	"github.com/ironsheep/bmp-edge-tools/internal/memfile"
)

const testPels = 2835

// writeSource writes a 24-bit bottom-up bitmap whose pixels come from pixel,
// given in top-down coordinates.
func writeSource(t *testing.T, dir string, width, height int, pixel func(x, y int) (r, g, b uint8)) string {
	t.Helper()
	pad := bitmap.RowPadding(width, 3)
	stride := width*3 + pad
	file := bitmap.FileHeader{Type: bitmap.Signature, Size: uint32(54 + stride*height), Offset: 54}
	info := bitmap.InfoHeader{
		Size:          40,
		Width:         int32(width),
		Height:        int32(height),
		Planes:        1,
		BitCount:      24,
		SizeImage:     uint32(stride * height),
		XPelsPerMeter: testPels,
		YPelsPerMeter: testPels,
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &file)
	binary.Write(&buf, binary.LittleEndian, &info)
	for y := height - 1; y >= 0; y-- {
		for x := 0; x < width; x++ {
			r, g, b := pixel(x, y)
			buf.Write([]byte{b, g, r})
		}
		buf.Write(make([]byte, pad))
	}

	path := filepath.Join(dir, "source.bmp")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	return path
}

// bottomBand is black except for a white bottom row, so its edge map is zero
// in the top rows and non-zero in the bottom two.
func bottomBand(height int) func(x, y int) (uint8, uint8, uint8) {
	return func(x, y int) (uint8, uint8, uint8) {
		if y == height-1 {
			return 255, 255, 255
		}
		return 10, 20, 30
	}
}

func testOptions(dir, input string) Options {
	return Options{
		Input:        input,
		GrayOutput:   filepath.Join(dir, "gray.bmp"),
		EdgeOutput:   filepath.Join(dir, "edge.bmp"),
		MemOutput:    filepath.Join(dir, "image.mem"),
		MemRowOrder:  bitmap.BottomUp,
		EdgeRowOrder: bitmap.TopDown,
	}
}

// fileRows returns the pixel rows of an 8-bit bitmap in file order.
func fileRows(t *testing.T, path string, width, height int) [][]byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	stride := width + bitmap.RowPadding(width, 1)
	if len(data) != bitmap.GrayDataOffset+stride*height {
		t.Fatalf("%s: got %d bytes, want %d", path, len(data), bitmap.GrayDataOffset+stride*height)
	}
	rows := make([][]byte, height)
	for i := range rows {
		off := bitmap.GrayDataOffset + i*stride
		rows[i] = data[off : off+width]
	}
	return rows
}

func assertMissing(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if _, err := os.Stat(p); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("%s should not exist (stat err: %v)", p, err)
		}
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	const width, height = 6, 4
	input := writeSource(t, dir, width, height, bottomBand(height))
	opts := testOptions(dir, input)

	result, err := Run(opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Width != width || result.Height != height {
		t.Errorf("dimensions: got %dx%d, want %dx%d", result.Width, result.Height, width, height)
	}
	if result.MemEntries != width*height {
		t.Errorf("MemEntries: got %d, want %d", result.MemEntries, width*height)
	}
	if result.EdgeRowOrder != "top-down" || result.MemRowOrder != "bottom-up" {
		t.Errorf("row orders: got edge %q mem %q", result.EdgeRowOrder, result.MemRowOrder)
	}
	if result.GrayUpright || !result.EdgeUpright {
		t.Errorf("upright: got gray %v edge %v, want false true", result.GrayUpright, result.EdgeUpright)
	}

	// grayscale output is a valid bitmap; from a file-order buffer it shows
	// the picture upside down
	f, err := os.Open(opts.GrayOutput)
	if err != nil {
		t.Fatalf("failed to open gray output: %v", err)
	}
	defer f.Close()
	img, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode gray output: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, width, height) {
		t.Errorf("gray bounds: got %v", img.Bounds())
	}
	wantTop := imaging.Luminance(10, 20, 30)
	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 255 {
		t.Errorf("gray displayed top-left: got %d, want 255", r>>8)
	}
	if r, _, _, _ := img.At(0, height-1).RGBA(); uint8(r>>8) != wantTop {
		t.Errorf("gray displayed bottom-left: got %d, want %d", r>>8, wantTop)
	}

	// memory dump holds the grayscale buffer, bottom picture row first
	mem, err := memfile.ReadFile(opts.MemOutput)
	if err != nil {
		t.Fatalf("failed to read memory dump: %v", err)
	}
	if len(mem) != width*height {
		t.Fatalf("memory dump: got %d entries, want %d", len(mem), width*height)
	}
	if mem[0] != 255 || mem[len(mem)-1] != wantTop {
		t.Errorf("memory dump ends: got %02X..%02X", mem[0], mem[len(mem)-1])
	}

	// edge output matches the engine, buffer row 0 stored first
	edges := imaging.DetectEdges(mem, width, height)
	rows := fileRows(t, opts.EdgeOutput, width, height)
	for y := 0; y < height; y++ {
		if diff := cmp.Diff(edges[y*width:(y+1)*width], rows[y]); diff != "" {
			t.Errorf("edge row %d mismatch (-want +got):\n%s", y, diff)
		}
	}
}

// With default settings every output keeps the row order of the source
// file: the dump and the grayscale bitmap start with the first stored
// source row, and the top-down edge bitmap displays upright.
func TestRun_DefaultKeepsSourceFileOrder(t *testing.T) {
	dir := t.TempDir()
	const width, height = 4, 2
	input := writeSource(t, dir, width, height, func(x, y int) (uint8, uint8, uint8) {
		if y == 0 {
			return 200, 200, 200
		}
		return 0, 0, 0
	})

	cfg := config.Default()
	cfg.Input = input
	cfg.GrayOutput = filepath.Join(dir, "gray.bmp")
	cfg.EdgeOutput = filepath.Join(dir, "edge.bmp")
	cfg.MemOutput = filepath.Join(dir, "image.mem")
	if _, err := Run(FromConfig(cfg)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// first stored source row, B,G,R after the 54-byte headers
	src, err := os.ReadFile(input)
	if err != nil {
		t.Fatalf("failed to read source: %v", err)
	}
	firstStored := make([]byte, width)
	for x := range firstStored {
		p := src[54+x*3:]
		firstStored[x] = imaging.Luminance(p[2], p[1], p[0])
	}

	dump, err := os.ReadFile(cfg.MemOutput)
	if err != nil {
		t.Fatalf("failed to read dump: %v", err)
	}
	if !bytes.HasPrefix(dump, []byte("00\n")) {
		t.Errorf("dump should start with the black bottom row, got %q", dump[:3])
	}
	mem, err := memfile.ReadFile(cfg.MemOutput)
	if err != nil {
		t.Fatalf("failed to read memory dump: %v", err)
	}
	if diff := cmp.Diff(firstStored, mem[:width]); diff != "" {
		t.Errorf("dump first row mismatch (-want +got):\n%s", diff)
	}

	top := imaging.Luminance(200, 200, 200)
	grayRows := fileRows(t, cfg.GrayOutput, width, height)
	if diff := cmp.Diff(bytes.Repeat([]byte{top}, width), grayRows[0]); diff != "" {
		t.Errorf("gray first stored row should be the top picture row (-want +got):\n%s", diff)
	}

	// the edge file stores the bottom picture row first, like its source
	edgeRows := fileRows(t, cfg.EdgeOutput, width, height)
	edges := imaging.DetectEdges(mem, width, height)
	if diff := cmp.Diff(edges[:width], edgeRows[0]); diff != "" {
		t.Errorf("edge first stored row mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_RowOrders(t *testing.T) {
	const width, height = 5, 4
	flat := imaging.Luminance(10, 20, 30)
	tests := []struct {
		name          string
		mem           bitmap.RowOrder
		edge          bitmap.RowOrder
		wantEdgeFlat  bool  // first stored edge row is the flat top of the picture
		wantGrayFirst uint8 // first stored grayscale pixel
		wantMemFirst  uint8
	}{
		{"file order, top-down edge", bitmap.BottomUp, bitmap.TopDown, false, flat, 255},
		{"file order, bottom-up edge", bitmap.BottomUp, bitmap.BottomUp, true, flat, 255},
		{"picture order, top-down edge", bitmap.TopDown, bitmap.TopDown, true, 255, flat},
		{"picture order, bottom-up edge", bitmap.TopDown, bitmap.BottomUp, false, 255, flat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			opts := testOptions(dir, writeSource(t, dir, width, height, bottomBand(height)))
			opts.MemRowOrder = tt.mem
			opts.EdgeRowOrder = tt.edge
			result, err := Run(opts)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			rows := fileRows(t, opts.EdgeOutput, width, height)
			flatFirst := bytes.Equal(rows[0], make([]byte, width))
			if flatFirst != tt.wantEdgeFlat {
				t.Errorf("edge first stored row: got %v, want flat %v", rows[0], tt.wantEdgeFlat)
			}
			// a viewer puts the first stored row at the bottom
			if result.EdgeUpright != !tt.wantEdgeFlat {
				t.Errorf("EdgeUpright: got %v", result.EdgeUpright)
			}

			grayRows := fileRows(t, opts.GrayOutput, width, height)
			if grayRows[0][0] != tt.wantGrayFirst {
				t.Errorf("gray first stored pixel: got %d, want %d", grayRows[0][0], tt.wantGrayFirst)
			}

			mem, err := memfile.ReadFile(opts.MemOutput)
			if err != nil {
				t.Fatalf("failed to read memory dump: %v", err)
			}
			if mem[0] != tt.wantMemFirst {
				t.Errorf("memory dump first entry: got %02X, want %02X", mem[0], tt.wantMemFirst)
			}
		})
	}
}

func TestRun_PassesResolutionThrough(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir, writeSource(t, dir, 3, 3, bottomBand(3)))
	if _, err := Run(opts); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, path := range []string{opts.GrayOutput, opts.EdgeOutput} {
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("failed to open %s: %v", path, err)
		}
		var file bitmap.FileHeader
		var info bitmap.InfoHeader
		binary.Read(f, binary.LittleEndian, &file)
		binary.Read(f, binary.LittleEndian, &info)
		f.Close()

		if info.XPelsPerMeter != testPels || info.YPelsPerMeter != testPels {
			t.Errorf("%s resolution: got %dx%d, want %d", path, info.XPelsPerMeter, info.YPelsPerMeter, testPels)
		}
		if info.BitCount != 8 || file.Offset != bitmap.GrayDataOffset {
			t.Errorf("%s: bit count %d offset %d", path, info.BitCount, file.Offset)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	dir := t.TempDir()
	input := writeSource(t, dir, 7, 5, func(x, y int) (uint8, uint8, uint8) {
		return uint8(x * 37), uint8(y * 51), uint8(x * y * 13)
	})

	read := func(opts Options) [][]byte {
		var out [][]byte
		for _, p := range []string{opts.GrayOutput, opts.EdgeOutput, opts.MemOutput} {
			data, err := os.ReadFile(p)
			if err != nil {
				t.Fatalf("failed to read %s: %v", p, err)
			}
			out = append(out, data)
		}
		return out
	}

	first := testOptions(t.TempDir(), input)
	second := testOptions(t.TempDir(), input)
	for _, opts := range []Options{first, second} {
		if _, err := Run(opts); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	}
	if diff := cmp.Diff(read(first), read(second)); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestRun_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string) string
		width   int
		wantErr error
	}{
		{
			name:    "missing input",
			setup:   func(t *testing.T, dir string) string { return filepath.Join(dir, "absent.bmp") },
			wantErr: fs.ErrNotExist,
		},
		{
			name: "bad signature",
			setup: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "bad.bmp")
				os.WriteFile(path, append([]byte("PK"), make([]byte, 60)...), 0644)
				return path
			},
			wantErr: bitmap.ErrSignature,
		},
		{
			name: "truncated",
			setup: func(t *testing.T, dir string) string {
				path := writeSource(t, dir, 4, 4, bottomBand(4))
				data, _ := os.ReadFile(path)
				os.WriteFile(path, data[:70], 0644)
				return path
			},
			wantErr: bitmap.ErrTruncated,
		},
		{
			name:    "unexpected width",
			setup:   func(t *testing.T, dir string) string { return writeSource(t, dir, 4, 4, bottomBand(4)) },
			width:   630,
			wantErr: bitmap.ErrDimensions,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			opts := testOptions(dir, tt.setup(t, dir))
			opts.Width = tt.width

			_, err := Run(opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run error = %v, want %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrWriteOutput) {
				t.Error("input failure reported as output failure")
			}
			assertMissing(t, opts.GrayOutput, opts.EdgeOutput, opts.MemOutput)
		})
	}
}

func TestRun_StopsAtFirstWriteFailure(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir, writeSource(t, dir, 4, 4, bottomBand(4)))
	opts.EdgeOutput = filepath.Join(dir, "missing-dir", "edge.bmp")

	_, err := Run(opts)
	if !errors.Is(err, ErrWriteOutput) {
		t.Fatalf("Run error = %v, want ErrWriteOutput", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("write error should keep the OS cause: %v", err)
	}

	if _, err := os.Stat(opts.GrayOutput); err != nil {
		t.Errorf("gray output written before the failure should remain: %v", err)
	}
	assertMissing(t, opts.EdgeOutput, opts.MemOutput)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "source.bmp" && e.Name() != "gray.bmp" {
			t.Errorf("unexpected file left behind: %s", e.Name())
		}
	}
}

func TestRun_FailedWriteKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir, writeSource(t, dir, 4, 4, bottomBand(4)))
	// a directory in place of the memory dump makes the final rename fail
	if err := os.Mkdir(opts.MemOutput, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(opts.MemOutput, "keep"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := Run(opts)
	if !errors.Is(err, ErrWriteOutput) {
		t.Fatalf("Run error = %v, want ErrWriteOutput", err)
	}
	if _, err := os.Stat(filepath.Join(opts.MemOutput, "keep")); err != nil {
		t.Errorf("existing content was disturbed: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, ".image.mem.tmp-*"))
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		Input:        "a.bmp",
		GrayOutput:   "b.bmp",
		EdgeOutput:   "c.bmp",
		MemOutput:    "d.mem",
		Width:        630,
		Height:       630,
		EdgeRowOrder: "bottom-up",
		MemRowOrder:  "top-down",
	}
	opts := FromConfig(cfg)
	want := Options{
		Input:        "a.bmp",
		GrayOutput:   "b.bmp",
		EdgeOutput:   "c.bmp",
		MemOutput:    "d.mem",
		Width:        630,
		Height:       630,
		MemRowOrder:  bitmap.TopDown,
		EdgeRowOrder: bitmap.BottomUp,
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}
