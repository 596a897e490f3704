package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ironsheep/bmp-edge-tools/internal/bitmap"
	"github.com/ironsheep/bmp-edge-tools/internal/imaging"
	"github.com/ironsheep/bmp-edge-tools/internal/memfile"
	"github.com/ironsheep/bmp-edge-tools/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "bmp_convert", "bmp_sample").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "bmp_info":
		return s.handleInfo(args)
	case "bmp_convert":
		return s.handleConvert(args)
	case "bmp_sample":
		return s.handleSample(args)
	case "bmp_edge_detect":
		return s.handleEdgeDetect(args)
	case "bmp_preview":
		return s.handlePreview(args)
	case "bmp_edge_stats":
		return s.handleEdgeStats(args)
	case "bmp_mem_verify":
		return s.handleMemVerify(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments, treating a missing object as empty.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type pathArgs struct {
	Path string `json:"path"`
}

// === Bitmap Information ===

// InfoResult summarizes the headers of a 24-bit bitmap.
type InfoResult struct {
	Path          string `json:"path"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	BitCount      int    `json:"bit_count"`
	Compression   int    `json:"compression"`
	DataOffset    int    `json:"data_offset"`
	FileSize      int    `json:"file_size"`
	RowPadding    int    `json:"row_padding"`
	XPelsPerMeter int    `json:"x_pels_per_meter"`
	YPelsPerMeter int    `json:"y_pels_per_meter"`
}

func (s *Server) handleInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bitmap: %w", err)
	}
	defer f.Close()

	h, err := bitmap.ReadHeader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Path, err)
	}
	return &InfoResult{
		Path:          a.Path,
		Width:         int(h.Info.Width),
		Height:        int(h.Info.Height),
		BitCount:      int(h.Info.BitCount),
		Compression:   int(h.Info.Compression),
		DataOffset:    int(h.File.Offset),
		FileSize:      int(h.File.Size),
		RowPadding:    bitmap.RowPadding(int(h.Info.Width), 3),
		XPelsPerMeter: int(h.Info.XPelsPerMeter),
		YPelsPerMeter: int(h.Info.YPelsPerMeter),
	}, nil
}

// === Conversion ===

type convertArgs struct {
	Input        string `json:"input"`
	GrayOutput   string `json:"gray_output"`
	EdgeOutput   string `json:"edge_output"`
	MemOutput    string `json:"mem_output"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	EdgeRowOrder string `json:"edge_row_order"`
	MemRowOrder  string `json:"mem_row_order"`
}

func (s *Server) handleConvert(args json.RawMessage) (interface{}, error) {
	var a convertArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	cfg := *s.config
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Input, a.Input)
	override(&cfg.GrayOutput, a.GrayOutput)
	override(&cfg.EdgeOutput, a.EdgeOutput)
	override(&cfg.MemOutput, a.MemOutput)
	override(&cfg.EdgeRowOrder, a.EdgeRowOrder)
	override(&cfg.MemRowOrder, a.MemRowOrder)
	if a.Width != 0 {
		cfg.Width = a.Width
	}
	if a.Height != 0 {
		cfg.Height = a.Height
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := pipeline.FromConfig(&cfg)
	opts.Logger = s.Logger
	result, err := pipeline.Run(opts)

	// drop anything cached for paths this run may have rewritten
	for _, p := range []string{cfg.GrayOutput, cfg.EdgeOutput, cfg.MemOutput} {
		s.cache.Evict(p)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// === Sampling ===

type sampleArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// SampleResult reports the grayscale and edge values read at a coordinate
// after clamping it to the image.
type SampleResult struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	ClampedX int  `json:"clamped_x"`
	ClampedY int  `json:"clamped_y"`
	Clamped  bool `json:"clamped"`
	Gray     int  `json:"gray"`
	Edge     int  `json:"edge"`
}

func (s *Server) handleSample(args json.RawMessage) (interface{}, error) {
	var a sampleArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	cx, cy := imaging.ClampPoint(frame.Width, frame.Height, a.X, a.Y)
	return &SampleResult{
		X:        a.X,
		Y:        a.Y,
		ClampedX: cx,
		ClampedY: cy,
		Clamped:  cx != a.X || cy != a.Y,
		Gray:     int(imaging.Sample(frame.Gray, frame.Width, frame.Height, a.X, a.Y)),
		Edge:     int(imaging.Sample(frame.Edges(), frame.Width, frame.Height, a.X, a.Y)),
	}, nil
}

// === Edge Maps and Previews ===

type edgeDetectArgs struct {
	Path  string  `json:"path"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a edgeDetectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Preview(frame.EdgeImage(), imaging.PreviewOptions{Scale: a.Scale})
}

type previewArgs struct {
	Path    string  `json:"path"`
	Channel string  `json:"channel"`
	X1      int     `json:"x1"`
	Y1      int     `json:"y1"`
	X2      int     `json:"x2"`
	Y2      int     `json:"y2"`
	Scale   float64 `json:"scale"`
	FlipV   bool    `json:"flip_v"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	opts := imaging.PreviewOptions{Scale: a.Scale, FlipV: a.FlipV}
	if a.X2 != 0 || a.Y2 != 0 {
		opts.Region = &imaging.Region{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2}
	}

	switch a.Channel {
	case "", "gray":
		frame, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		return imaging.Preview(frame.GrayImage(), opts)
	case "edge":
		frame, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		return imaging.Preview(frame.EdgeImage(), opts)
	case "file":
		img, err := s.cache.LoadImage(a.Path)
		if err != nil {
			return nil, err
		}
		return imaging.Preview(img, opts)
	default:
		return nil, fmt.Errorf("unknown channel %q (want gray, edge, or file)", a.Channel)
	}
}

// === Statistics ===

const defaultEdgeThreshold = 128

type edgeStatsArgs struct {
	Path      string `json:"path"`
	Threshold *int   `json:"threshold"`
	Histogram bool   `json:"histogram"`
}

func (s *Server) handleEdgeStats(args json.RawMessage) (interface{}, error) {
	var a edgeStatsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	threshold := defaultEdgeThreshold
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.ComputeEdgeStats(frame.Edges(), frame.Width, frame.Height, threshold, a.Histogram)
}

// === Memory Dump Verification ===

type memVerifyArgs struct {
	Path        string `json:"path"`
	MemPath     string `json:"mem_path"`
	MemRowOrder string `json:"mem_row_order"`
}

// MemVerifyResult compares a memory dump with the grayscale conversion of
// its source bitmap. MismatchX and MismatchY are picture coordinates (y = 0
// at the top) and, like the values, only meaningful when FirstMismatch is
// not -1.
type MemVerifyResult struct {
	Match           bool   `json:"match"`
	RowOrder        string `json:"mem_row_order"`
	Entries         int    `json:"entries"`
	Expected        int    `json:"expected"`
	FirstMismatch   int    `json:"first_mismatch"`
	MismatchX       int    `json:"mismatch_x"`
	MismatchY       int    `json:"mismatch_y"`
	ExpectedValue   int    `json:"expected_value"`
	GotValue        int    `json:"got_value"`
	MismatchedCount int    `json:"mismatched_count"`
}

func (s *Server) handleMemVerify(args json.RawMessage) (interface{}, error) {
	var a memVerifyArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	order := s.config.MemOrder()
	if a.MemRowOrder != "" {
		if order, err = bitmap.ParseRowOrder(a.MemRowOrder); err != nil {
			return nil, err
		}
	}
	mem, err := memfile.ReadFile(a.MemPath)
	if err != nil {
		return nil, err
	}
	return compareMem(frame, mem, order), nil
}

// compareMem checks mem against the frame's grayscale buffer laid out in
// order.
func compareMem(frame *imaging.Frame, mem []byte, order bitmap.RowOrder) *MemVerifyResult {
	want := frame.Gray
	if order == bitmap.BottomUp {
		want = append([]byte(nil), frame.Gray...)
		bitmap.FlipRows(want, frame.Width)
	}

	result := &MemVerifyResult{
		RowOrder:      order.String(),
		Entries:       len(mem),
		Expected:      len(want),
		FirstMismatch: -1,
	}
	n := len(mem)
	if len(want) < n {
		n = len(want)
	}
	for i := 0; i < n; i++ {
		if mem[i] == want[i] {
			continue
		}
		if result.FirstMismatch < 0 {
			result.FirstMismatch = i
			result.MismatchX = i % frame.Width
			result.MismatchY = i / frame.Width
			if order == bitmap.BottomUp {
				result.MismatchY = frame.Height - 1 - result.MismatchY
			}
			result.ExpectedValue = int(want[i])
			result.GotValue = int(mem[i])
		}
		result.MismatchedCount++
	}
	if result.FirstMismatch < 0 && len(mem) != len(frame.Gray) {
		result.FirstMismatch = n
	}
	result.Match = result.FirstMismatch < 0
	return result
}
