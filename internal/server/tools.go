package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func integerProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

var pathProp = stringProp("Absolute path to a 24-bit uncompressed BMP file")

func rowOrderProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"top-down", "bottom-up"},
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Bitmap Information
		{
			Name:        "bmp_info",
			Description: "Read and validate the headers of a 24-bit BMP file. Returns dimensions, bit depth, compression, pixel data offset, file size, and per-row padding.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp,
				},
				"required": []string{"path"},
			},
		},

		// Conversion
		{
			Name:        "bmp_convert",
			Description: "Convert a 24-bit BMP into an 8-bit grayscale BMP, an 8-bit Sobel edge-map BMP, and a hex memory-initialization dump of the grayscale pixels. Stops at the first error; outputs are never left partially written.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input":          stringProp("Source 24-bit BMP (default: goldmine.bmp)"),
					"gray_output":    stringProp("Grayscale BMP to write (default: output_grayscale.bmp)"),
					"edge_output":    stringProp("Edge-map BMP to write (default: output_edge.bmp)"),
					"mem_output":     stringProp("Memory dump to write (default: output_image.mem)"),
					"width":          integerProp("Required source width; 0 accepts any"),
					"height":         integerProp("Required source height; 0 accepts any"),
					"edge_row_order": rowOrderProp("Row order the edge BMP stores the buffer in (server default: top-down)"),
					"mem_row_order":  rowOrderProp("Row order of the working buffer and memory dump; bottom-up keeps source file order (server default: bottom-up)"),
				},
				"required": []string{"input"},
			},
		},

		// Sampling
		{
			Name:        "bmp_sample",
			Description: "Read the grayscale and edge values at a pixel. Coordinates outside the image are clamped to the nearest border pixel; the clamped coordinate is reported.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp,
					"x":    integerProp("X coordinate (0 = left); may be outside the image"),
					"y":    integerProp("Y coordinate (0 = top); may be outside the image"),
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Edge Maps and Previews
		{
			Name:        "bmp_edge_detect",
			Description: "Compute the Sobel edge-intensity map of a 24-bit BMP and return it upright as a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProp,
					"scale": numberProp("Resize factor for the returned image (default: 1.0)"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "bmp_preview",
			Description: "Return a region of the grayscale or edge plane of a 24-bit BMP, or of any image file, as a base64-encoded PNG. Omit x2 and y2 for the whole image. Set flip_v to view a top-down edge BMP upright.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProp("Absolute path to the image file"),
					"channel": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"gray", "edge", "file"},
						"description": "gray or edge plane of a 24-bit source, or the file as stored (default: gray)",
					},
					"x1":     integerProp("Left edge X coordinate (0-based)"),
					"y1":     integerProp("Top edge Y coordinate (0-based)"),
					"x2":     integerProp("Right edge X coordinate (exclusive)"),
					"y2":     integerProp("Bottom edge Y coordinate (exclusive)"),
					"scale":  numberProp("Resize factor (default: 1.0)"),
					"flip_v": map[string]interface{}{"type": "boolean", "description": "Mirror the result vertically"},
				},
				"required": []string{"path"},
			},
		},

		// Statistics
		{
			Name:        "bmp_edge_stats",
			Description: "Summarize the Sobel edge map of a 24-bit BMP: edge pixel count above a threshold, zero and saturated pixels, mean and maximum magnitude, and optionally the full 256-bin histogram.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProp,
					"threshold": integerProp("Magnitude at or above which a pixel is an edge, 0-255 (default: 128)"),
					"histogram": map[string]interface{}{"type": "boolean", "description": "Include the 256-bin histogram"},
				},
				"required": []string{"path"},
			},
		},

		// Memory Dump Verification
		{
			Name:        "bmp_mem_verify",
			Description: "Check a hex memory dump against the grayscale conversion of its source BMP and report the first mismatch in picture coordinates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProp,
					"mem_path":      stringProp("Absolute path to the memory dump"),
					"mem_row_order": rowOrderProp("Row order the dump was written in (server default: bottom-up)"),
				},
				"required": []string{"path", "mem_path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
