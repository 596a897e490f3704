// Package server implements the MCP (Model Context Protocol) server for the
// bitmap edge tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the grayscale
// conversion, Sobel edge detection, and memory dump pipeline to MCP clients.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - bmp_info: Validate a 24-bit BMP and report its headers
//   - bmp_convert: Write the grayscale BMP, edge BMP, and memory dump
//   - bmp_sample: Read gray and edge values at a clamped coordinate
//   - bmp_edge_detect: Edge map as PNG
//   - bmp_preview: Region of the gray or edge plane, or of any image file
//   - bmp_edge_stats: Edge magnitude histogram summary
//   - bmp_mem_verify: Compare a memory dump with its source
//
// # Frame Caching
//
// Decoded sources are cached by path as imaging.Frame values, and the edge
// map of a frame is computed at most once. bmp_convert evicts its output
// paths so later previews see the new files.
//
// # Defaults
//
// New takes the loaded config.Config. bmp_convert starts from its paths,
// dimensions, and row orders and applies only the arguments a call sets.
// bmp_mem_verify reads dumps in the configured memory row order unless a
// call names one.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
package server
