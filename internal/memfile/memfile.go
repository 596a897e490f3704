// Package memfile writes and reads plain-text memory initialization dumps:
// one byte per line as two uppercase hexadecimal digits, in buffer order.
// The format is what HDL tools such as $readmemh expect for an 8-bit wide
// memory.
package memfile

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrSyntax is returned by Read for a line that is not a two-digit hex byte.
var ErrSyntax = errors.New("memfile: invalid line")

const hexDigits = "0123456789ABCDEF"

// Write emits pix to w, one "%02X\n" line per byte.
func Write(w io.Writer, pix []byte) error {
	bw := bufio.NewWriter(w)
	line := [3]byte{0, 0, '\n'}
	for _, v := range pix {
		line[0] = hexDigits[v>>4]
		line[1] = hexDigits[v&0x0F]
		if _, err := bw.Write(line[:]); err != nil {
			return fmt.Errorf("failed to write memory dump: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write memory dump: %w", err)
	}
	return nil
}

// Read parses a dump produced by Write. Blank lines and lines starting with
// "//" are skipped; hex digits may be in either case.
func Read(r io.Reader) ([]byte, error) {
	var out []byte
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if len(line) != 2 {
			return nil, fmt.Errorf("line %d %q: %w", lineNo, line, ErrSyntax)
		}
		var b [1]byte
		if _, err := hex.Decode(b[:], []byte(line)); err != nil {
			return nil, fmt.Errorf("line %d %q: %w", lineNo, line, ErrSyntax)
		}
		out = append(out, b[0])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read memory dump: %w", err)
	}
	return out, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory dump: %w", err)
	}
	defer f.Close()
	return Read(f)
}
