package imaging

import (
	"fmt"
	"image"
	_ "image/png" // Register PNG format decoder
	"os"
	"sync"

	"github.com/ironsheep/bmp-edge-tools/internal/bitmap"
	_ "golang.org/x/image/bmp" // Register BMP format decoder (8-bit outputs included)
)

// Frame is a decoded 24-bit source bitmap reduced to grayscale, with its edge
// map computed on first use.
type Frame struct {
	Path   string
	Width  int
	Height int

	// Gray is the row-major grayscale buffer, row 0 at the top.
	Gray []byte

	// Header is the header of the source file.
	Header bitmap.Header

	edgesOnce sync.Once
	edges     []byte
}

// NewFrame converts a decoded bitmap to a Frame.
func NewFrame(path string, img *bitmap.Image) *Frame {
	return &Frame{
		Path:   path,
		Width:  img.Width,
		Height: img.Height,
		Gray:   Grayscale(img.Pix, img.Width, img.Height),
		Header: img.Header,
	}
}

// Edges returns the Sobel edge map of the frame. It is computed once and
// shared by later callers; the returned slice must not be modified.
func (f *Frame) Edges() []byte {
	f.edgesOnce.Do(func() {
		f.edges = DetectEdges(f.Gray, f.Width, f.Height)
	})
	return f.edges
}

// GrayImage returns the grayscale buffer as an *image.Gray.
func (f *Frame) GrayImage() *image.Gray {
	return GrayImage(f.Gray, f.Width, f.Height)
}

// EdgeImage returns the edge map as an *image.Gray.
func (f *Frame) EdgeImage() *image.Gray {
	return GrayImage(f.Edges(), f.Width, f.Height)
}

// FrameCache provides thread-safe caching of decoded frames keyed by path.
//
// A frame is decoded once; later Load calls for the same path return the
// cached copy without disk I/O, including its edge map once it has been
// computed. Frames stay cached until Evict or Clear.
type FrameCache struct {
	mu     sync.RWMutex
	frames map[string]*Frame
	images map[string]image.Image
}

// NewFrameCache creates an empty cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		frames: make(map[string]*Frame),
		images: make(map[string]image.Image),
	}
}

// Load returns the frame for a 24-bit bitmap at path, decoding it on first
// use. Decode errors from the bitmap package are returned unchanged apart
// from wrapping, so errors.Is still identifies the failure kind.
func (c *FrameCache) Load(path string) (*Frame, error) {
	c.mu.RLock()
	if f, ok := c.frames[path]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	img, err := bitmap.DecodeFile(path, bitmap.DecodeOptions{})
	if err != nil {
		return nil, err
	}
	f := NewFrame(path, img)

	c.mu.Lock()
	// keep the first frame if another goroutine won the race
	if existing, ok := c.frames[path]; ok {
		f = existing
	} else {
		c.frames[path] = f
	}
	c.mu.Unlock()

	return f, nil
}

// LoadImage decodes any registered image format at path, including the
// 8-bit grayscale bitmaps this tool writes, and caches the result.
func (c *FrameCache) LoadImage(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Evict removes everything cached for path. Call it after rewriting a file
// so the next load sees the new contents.
func (c *FrameCache) Evict(path string) {
	c.mu.Lock()
	delete(c.frames, path)
	delete(c.images, path)
	c.mu.Unlock()
}

// Clear removes all cached frames and images.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	c.frames = make(map[string]*Frame)
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Len reports the number of cached frames and images.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames) + len(c.images)
}
