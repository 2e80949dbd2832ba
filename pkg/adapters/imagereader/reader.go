// Package imagereader provides a still-image frame source. Every frame is
// the same picture, which makes it the usual mask source for wipe
// transitions.
package imagereader

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/user/playcore/pkg/adapters/ggrenderer"
	"github.com/user/playcore/pkg/effects"
	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/ports"
)

// Reader serves a single decoded image as an endless frame stream.
type Reader struct {
	mu       sync.Mutex
	path     string
	open     bool
	img      *image.RGBA
	renderer ports.Renderer
	info     ports.ReaderInfo
}

// New creates a reader for the image at path. The file is decoded on Open.
func New(path string) *Reader {
	return &Reader{
		path:     path,
		renderer: ggrenderer.New(),
		info: ports.ReaderInfo{
			FPS:            media.Fraction{Num: 30, Den: 1},
			PixelRatio:     media.Fraction{Num: 1, Den: 1},
			VideoLength:    1,
			HasSingleImage: true,
			Metadata:       map[string]string{},
		},
	}
}

func init() {
	effects.RegisterMaskSource("ImageReader", func(path string) (ports.Reader, error) {
		return New(path), nil
	})
}

// Open decodes the image.
func (r *Reader) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open {
		return nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}

	decoded, err := r.renderer.DecodeImage(data, ports.FormatAuto)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	rgba := image.NewRGBA(decoded.Bounds().Sub(decoded.Bounds().Min))
	draw.Draw(rgba, rgba.Bounds(), decoded, decoded.Bounds().Min, draw.Src)

	r.img = rgba
	r.info.Width = rgba.Rect.Dx()
	r.info.Height = rgba.Rect.Dy()
	r.open = true
	return nil
}

// Close releases the decoded image.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
	r.img = nil
	return nil
}

// IsOpen implements ports.Reader.
func (r *Reader) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

// Info implements ports.Reader.
func (r *Reader) Info() ports.ReaderInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info
}

// Cache implements ports.Reader; a still image needs no cache.
func (r *Reader) Cache() ports.Cache {
	return nil
}

// GetFrame returns the picture for any ordinal ≥ 1.
func (r *Reader) GetFrame(number int64) (*media.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open {
		return nil, ports.ErrReaderNotOpen
	}
	if number < 1 {
		return nil, ports.OutOfBoundsf(number, 1)
	}
	frame := &media.Frame{Number: number, Image: r.img}
	return frame.Clone(), nil
}

var _ ports.Reader = (*Reader)(nil)
