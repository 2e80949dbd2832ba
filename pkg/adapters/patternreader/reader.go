// Package patternreader provides a synthetic frame source rendering
// deterministic test patterns. It stands in for decoded media in tests, demos
// and as a mask source for wipe transitions.
package patternreader

import (
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/user/playcore/pkg/adapters/ggrenderer"
	"github.com/user/playcore/pkg/effects"
	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/ports"
)

// Classic colour-bar ramp, white to black.
var barColors = []color.RGBA{
	{R: 0xeb, G: 0xeb, B: 0xeb, A: 0xff},
	{R: 0xeb, G: 0xeb, B: 0x10, A: 0xff},
	{R: 0x10, G: 0xeb, B: 0xeb, A: 0xff},
	{R: 0x10, G: 0xeb, B: 0x10, A: 0xff},
	{R: 0xeb, G: 0x10, B: 0xeb, A: 0xff},
	{R: 0xeb, G: 0x10, B: 0x10, A: 0xff},
	{R: 0x10, G: 0x10, B: 0xeb, A: 0xff},
	{R: 0x10, G: 0x10, B: 0x10, A: 0xff},
}

// Reader renders one of a few fixed patterns:
//
//	"bars"       vertical colour bars
//	"sweep"      colour bars with a sweeping cursor line per frame
//	"hgradient"  horizontal black-to-white ramp (a wipe mask)
//	"solid:#rrggbb"  a solid colour
//
// All patterns except "sweep" are static, so the reader reports a
// single-image source and the Mask effect fetches it once.
type Reader struct {
	mu      sync.Mutex
	open    bool
	pattern string
	info    ports.ReaderInfo

	renderer *ggrenderer.Renderer
	static   *media.Frame
}

// New creates a pattern reader with the given geometry and length.
func New(pattern string, width, height int, fps media.Fraction, length int64) *Reader {
	return &Reader{
		pattern:  pattern,
		renderer: ggrenderer.New(),
		info: ports.ReaderInfo{
			Width:          width,
			Height:         height,
			FPS:            fps,
			PixelRatio:     media.Fraction{Num: 1, Den: 1},
			VideoLength:    length,
			HasSingleImage: pattern != "sweep",
			Metadata:       map[string]string{},
		},
	}
}

func init() {
	// Mask sources are rebuilt from JSON through the effects registry;
	// the path carries the pattern name.
	effects.RegisterMaskSource("PatternReader", func(path string) (ports.Reader, error) {
		return New(path, 1280, 720, media.Fraction{Num: 30, Den: 1}, 1), nil
	})
}

// Open implements ports.Reader.
func (r *Reader) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = true
	return nil
}

// Close implements ports.Reader.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
	r.static = nil
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
	return r.info
}

// Cache implements ports.Reader; pattern frames are cheap to re-render.
func (r *Reader) Cache() ports.Cache {
	return nil
}

// GetFrame implements ports.Reader.
func (r *Reader) GetFrame(number int64) (*media.Frame, error) {
	if !r.IsOpen() {
		return nil, ports.ErrReaderNotOpen
	}
	if number < 1 || number > r.info.VideoLength {
		return nil, ports.OutOfBoundsf(number, r.info.VideoLength)
	}

	if r.info.HasSingleImage {
		r.mu.Lock()
		if r.static != nil {
			f := r.static
			r.mu.Unlock()
			clone := f.Clone()
			clone.Number = number
			return clone, nil
		}
		r.mu.Unlock()
	}

	frame := r.render(number)

	if r.info.HasSingleImage {
		r.mu.Lock()
		r.static = frame
		r.mu.Unlock()
		clone := frame.Clone()
		clone.Number = number
		return clone, nil
	}
	return frame, nil
}

// render draws the pattern for one frame.
func (r *Reader) render(number int64) *media.Frame {
	w, h := r.info.Width, r.info.Height

	if after, ok := strings.CutPrefix(r.pattern, "solid:"); ok {
		return media.NewSolidFrame(number, w, h, parseHex(after))
	}

	canvas := r.renderer.CreateCanvas(w, h, color.Black)
	switch r.pattern {
	case "hgradient":
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / max(1, w-1))
			canvas.DrawRect(x, 0, 1, h, color.RGBA{R: v, G: v, B: v, A: 0xff})
		}
	default: // bars, sweep
		bw := (w + len(barColors) - 1) / len(barColors)
		for i, c := range barColors {
			canvas.DrawRect(i*bw, 0, bw, h, c)
		}
		if r.pattern == "sweep" {
			x := int(number*4) % max(1, w)
			canvas.DrawLine(x, 0, x, h, color.White, 3)
			canvas.DrawCircle(x, h/2, h/16+2, color.White)
		}
	}

	frame := media.NewFrame(number, w, h)
	img := canvas.ToImage()
	if rgba, ok := img.(*image.RGBA); ok {
		copy(frame.Image.Pix, rgba.Pix)
	}
	return frame
}

// parseHex parses "#rrggbb"; malformed input yields opaque black.
func parseHex(s string) color.RGBA {
	out := color.RGBA{A: 0xff}
	if len(s) != 7 || s[0] != '#' {
		return out
	}
	hv := func(c byte) uint8 {
		switch {
		case c >= '0' && c <= '9':
			return c - '0'
		case c >= 'a' && c <= 'f':
			return c - 'a' + 10
		case c >= 'A' && c <= 'F':
			return c - 'A' + 10
		}
		return 0
	}
	out.R = hv(s[1])<<4 | hv(s[2])
	out.G = hv(s[3])<<4 | hv(s[4])
	out.B = hv(s[5])<<4 | hv(s[6])
	return out
}

var _ ports.Reader = (*Reader)(nil)
