// Package media defines the frame and rational types shared by readers,
// caches and effects.
package media

import (
	"image"
	"image/color"
	"image/draw"
)

// Frame is a single rendered video frame: an alpha-premultiplied RGBA image
// plus an optional block of audio samples covering the frame's duration.
//
// Frame numbers start at 1. The stdlib image.RGBA type stores
// alpha-premultiplied channels, which is the working format of the whole
// pipeline; effects keep that invariant.
type Frame struct {
	Number int64
	Image  *image.RGBA

	// Audio holds one slice of float32 samples per channel. It is carried
	// through the pipeline untouched; only its size matters for cache
	// accounting.
	Audio      [][]float32
	SampleRate int
	Channels   int
}

// NewFrame allocates a black, fully transparent frame of the given size.
func NewFrame(number int64, width, height int) *Frame {
	return &Frame{
		Number: number,
		Image:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// NewSolidFrame allocates a frame filled with a single premultiplied colour.
func NewSolidFrame(number int64, width, height int, c color.Color) *Frame {
	f := NewFrame(number, width, height)
	draw.Draw(f.Image, f.Image.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return f
}

// Width returns the image width in pixels, or 0 when no image is attached.
func (f *Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Rect.Dx()
}

// Height returns the image height in pixels, or 0 when no image is attached.
func (f *Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Rect.Dy()
}

// Bytes reports the approximate memory footprint of the frame: pixel buffer
// plus audio payload. Used by the cache for its byte budget.
func (f *Frame) Bytes() int64 {
	var total int64
	if f.Image != nil {
		total += int64(len(f.Image.Pix))
	}
	for _, ch := range f.Audio {
		total += int64(len(ch)) * 4
	}
	return total
}

// Clone returns a deep copy of the frame. Effects that replace the image
// wholesale operate on clones so cached frames stay immutable.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Number:     f.Number,
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
	}
	if f.Image != nil {
		img := image.NewRGBA(f.Image.Rect)
		copy(img.Pix, f.Image.Pix)
		out.Image = img
	}
	if f.Audio != nil {
		out.Audio = make([][]float32, len(f.Audio))
		for i, ch := range f.Audio {
			out.Audio[i] = append([]float32(nil), ch...)
		}
	}
	return out
}
