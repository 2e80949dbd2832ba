// Package timeline implements the composing reader the player consumes:
// clips placed on a frame axis, each with its own source reader and effect
// chain, rendered through a shared playback cache.
package timeline

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"

	"github.com/user/playcore/pkg/cache"
	"github.com/user/playcore/pkg/effects"
	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/ports"
)

// Clip places a reader on the timeline. Position is the timeline frame the
// clip starts at; Start and End bound the source frames used (1-based,
// inclusive). Effects apply in order after the source frame is fetched.
type Clip struct {
	Reader   ports.Reader
	Position int64
	Start    int64
	End      int64
	Effects  []effects.Effect
}

// length returns the number of timeline frames the clip covers.
func (c *Clip) length() int64 {
	if c.End < c.Start {
		return 0
	}
	return c.End - c.Start + 1
}

// contains reports whether timeline frame n falls inside the clip.
func (c *Clip) contains(n int64) bool {
	return n >= c.Position && n < c.Position+c.length()
}

// Timeline composes clips into a single frame stream. Later clips win when
// they overlap earlier ones. Frames are produced at the profile size, or at
// the preview size when one is set, and land in the timeline cache on the
// way out.
type Timeline struct {
	mu    sync.Mutex
	info  ports.ReaderInfo
	clips []*Clip
	cache *cache.Memory
	open  bool
	sink  ports.DebugSink

	previewWidth  int
	previewHeight int
}

// New creates an empty timeline with the given output geometry and a cache.
func New(width, height int, fps media.Fraction, sampleRate, channels int, c *cache.Memory) *Timeline {
	return &Timeline{
		info: ports.ReaderInfo{
			Width:      width,
			Height:     height,
			FPS:        fps,
			PixelRatio: media.Fraction{Num: 1, Den: 1},
			SampleRate: sampleRate,
			Channels:   channels,
			Metadata:   map[string]string{},
		},
		cache: c,
	}
}

// SetDebugSink attaches a sink that receives every rendered frame.
func (t *Timeline) SetDebugSink(sink ports.DebugSink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = sink
}

// AddClip appends a clip. Later clips stack above earlier ones.
func (t *Timeline) AddClip(c *Clip) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clips = append(t.clips, c)
}

// Open opens every clip reader.
func (t *Timeline) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.clips {
		if c.Reader.IsOpen() {
			continue
		}
		if err := c.Reader.Open(); err != nil {
			return fmt.Errorf("open clip at %d: %w", c.Position, err)
		}
	}
	t.open = true
	return nil
}

// Close closes every clip reader and drops cached frames.
func (t *Timeline) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = false
	for _, c := range t.clips {
		if err := c.Reader.Close(); err != nil {
			return err
		}
	}
	t.cache.Clear()
	return nil
}

// IsOpen implements ports.Reader.
func (t *Timeline) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

// Info implements ports.Reader.
func (t *Timeline) Info() ports.ReaderInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	info := t.info
	info.VideoLength = t.maxFrameLocked()
	return info
}

// Cache implements ports.Reader.
func (t *Timeline) Cache() ports.Cache {
	return t.cache
}

// MaxFrame returns the last playable frame ordinal.
func (t *Timeline) MaxFrame() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxFrameLocked()
}

func (t *Timeline) maxFrameLocked() int64 {
	var max int64
	for _, c := range t.clips {
		if end := c.Position + c.length() - 1; end > max {
			max = end
		}
	}
	return max
}

// SetPreviewSize scales output frames to the given dimensions; zero restores
// natural size. The cache is cleared because cached frames no longer match.
func (t *Timeline) SetPreviewSize(width, height int) {
	t.mu.Lock()
	t.previewWidth, t.previewHeight = width, height
	t.mu.Unlock()
	t.cache.Clear()
}

// PreviewSize returns the preview dimensions, or (0, 0) at natural size.
func (t *Timeline) PreviewSize() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.previewWidth, t.previewHeight
}

// ClearAllCache clears the timeline cache and every clip reader cache.
func (t *Timeline) ClearAllCache() {
	t.mu.Lock()
	clips := append([]*Clip(nil), t.clips...)
	t.mu.Unlock()

	t.cache.Clear()
	for _, c := range clips {
		if rc := c.Reader.Cache(); rc != nil {
			rc.Clear()
		}
	}
}

// topClipAt returns the topmost clip covering timeline frame n.
func (t *Timeline) topClipAt(n int64) *Clip {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.clips) - 1; i >= 0; i-- {
		if t.clips[i].contains(n) {
			return t.clips[i]
		}
	}
	return nil
}

// GetFrame implements ports.Reader. Frames come from the cache when present;
// otherwise the covering clip renders one through its effect chain.
func (t *Timeline) GetFrame(number int64) (*media.Frame, error) {
	if !t.IsOpen() {
		return nil, ports.ErrReaderNotOpen
	}
	end := t.MaxFrame()
	if number < 1 || number > end {
		return nil, ports.OutOfBoundsf(number, end)
	}

	if f := t.cache.Get(number); f != nil {
		return f, nil
	}

	frame, err := t.renderFrame(number)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	sink := t.sink
	t.mu.Unlock()
	if sink != nil && sink.Enabled() {
		sink.SaveFrame(number, frame.Image)
	}

	t.cache.Add(frame)
	return frame, nil
}

// renderFrame produces timeline frame n outside the cache.
func (t *Timeline) renderFrame(number int64) (*media.Frame, error) {
	clip := t.topClipAt(number)
	outW, outH := t.outputSize()

	if clip == nil {
		// Gap between clips: solid black.
		return media.NewSolidFrame(number, outW, outH, image.Black), nil
	}

	src, err := clip.Reader.GetFrame(number - clip.Position + clip.Start)
	if err != nil {
		return nil, fmt.Errorf("clip at %d: %w", clip.Position, err)
	}

	// Effects mutate in place; render on a copy so the clip reader's own
	// cache keeps pristine frames.
	frame := src.Clone()
	frame.Number = number
	for _, e := range clip.Effects {
		frame = e.Apply(frame, number)
	}

	if frame.Width() != outW || frame.Height() != outH {
		scaled := image.NewRGBA(image.Rect(0, 0, outW, outH))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), frame.Image, frame.Image.Bounds(), draw.Src, nil)
		frame.Image = scaled
	}
	return frame, nil
}

// outputSize returns the dimensions frames are produced at.
func (t *Timeline) outputSize() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.previewWidth > 0 && t.previewHeight > 0 {
		return t.previewWidth, t.previewHeight
	}
	return t.info.Width, t.info.Height
}

var _ ports.Reader = (*Timeline)(nil)
