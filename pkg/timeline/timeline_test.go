package timeline

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/playcore/pkg/cache"
	"github.com/user/playcore/pkg/effects"
	"github.com/user/playcore/pkg/keyframe"
	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/mocks"
	"github.com/user/playcore/pkg/ports"
)

func fps30() media.Fraction { return media.Fraction{Num: 30, Den: 1} }

// colourReader serves solid frames whose red channel encodes the source
// frame number.
func colourReader(length int64) *mocks.Reader {
	r := mocks.NewReader(16, 16, length)
	r.GetFrameFunc = func(number int64) (*media.Frame, error) {
		if number < 1 || number > length {
			return nil, ports.OutOfBoundsf(number, length)
		}
		c := color.RGBA{R: uint8(number), A: 255}
		return media.NewSolidFrame(number, 16, 16, c), nil
	}
	return r
}

func newTimeline(clips ...*Clip) *Timeline {
	t := New(16, 16, fps30(), 44100, 2, cache.NewMemory(1<<24, 0))
	for _, c := range clips {
		t.AddClip(c)
	}
	return t
}

func redAt(t *testing.T, f *media.Frame, x, y int) uint8 {
	t.Helper()
	return f.Image.Pix[y*f.Image.Stride+x*4]
}

func TestGetFrameMapsClipSourceFrames(t *testing.T) {
	src := colourReader(100)
	tl := newTimeline(&Clip{Reader: src, Position: 10, Start: 5, End: 14})
	require.NoError(t, tl.Open())

	// Timeline frame 12 → source frame 12 − 10 + 5 = 7.
	f, err := tl.GetFrame(12)
	require.NoError(t, err)
	assert.EqualValues(t, 12, f.Number)
	assert.EqualValues(t, 7, redAt(t, f, 0, 0))
}

func TestMaxFrame(t *testing.T) {
	tl := newTimeline(
		&Clip{Reader: colourReader(100), Position: 1, Start: 1, End: 10},
		&Clip{Reader: colourReader(100), Position: 20, Start: 1, End: 5},
	)
	assert.EqualValues(t, 24, tl.MaxFrame())
}

func TestGapRendersBlack(t *testing.T) {
	tl := newTimeline(&Clip{Reader: colourReader(100), Position: 10, Start: 1, End: 5})
	require.NoError(t, tl.Open())

	f, err := tl.GetFrame(3)
	require.NoError(t, err)
	r := redAt(t, f, 8, 8)
	assert.EqualValues(t, 0, r)
	_, _, _, a := pixelAtRGBA(f, 8, 8)
	assert.EqualValues(t, 255, a)
}

func pixelAtRGBA(f *media.Frame, x, y int) (uint8, uint8, uint8, uint8) {
	i := y*f.Image.Stride + x*4
	p := f.Image.Pix
	return p[i], p[i+1], p[i+2], p[i+3]
}

func TestTopmostClipWins(t *testing.T) {
	bottom := colourReader(100)
	top := mocks.NewReader(16, 16, 100)
	top.GetFrameFunc = func(number int64) (*media.Frame, error) {
		return media.NewSolidFrame(number, 16, 16, color.RGBA{R: 200, A: 255}), nil
	}

	tl := newTimeline(
		&Clip{Reader: bottom, Position: 1, Start: 1, End: 50},
		&Clip{Reader: top, Position: 10, Start: 1, End: 10},
	)
	require.NoError(t, tl.Open())

	f, err := tl.GetFrame(15)
	require.NoError(t, err)
	assert.EqualValues(t, 200, redAt(t, f, 0, 0))
}

func TestGetFrameErrors(t *testing.T) {
	tl := newTimeline(&Clip{Reader: colourReader(100), Position: 1, Start: 1, End: 10})

	_, err := tl.GetFrame(5)
	assert.ErrorIs(t, err, ports.ErrReaderNotOpen)

	require.NoError(t, tl.Open())

	_, err = tl.GetFrame(0)
	assert.ErrorIs(t, err, ports.ErrOutOfBounds)
	_, err = tl.GetFrame(11)
	assert.ErrorIs(t, err, ports.ErrOutOfBounds)
}

func TestGetFrameCachesResults(t *testing.T) {
	src := colourReader(100)
	tl := newTimeline(&Clip{Reader: src, Position: 1, Start: 1, End: 10})
	require.NoError(t, tl.Open())

	_, err := tl.GetFrame(4)
	require.NoError(t, err)
	_, err = tl.GetFrame(4)
	require.NoError(t, err)

	assert.Len(t, src.GetFrameCalls, 1, "second request served from cache")
	assert.True(t, tl.Cache().Contains(4))
}

func TestEffectsApplyToClonedFrames(t *testing.T) {
	src := colourReader(100)

	flare := &countingEffect{}
	tl := newTimeline(&Clip{
		Reader: src, Position: 1, Start: 1, End: 10,
		Effects: []effects.Effect{flare},
	})
	require.NoError(t, tl.Open())

	f, err := tl.GetFrame(2)
	require.NoError(t, err)
	assert.Equal(t, 1, flare.calls)
	assert.EqualValues(t, 99, redAt(t, f, 0, 0), "effect output visible")
}

// countingEffect paints the red channel and counts applications.
type countingEffect struct {
	calls int
}

func (c *countingEffect) Name() string { return "Counting" }

func (c *countingEffect) Apply(frame *media.Frame, number int64) *media.Frame {
	c.calls++
	for i := 0; i < len(frame.Image.Pix); i += 4 {
		frame.Image.Pix[i] = 99
	}
	return frame
}

func TestMaskEffectOnTimeline(t *testing.T) {
	src := colourReader(100)
	maskSrc := mocks.NewReader(16, 16, 1)
	maskSrc.GetFrameFunc = func(number int64) (*media.Frame, error) {
		return media.NewSolidFrame(number, 16, 16, color.RGBA{R: 255, G: 255, B: 255, A: 255}), nil
	}

	mask := effects.NewMask(maskSrc, keyframe.NewConstant(0), keyframe.NewConstant(0))
	tl := newTimeline(&Clip{
		Reader: src, Position: 1, Start: 1, End: 10,
		Effects: []effects.Effect{mask},
	})
	require.NoError(t, tl.Open())

	f, err := tl.GetFrame(1)
	require.NoError(t, err)
	_, _, _, a := pixelAtRGBA(f, 4, 4)
	assert.EqualValues(t, 0, a, "white mask erases the clip")
}

func TestPreviewScaling(t *testing.T) {
	tl := newTimeline(&Clip{Reader: colourReader(100), Position: 1, Start: 1, End: 10})
	require.NoError(t, tl.Open())
	tl.SetPreviewSize(8, 4)

	f, err := tl.GetFrame(2)
	require.NoError(t, err)
	assert.Equal(t, 8, f.Width())
	assert.Equal(t, 4, f.Height())

	w, h := tl.PreviewSize()
	assert.Equal(t, 8, w)
	assert.Equal(t, 4, h)
}

func TestClearAllCacheClearsClipCaches(t *testing.T) {
	clipCache := cache.NewMemory(1<<20, 0)
	src := colourReader(100)
	src.CacheFunc = func() ports.Cache { return clipCache }

	tl := newTimeline(&Clip{Reader: src, Position: 1, Start: 1, End: 10})
	require.NoError(t, tl.Open())

	clipCache.Add(media.NewFrame(3, 4, 4))
	_, err := tl.GetFrame(2)
	require.NoError(t, err)
	require.True(t, tl.Cache().Contains(2))

	tl.ClearAllCache()

	assert.False(t, tl.Cache().Contains(2))
	assert.EqualValues(t, 0, clipCache.Count())
}

func TestCloseClearsStateAndStopsReads(t *testing.T) {
	tl := newTimeline(&Clip{Reader: colourReader(100), Position: 1, Start: 1, End: 10})
	require.NoError(t, tl.Open())
	_, err := tl.GetFrame(1)
	require.NoError(t, err)

	require.NoError(t, tl.Close())
	_, err = tl.GetFrame(1)
	assert.ErrorIs(t, err, ports.ErrReaderNotOpen)
	assert.EqualValues(t, 0, tl.Cache().Count())
}
