package prefetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/mocks"
	"github.com/user/playcore/pkg/ports"
	"github.com/user/playcore/pkg/settings"
)

func newTestEngine() *Engine {
	return NewEngine(settings.Default(), mocks.NewLogger())
}

func TestComputeDirectionRespectsSpeedAndLastDir(t *testing.T) {
	e := newTestEngine()

	// Default: paused, initial direction forward.
	assert.EqualValues(t, 1, e.computeDirection())

	e.SetSpeed(3)
	assert.EqualValues(t, 1, e.computeDirection())
	assert.EqualValues(t, 3, e.GetSpeed())

	e.SetSpeed(-2)
	assert.EqualValues(t, -1, e.computeDirection())

	// Pausing preserves the last direction.
	e.SetSpeed(0)
	assert.EqualValues(t, -1, e.computeDirection())

	e.SetSpeed(5)
	e.SetSpeed(0)
	assert.EqualValues(t, 1, e.computeDirection())
}

func TestComputeWindowBounds(t *testing.T) {
	cases := []struct {
		name                      string
		playhead, dir, ahead, end int64
		wantBegin, wantEnd        int64
	}{
		{"forward", 10, 1, 5, 50, 10, 15},
		{"forward clamped", 47, 1, 10, 50, 47, 50},
		{"backward", 20, -1, 7, 100, 13, 20},
		{"backward clamped", 3, -1, 10, 100, 1, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			begin, end := computeWindowBounds(tc.playhead, tc.dir, tc.ahead, tc.end)
			assert.Equal(t, tc.wantBegin, begin)
			assert.Equal(t, tc.wantEnd, end)
			assert.LessOrEqual(t, begin, end)
		})
	}
}

func TestHandleUserSeek(t *testing.T) {
	e := newTestEngine()

	e.lastCachedIndex.Store(100)
	e.handleUserSeek(50, 1)
	assert.EqualValues(t, 49, e.lastCachedIndex.Load())

	e.handleUserSeek(50, -1)
	assert.EqualValues(t, 51, e.lastCachedIndex.Load())
}

func TestBytesPerFrame(t *testing.T) {
	// 1280x720 RGBA + one frame of 48kHz stereo float samples at 24 fps.
	got := bytesPerFrame(1280, 720, 48000, 2, 24)
	assert.EqualValues(t, 1280*720*4+(48000*2/24)*4, got)
}

func TestForwardPrefetch(t *testing.T) {
	e := newTestEngine()
	c := mocks.NewCache()
	r := mocks.NewReader(10, 10, 10)

	e.lastCachedIndex.Store(0)
	full := e.prefetchWindow(c, 1, 5, 1, r)

	assert.False(t, full)
	assert.EqualValues(t, 5, e.lastCachedIndex.Load())
	for n := int64(1); n <= 5; n++ {
		assert.True(t, c.Contains(n), "frame %d", n)
	}

	// Second pass over the same window finds everything cached.
	e.lastCachedIndex.Store(0)
	full = e.prefetchWindow(c, 1, 5, 1, r)
	assert.True(t, full)
}

func TestBackwardPrefetch(t *testing.T) {
	e := newTestEngine()
	c := mocks.NewCache()
	r := mocks.NewReader(10, 10, 20)

	e.lastCachedIndex.Store(16)
	full := e.prefetchWindow(c, 10, 15, -1, r)

	assert.False(t, full)
	assert.EqualValues(t, 10, e.lastCachedIndex.Load())
	for n := int64(10); n <= 15; n++ {
		assert.True(t, c.Contains(n), "frame %d", n)
	}
}

func TestPrefetchStopsAtReaderEnd(t *testing.T) {
	e := newTestEngine()
	c := mocks.NewCache()
	r := mocks.NewReader(10, 10, 3)

	e.lastCachedIndex.Store(0)
	full := e.prefetchWindow(c, 1, 10, 1, r)

	assert.False(t, full)
	assert.EqualValues(t, 3, e.lastCachedIndex.Load())
	assert.True(t, c.Contains(3))
	assert.False(t, c.Contains(4))
}

func TestUserSeekInterruptsPrefetch(t *testing.T) {
	e := newTestEngine()
	r := mocks.NewReader(10, 10, 40)
	c := mocks.NewCache()

	// A seek arriving mid-batch aborts the rest of the window; here the
	// seek fires while frame 23 is being cached.
	c.AddFunc = func(frame *media.Frame) {
		c.Backing.Add(frame)
		if frame.Number == 23 {
			e.Seek(23, true)
		}
	}

	e.lastCachedIndex.Store(19)
	full := e.prefetchWindow(c, 20, 30, 1, r)

	assert.False(t, full)
	assert.EqualValues(t, 23, e.lastCachedIndex.Load())
	assert.True(t, c.Contains(23))
	assert.False(t, c.Contains(24))
	assert.True(t, e.userSeeked.Load())
}

func TestClearCacheIfPaused(t *testing.T) {
	e := newTestEngine()
	c := mocks.NewCache()
	r := mocks.NewReader(10, 10, 100)
	r.CacheFunc = func() ports.Cache { return c }
	e.Reader(r)

	c.Add(media.NewFrame(5, 10, 10))
	c.Add(media.NewFrame(10, 10, 10))

	// Paused with the playhead missing clears everything.
	assert.True(t, e.clearCacheIfPaused(42, true, c))
	assert.EqualValues(t, 0, c.Count())

	c.Add(media.NewFrame(5, 10, 10))

	// Paused with the playhead cached leaves the cache alone.
	assert.False(t, e.clearCacheIfPaused(5, true, c))
	assert.True(t, c.Contains(5))

	// Playing never clears, even on a miss.
	assert.False(t, e.clearCacheIfPaused(99, false, c))
	assert.True(t, c.Contains(5))
}

func TestClearCacheOnPauseMissPolicy(t *testing.T) {
	s := settings.Default()
	s.ClearCacheOnPauseMiss = false
	e := NewEngine(s, mocks.NewLogger())

	c := mocks.NewCache()
	r := mocks.NewReader(10, 10, 100)
	r.CacheFunc = func() ports.Cache { return c }
	e.Reader(r)

	c.Add(media.NewFrame(5, 10, 10))

	assert.False(t, e.clearCacheIfPaused(42, true, c))
	assert.True(t, c.Contains(5))
}

func TestSeekWithPrerollClearsWhenTargetMissing(t *testing.T) {
	e := newTestEngine()
	c := mocks.NewCache()
	r := mocks.NewReader(10, 10, 100)
	r.CacheFunc = func() ports.Cache { return c }
	e.Reader(r)

	c.Add(media.NewFrame(5, 10, 10))

	// Target cached: no clear, but the seek flag is set.
	e.Seek(5, true)
	assert.True(t, c.Contains(5))
	assert.True(t, e.userSeeked.Load())
	assert.EqualValues(t, 5, e.requestedDisplayFrame.Load())

	e.userSeeked.Store(false)

	// Target missing: the whole cache is dropped.
	e.Seek(60, true)
	assert.EqualValues(t, 0, c.Count())
	assert.True(t, e.userSeeked.Load())
	assert.EqualValues(t, 60, e.requestedDisplayFrame.Load())
}

func TestSeekWithoutPreroll(t *testing.T) {
	e := newTestEngine()
	c := mocks.NewCache()
	r := mocks.NewReader(10, 10, 100)
	r.CacheFunc = func() ports.Cache { return c }
	e.Reader(r)

	c.Add(media.NewFrame(5, 10, 10))

	e.Seek(42, false)
	assert.False(t, e.userSeeked.Load())
	assert.True(t, c.Contains(5), "plain seek never clears the cache")
	assert.EqualValues(t, 42, e.requestedDisplayFrame.Load())
}

func TestIsReady(t *testing.T) {
	e := newTestEngine()
	assert.False(t, e.IsReady())

	// min preroll defaults to 4: ready strictly above it.
	e.cachedFrameCount.Store(4)
	assert.False(t, e.IsReady())
	e.cachedFrameCount.Store(5)
	assert.True(t, e.IsReady())
}

func TestWorkerPrefetchesAroundPlayhead(t *testing.T) {
	s := settings.Default()
	e := NewEngine(s, mocks.NewLogger())

	c := mocks.NewCache()
	r := mocks.NewReader(8, 8, 100)
	r.CacheFunc = func() ports.Cache { return c }
	e.Reader(r)

	require.True(t, e.StartThread())
	defer e.StopThread(1000)

	e.Seek(1, true)
	e.SetSpeed(1)

	deadline := time.Now().Add(2 * time.Second)
	for !e.IsReady() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	assert.True(t, e.IsReady(), "worker should fill the preroll window")
	assert.True(t, c.Contains(1))
	assert.True(t, c.Contains(2))
}

func TestStopThreadWithinDeadline(t *testing.T) {
	e := newTestEngine()
	c := mocks.NewCache()
	r := mocks.NewReader(8, 8, 100)
	r.CacheFunc = func() ports.Cache { return c }
	e.Reader(r)

	require.True(t, e.StartThread())
	assert.True(t, e.StopThread(1000))
	// Stopping an already stopped engine is a no-op.
	assert.True(t, e.StopThread(10))
}

func TestWorkerIdlesWhenCachingDisabled(t *testing.T) {
	s := settings.Default()
	s.EnablePlaybackCaching = false
	e := NewEngine(s, mocks.NewLogger())

	c := mocks.NewCache()
	r := mocks.NewReader(8, 8, 100)
	r.CacheFunc = func() ports.Cache { return c }
	e.Reader(r)

	require.True(t, e.StartThread())
	defer e.StopThread(1000)

	e.Seek(1, false)
	e.SetSpeed(1)
	time.Sleep(120 * time.Millisecond)

	assert.EqualValues(t, 0, c.Count())
	assert.Empty(t, r.GetFrameCalls)
}
