// Package prefetch implements the directional playback cache engine: a
// background worker that keeps a sliding window of rendered frames around a
// user-controlled playhead.
package prefetch

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/playcore/pkg/ports"
	"github.com/user/playcore/pkg/settings"
)

// CacheHost is the capability a composing reader (the timeline) offers the
// engine beyond the plain Reader surface: the playable extent, the preview
// dimensions used for cache sizing, and a way to drop every cache level at
// once. Plain readers work without it; the engine falls back to the reader's
// own info and cache.
type CacheHost interface {
	// MaxFrame returns the last playable frame ordinal.
	MaxFrame() int64

	// PreviewSize returns the preview dimensions, or (0, 0) when frames
	// are produced at natural size.
	PreviewSize() (int, int)

	// ClearAllCache clears the reader's cache hierarchy.
	ClearAllCache()
}

const idleSleep = 50 * time.Millisecond

// Engine fills a reader's cache in the direction of playback. One background
// goroutine per engine; every control field is an atomic the worker reloads
// at each iteration.
type Engine struct {
	settings *settings.Settings
	log      ports.Logger

	mu     sync.Mutex // guards reader swaps
	reader ports.Reader

	speed      atomic.Int32
	lastSpeed  atomic.Int32
	lastDir    atomic.Int32
	userSeeked atomic.Bool

	requestedDisplayFrame atomic.Int64
	cachedFrameCount      atomic.Int64
	minFramesAhead        atomic.Int64
	lastCachedIndex       atomic.Int64

	stop    chan struct{}
	done    chan struct{}
	running atomic.Bool
}

// NewEngine creates an engine bound to the given settings. Attach a reader
// with Reader before starting.
func NewEngine(s *settings.Settings, log ports.Logger) *Engine {
	e := &Engine{
		settings: s,
		log:      log.WithComponent("prefetch"),
	}
	e.lastSpeed.Store(1)
	e.lastDir.Store(1)
	e.requestedDisplayFrame.Store(1)
	e.minFramesAhead.Store(s.VideoCacheMinPrerollFrames)
	return e
}

// Reader attaches the frame source the engine prefetches from.
func (e *Engine) Reader(r ports.Reader) {
	e.mu.Lock()
	e.reader = r
	e.mu.Unlock()
}

// getReader returns the currently attached reader.
func (e *Engine) getReader() ports.Reader {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reader
}

// SetSpeed updates playback speed. Direction state only follows non-zero
// speeds, so pausing never flips the cached direction.
func (e *Engine) SetSpeed(speed int32) {
	if speed != 0 {
		e.lastSpeed.Store(speed)
		if speed > 0 {
			e.lastDir.Store(1)
		} else {
			e.lastDir.Store(-1)
		}
	}
	e.speed.Store(speed)
}

// GetSpeed returns the current playback speed.
func (e *Engine) GetSpeed() int32 {
	return e.speed.Load()
}

// IsReady reports whether enough frames are cached to start playback.
func (e *Engine) IsReady() bool {
	return e.cachedFrameCount.Load() > e.minFramesAhead.Load()
}

// Seek moves the playhead. With preroll, the move counts as a user seek: the
// next iteration restarts prefetching at the playhead, and if the target is
// not already cached the whole cache hierarchy is dropped first.
func (e *Engine) Seek(position int64, preroll bool) {
	if preroll {
		e.userSeeked.Store(true)

		r := e.getReader()
		if r != nil && r.Cache() != nil && !r.Cache().Contains(position) {
			e.clearAllCache(r)
		}
	}
	e.requestedDisplayFrame.Store(position)
}

// StartThread launches the background worker and reports whether it is
// running.
func (e *Engine) StartThread() bool {
	if !e.running.CompareAndSwap(false, true) {
		return true
	}
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.run()
	e.log.Debug("Prefetch worker started")
	return true
}

// StopThread signals the worker to exit and waits up to timeoutMs. It
// returns true iff the worker terminated within the deadline.
func (e *Engine) StopThread(timeoutMs int) bool {
	if !e.running.Load() {
		return true
	}
	e.mu.Lock()
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
	e.mu.Unlock()
	select {
	case <-e.done:
		e.running.Store(false)
		return true
	case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
		return false
	}
}

// shouldExit reports whether StopThread has been called.
func (e *Engine) shouldExit() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

// sleep pauses the worker, returning early when stopped.
func (e *Engine) sleep(d time.Duration) {
	select {
	case <-e.stop:
	case <-time.After(d):
	}
}

// computeDirection returns the effective direction: the sign of the current
// speed, or the last non-zero direction while paused.
func (e *Engine) computeDirection() int64 {
	speed := e.speed.Load()
	switch {
	case speed > 0:
		return 1
	case speed < 0:
		return -1
	default:
		return int64(e.lastDir.Load())
	}
}

// handleUserSeek places the prefetch cursor just behind the playhead so the
// next step lands on it.
func (e *Engine) handleUserSeek(playhead, dir int64) {
	e.lastCachedIndex.Store(playhead - dir)
}

// bytesPerFrame estimates the memory footprint of one frame: RGBA pixels
// plus one frame's worth of float32 audio samples.
func bytesPerFrame(width, height, sampleRate, channels int, fps float64) int64 {
	bytes := int64(width) * int64(height) * 4
	if fps > 0 {
		bytes += int64(float64(sampleRate*channels)/fps) * 4
	}
	return bytes
}

// computeWindowBounds returns the caching window around the playhead in the
// direction of travel, clamped to [1, timelineEnd].
func computeWindowBounds(playhead, dir, aheadCount, timelineEnd int64) (int64, int64) {
	var begin, end int64
	if dir > 0 {
		begin = playhead
		end = playhead + aheadCount
	} else {
		begin = playhead - aheadCount
		end = playhead
	}
	if begin < 1 {
		begin = 1
	}
	if end > timelineEnd {
		end = timelineEnd
	}
	return begin, end
}

// clearCacheIfPaused drops every cache level when playback is paused and the
// playhead is no longer cached: the consumer has moved far away and the
// window contents are useless. Gated by the ClearCacheOnPauseMiss setting.
func (e *Engine) clearCacheIfPaused(playhead int64, paused bool, cache ports.Cache) bool {
	if paused && !cache.Contains(playhead) {
		if !e.settings.ClearCacheOnPauseMiss {
			return false
		}
		e.clearAllCache(e.getReader())
		return true
	}
	return false
}

// clearAllCache clears the reader's full cache hierarchy when the reader
// offers that capability, else just its own cache.
func (e *Engine) clearAllCache(r ports.Reader) {
	if r == nil {
		return
	}
	if host, ok := r.(CacheHost); ok {
		host.ClearAllCache()
		return
	}
	if c := r.Cache(); c != nil {
		c.Clear()
	}
}

// maxFrame returns the playable extent of the reader.
func maxFrame(r ports.Reader) int64 {
	if host, ok := r.(CacheHost); ok {
		return host.MaxFrame()
	}
	return r.Info().VideoLength
}

// cacheDimensions returns the dimensions frames are produced at: the preview
// size when the host scales, otherwise the natural size.
func cacheDimensions(r ports.Reader) (int, int) {
	if host, ok := r.(CacheHost); ok {
		if w, h := host.PreviewSize(); w > 0 && h > 0 {
			return w, h
		}
	}
	info := r.Info()
	return info.Width, info.Height
}

// prefetchWindow advances from the last cached index toward the far edge of
// the window, fetching missing frames and refreshing cached ones. It aborts
// on shutdown or when a user seek arrives mid-batch, and stops at the
// reader's end. Returns true iff the window was already full (no frame was
// added).
func (e *Engine) prefetchWindow(cache ports.Cache, windowBegin, windowEnd, dir int64, r ports.Reader) bool {
	windowFull := true
	next := e.lastCachedIndex.Load() + dir

	for (dir > 0 && next <= windowEnd) || (dir < 0 && next >= windowBegin) {
		if e.shouldExit() || e.userSeeked.Load() {
			break
		}

		if !cache.Contains(next) {
			frame, err := r.GetFrame(next)
			if err != nil {
				if errors.Is(err, ports.ErrOutOfBounds) {
					break
				}
				e.log.Warn("Failed to fetch frame %d: %s", next, err)
				break
			}
			cache.Add(frame)
			e.cachedFrameCount.Add(1)
			windowFull = false
		} else {
			cache.Touch(next)
		}

		e.lastCachedIndex.Store(next)
		next += dir
	}

	return windowFull
}

// run is the worker loop. Each iteration reloads the control inputs,
// re-derives the window and fills it; all sleeps observe the stop channel.
func (e *Engine) run() {
	defer close(e.done)
	defer e.log.Debug("Prefetch worker stopped")

	for !e.shouldExit() {
		r := e.getReader()
		var cache ports.Cache
		if r != nil {
			cache = r.Cache()
		}

		if !e.settings.EnablePlaybackCaching || cache == nil {
			e.sleep(idleSleep)
			continue
		}

		e.minFramesAhead.Store(e.settings.VideoCacheMinPrerollFrames)

		info := r.Info()
		timelineEnd := maxFrame(r)
		playhead := e.requestedDisplayFrame.Load()
		paused := e.speed.Load() == 0

		dir := e.computeDirection()
		if !paused {
			e.lastDir.Store(int32(dir))
		}

		width, height := cacheDimensions(r)
		bpf := bytesPerFrame(width, height, info.SampleRate, info.Channels, info.FPS.ToFloat())
		maxBytes := cache.GetMaxBytes()
		var capacity int64
		if maxBytes > 0 && bpf > 0 {
			capacity = maxBytes / bpf
			if capacity > e.settings.VideoCacheMaxFrames {
				capacity = e.settings.VideoCacheMaxFrames
			}
		}

		if e.userSeeked.Load() {
			e.handleUserSeek(playhead, dir)
			e.userSeeked.Store(false)
		} else if !paused && capacity >= 1 {
			// The playhead may have drifted without an explicit
			// seek (direction reversal, jump); treat a cursor
			// outside the fresh window as an implicit one.
			baseAhead := int64(float64(capacity) * e.settings.VideoCachePercentAhead)
			windowBegin, windowEnd := computeWindowBounds(playhead, dir, baseAhead, timelineEnd)

			last := e.lastCachedIndex.Load()
			outside := last < windowBegin || last > windowEnd
			if outside {
				e.handleUserSeek(playhead, dir)
			}
		}

		if capacity < 1 {
			e.sleep(idleSleep)
			continue
		}
		aheadCount := int64(float64(capacity) * e.settings.VideoCachePercentAhead)

		if e.clearCacheIfPaused(playhead, paused, cache) {
			e.handleUserSeek(playhead, dir)
		}

		windowBegin, windowEnd := computeWindowBounds(playhead, dir, aheadCount, timelineEnd)

		windowFull := e.prefetchWindow(cache, windowBegin, windowEnd, dir, r)

		// Keep the displayed frame from being evicted while paused.
		if paused && windowFull {
			cache.Touch(playhead)
		}

		fps := info.FPS.ToFloat()
		if fps <= 0 {
			fps = 24
		}
		e.sleep(time.Duration(float64(time.Second) / fps / 4))
	}
}
