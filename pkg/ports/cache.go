package ports

import (
	"github.com/user/playcore/pkg/media"
)

// Cache is a bounded mapping from frame ordinal to frame with LRU recency
// tracking.
//
// Concurrency contract: every method is safe to call from any goroutine and
// each call is linearisable. Get may return a frame that a concurrent Add
// immediately evicts; the returned handle keeps the frame alive for the
// caller.
type Cache interface {
	// Add inserts a frame, evicting least-recently-touched entries until
	// both the byte and frame-count budgets hold.
	Add(frame *media.Frame)

	// Contains reports membership in O(1) without touching recency.
	Contains(number int64) bool

	// Get returns the cached frame or nil, marking it most recently used.
	Get(number int64) *media.Frame

	// Touch marks a frame most recently used without fetching it.
	Touch(number int64)

	// Clear removes every entry; the empty state is visible to all
	// callers once Clear returns.
	Clear()

	// GetMaxBytes returns the byte budget.
	GetMaxBytes() int64

	// SetMaxBytes adjusts the byte budget and evicts as needed.
	SetMaxBytes(maxBytes int64)

	// Count returns the number of cached frames.
	Count() int64
}
