// Package cache provides the in-memory frame cache used for playback.
package cache

import (
	"container/list"
	"sync"

	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/ports"
)

// Memory is a bounded LRU cache of frames. Two budgets apply at once: total
// bytes and total frame count; Add evicts least-recently-touched entries
// until both hold.
type Memory struct {
	mu        sync.Mutex
	maxBytes  int64
	maxFrames int64
	bytes     int64
	entries   map[int64]*list.Element
	recency   *list.List // front = most recently used
}

type entry struct {
	number int64
	frame  *media.Frame
	bytes  int64
}

// NewMemory creates a cache with the given byte budget. maxFrames ≤ 0 leaves
// the frame count unbounded.
func NewMemory(maxBytes, maxFrames int64) *Memory {
	return &Memory{
		maxBytes:  maxBytes,
		maxFrames: maxFrames,
		entries:   make(map[int64]*list.Element),
		recency:   list.New(),
	}
}

// Add inserts a frame and evicts until the byte and frame budgets hold.
// Re-adding a cached ordinal refreshes its recency and replaces the frame.
func (m *Memory) Add(frame *media.Frame) {
	if frame == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	size := frame.Bytes()
	if el, ok := m.entries[frame.Number]; ok {
		e := el.Value.(*entry)
		m.bytes += size - e.bytes
		e.frame = frame
		e.bytes = size
		m.recency.MoveToFront(el)
	} else {
		el := m.recency.PushFront(&entry{number: frame.Number, frame: frame, bytes: size})
		m.entries[frame.Number] = el
		m.bytes += size
	}
	m.evictLocked()
}

// Contains reports membership without touching recency.
func (m *Memory) Contains(number int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[number]
	return ok
}

// Get returns the cached frame or nil, marking it most recently used.
func (m *Memory) Get(number int64) *media.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[number]
	if !ok {
		return nil
	}
	m.recency.MoveToFront(el)
	return el.Value.(*entry).frame
}

// Touch marks a frame most recently used without fetching it.
func (m *Memory) Touch(number int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.entries[number]; ok {
		m.recency.MoveToFront(el)
	}
}

// Clear removes every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[int64]*list.Element)
	m.recency.Init()
	m.bytes = 0
}

// GetMaxBytes returns the byte budget.
func (m *Memory) GetMaxBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxBytes
}

// SetMaxBytes adjusts the byte budget and evicts as needed.
func (m *Memory) SetMaxBytes(maxBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxBytes = maxBytes
	m.evictLocked()
}

// Count returns the number of cached frames.
func (m *Memory) Count() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries))
}

// Bytes returns the current total byte size of cached frames.
func (m *Memory) Bytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bytes
}

// evictLocked drops least-recently-used entries until both budgets hold.
// Caller holds mu.
func (m *Memory) evictLocked() {
	for m.recency.Len() > 0 {
		overBytes := m.maxBytes > 0 && m.bytes > m.maxBytes
		overFrames := m.maxFrames > 0 && int64(m.recency.Len()) > m.maxFrames
		if !overBytes && !overFrames {
			return
		}
		el := m.recency.Back()
		e := el.Value.(*entry)
		m.recency.Remove(el)
		delete(m.entries, e.number)
		m.bytes -= e.bytes
	}
}

var _ ports.Cache = (*Memory)(nil)
