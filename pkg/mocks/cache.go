package mocks

import (
	"github.com/user/playcore/pkg/cache"
	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/ports"
)

// Cache is a mock implementation of ports.Cache backed by a real in-memory
// cache, with per-method hooks for tests that need to intercept calls.
type Cache struct {
	AddFunc      func(frame *media.Frame)
	ContainsFunc func(number int64) bool
	GetFunc      func(number int64) *media.Frame
	TouchFunc    func(number int64)
	ClearFunc    func()

	Backing *cache.Memory

	// Recorded calls for verification
	AddCalls   []int64
	TouchCalls []int64
	Cleared    int
}

// NewCache creates a mock with a generously sized backing cache.
func NewCache() *Cache {
	return &Cache{Backing: cache.NewMemory(1<<30, 0)}
}

func (m *Cache) Add(frame *media.Frame) {
	if frame != nil {
		m.AddCalls = append(m.AddCalls, frame.Number)
	}
	if m.AddFunc != nil {
		m.AddFunc(frame)
		return
	}
	m.Backing.Add(frame)
}

func (m *Cache) Contains(number int64) bool {
	if m.ContainsFunc != nil {
		return m.ContainsFunc(number)
	}
	return m.Backing.Contains(number)
}

func (m *Cache) Get(number int64) *media.Frame {
	if m.GetFunc != nil {
		return m.GetFunc(number)
	}
	return m.Backing.Get(number)
}

func (m *Cache) Touch(number int64) {
	m.TouchCalls = append(m.TouchCalls, number)
	if m.TouchFunc != nil {
		m.TouchFunc(number)
		return
	}
	m.Backing.Touch(number)
}

func (m *Cache) Clear() {
	m.Cleared++
	if m.ClearFunc != nil {
		m.ClearFunc()
		return
	}
	m.Backing.Clear()
}

func (m *Cache) GetMaxBytes() int64 { return m.Backing.GetMaxBytes() }

func (m *Cache) SetMaxBytes(maxBytes int64) { m.Backing.SetMaxBytes(maxBytes) }

func (m *Cache) Count() int64 { return m.Backing.Count() }

var _ ports.Cache = (*Cache)(nil)
