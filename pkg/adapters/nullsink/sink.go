// Package nullsink provides a no-op debug sink.
package nullsink

import (
	"image"

	"github.com/user/playcore/pkg/ports"
)

// Sink discards all debug output.
type Sink struct{}

// New creates a new null sink.
func New() *Sink {
	return &Sink{}
}

// Enabled always returns false.
func (s *Sink) Enabled() bool { return false }

// SaveFrame does nothing.
func (s *Sink) SaveFrame(number int64, img image.Image) error { return nil }

// SaveJSON does nothing.
func (s *Sink) SaveJSON(name string, data []byte) error { return nil }

var _ ports.DebugSink = (*Sink)(nil)
