package ports

import (
	"github.com/user/playcore/pkg/media"
)

// ReaderInfo describes a frame source: dimensions, timing and the metadata
// tags carried by its container.
type ReaderInfo struct {
	Width       int
	Height      int
	FPS         media.Fraction
	PixelRatio  media.Fraction
	SampleRate  int
	Channels    int
	VideoLength int64

	// HasSingleImage is true for still-image sources whose every frame is
	// identical (the Mask effect caches such sources once).
	HasSingleImage bool

	// Metadata holds container-level key/value tags, e.g. the spherical
	// orientation keys written by the MP4 writer.
	Metadata map[string]string
}

// Reader abstracts a source of frames addressed by ordinal.
//
// GetFrame blocks until the frame is produced; implementations return a frame
// handle the caller owns until released. Requests past VideoLength surface
// ErrOutOfBounds, and any call on a closed reader surfaces ErrReaderNotOpen.
type Reader interface {
	// Open prepares the source for reading.
	Open() error

	// Close releases the source. GetFrame on a closed reader fails.
	Close() error

	// IsOpen reports whether the reader is currently open.
	IsOpen() bool

	// GetFrame returns the frame with the given ordinal (1-based).
	GetFrame(number int64) (*media.Frame, error)

	// Info returns the source descriptor.
	Info() ReaderInfo

	// Cache returns the reader's frame cache, or nil when the reader does
	// not cache.
	Cache() Cache
}
