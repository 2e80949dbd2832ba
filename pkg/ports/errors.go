package ports

import (
	"errors"
	"fmt"
)

// Shared error values surfaced across the reader/cache/effect boundary.
var (
	// ErrOutOfBounds marks a frame request past the end (or before the
	// start) of a reader. The prefetch engine treats it as the end of a
	// batch, never as a fatal condition.
	ErrOutOfBounds = errors.New("frame number out of bounds")

	// ErrReaderNotOpen is returned by operations that require an opened
	// reader.
	ErrReaderNotOpen = errors.New("reader is not open")

	// ErrInvalidJSON is returned when deserialisation encounters malformed
	// JSON or missing required fields.
	ErrInvalidJSON = errors.New("invalid JSON")
)

// OutOfBoundsf wraps ErrOutOfBounds with the offending frame number.
func OutOfBoundsf(number, max int64) error {
	return fmt.Errorf("frame %d of %d: %w", number, max, ErrOutOfBounds)
}
