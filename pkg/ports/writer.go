package ports

import (
	"github.com/user/playcore/pkg/media"
)

// Writer abstracts a sink that encodes frames into a container.
//
// Lifecycle: SetVideoOptions → PrepareStreams → optional AddSphericalMetadata
// → Open → WriteFrame… → Close. AddSphericalMetadata is only valid between
// PrepareStreams and Open.
type Writer interface {
	// SetVideoOptions configures the output stream geometry and timing.
	SetVideoOptions(width, height int, fps media.Fraction) error

	// PrepareStreams finalises stream layout before metadata and opening.
	PrepareStreams() error

	// AddSphericalMetadata tags the output as spherical video with the
	// given projection and initial orientation in degrees.
	AddSphericalMetadata(projection string, yaw, pitch, roll float32) error

	// Open starts the container; no further stream changes are accepted.
	Open() error

	// WriteFrame appends one frame to the output.
	WriteFrame(frame *media.Frame) error

	// Close finishes the container and flushes it to the destination.
	Close() error
}
