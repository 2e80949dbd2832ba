package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate frames.
// It allows saving rendered frames for inspection while diagnosing effect or
// cache behaviour.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveFrame saves a rendered frame by ordinal.
	SaveFrame(number int64, img image.Image) error

	// SaveJSON saves a JSON artefact (timeline state, effect properties).
	SaveJSON(name string, data []byte) error
}
