// Package effects implements the per-frame image transforms applied by clip
// effect chains: 3D LUT colour mapping, sharpening, spherical reprojection,
// deinterlacing, alpha-mask wipes and lens flares.
//
// Every effect is deterministic: parameters come from keyframes evaluated
// once per frame, pixel arithmetic runs in floating point and clamps to
// [0, 255] on write-back, and scanline parallelism splits rows into disjoint
// bands so output bytes never depend on scheduling.
package effects

import (
	"encoding/json"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/ports"
)

// Effect transforms one frame at a time. Apply may mutate the frame it is
// handed and returns the frame holding the result.
type Effect interface {
	// Name returns the effect's type discriminator, e.g. "ColorMap".
	Name() string

	// Apply renders the effect into the frame for the given frame number.
	Apply(frame *media.Frame, number int64) *media.Frame
}

var registry = map[string]func() Effect{}

// Register adds a constructor for an effect type so FromJSON can build it.
// Called from init in each effect file.
func Register(name string, factory func() Effect) {
	registry[name] = factory
}

// FromJSON constructs an effect from its serialised state. The payload must
// carry a "type" field naming a registered effect.
func FromJSON(data []byte) (Effect, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrInvalidJSON, err)
	}
	factory, ok := registry[head.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown effect type %q", ports.ErrInvalidJSON, head.Type)
	}
	effect := factory()
	if err := json.Unmarshal(data, effect); err != nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrInvalidJSON, err)
	}
	return effect, nil
}

var pixelWorkers = runtime.NumCPU()

// SetPixelWorkers bounds the per-frame scanline fan-out. Values below 1 reset
// to the host CPU count.
func SetPixelWorkers(n int) {
	if n < 1 {
		n = runtime.NumCPU()
	}
	pixelWorkers = n
}

// parallelRows runs fn over disjoint row bands [y0, y1). Bands are fixed by
// height and worker count, so the write pattern is deterministic.
func parallelRows(height int, fn func(y0, y1 int)) {
	workers := pixelWorkers
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		fn(0, height)
		return
	}
	var g errgroup.Group
	band := (height + workers - 1) / workers
	for y := 0; y < height; y += band {
		y0, y1 := y, y+band
		if y1 > height {
			y1 = height
		}
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	g.Wait()
}

// clamp255 rounds and clamps a float channel value into [0, 255].
func clamp255(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
