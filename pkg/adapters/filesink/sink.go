// Package filesink saves debug artefacts under a directory.
package filesink

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/user/playcore/pkg/ports"
)

// Sink writes rendered frames and JSON artefacts into a debug directory.
type Sink struct {
	dir string
}

// New creates a sink rooted at dir, creating it as needed.
func New(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}
	return &Sink{dir: dir}, nil
}

// Enabled always returns true.
func (s *Sink) Enabled() bool { return true }

// SaveFrame writes one frame as a PNG named by ordinal.
func (s *Sink) SaveFrame(number int64, img image.Image) error {
	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.png", number))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// SaveJSON writes a JSON artefact by name.
func (s *Sink) SaveJSON(name string, data []byte) error {
	path := filepath.Join(s.dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

var _ ports.DebugSink = (*Sink)(nil)
