package effects

import (
	"encoding/json"
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"

	"github.com/user/playcore/pkg/keyframe"
	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/ports"
)

// MaskSourceFactory builds a reader for a mask source path.
type MaskSourceFactory func(path string) (ports.Reader, error)

var (
	maskSourcesMu sync.RWMutex
	maskSources   = map[string]MaskSourceFactory{}
)

// RegisterMaskSource registers a reader factory under a source type name so
// Mask effects can be rebuilt from JSON. Reader adapters register themselves.
func RegisterMaskSource(name string, factory MaskSourceFactory) {
	maskSourcesMu.Lock()
	defer maskSourcesMu.Unlock()
	maskSources[name] = factory
}

// newMaskSource builds a reader from a registered source type.
func newMaskSource(name, path string) (ports.Reader, error) {
	maskSourcesMu.RLock()
	factory, ok := maskSources[name]
	maskSourcesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown mask source %q", ports.ErrInvalidJSON, name)
	}
	return factory(path)
}

// openMu serialises mask reader opens; a reader must not be opened
// concurrently from two frames.
var openMu sync.Mutex

// Mask wipes a frame's alpha using a grayscale mask supplied by a secondary
// reader: bright mask areas erase the frame, dark areas keep it. With
// ReplaceImage the processed mask itself replaces the frame, which is how
// wipe transitions are previewed.
type Mask struct {
	Brightness   keyframe.Keyframe `json:"brightness"` // −1..1
	Contrast     keyframe.Keyframe `json:"contrast"`   // 0..20
	ReplaceImage bool              `json:"replace_image"`

	reader     ports.Reader
	sourceType string
	sourcePath string

	maskMu   sync.Mutex
	mask     *image.RGBA // resized to the target frame
	needsRef bool
}

func init() {
	Register("Mask", func() Effect { return &Mask{} })
}

// NewMask creates the effect reading mask frames from the given reader.
func NewMask(reader ports.Reader, brightness, contrast keyframe.Keyframe) *Mask {
	return &Mask{
		Brightness: brightness,
		Contrast:   contrast,
		reader:     reader,
		needsRef:   true,
	}
}

// Name implements Effect.
func (m *Mask) Name() string { return "Mask" }

// SetReader swaps the mask source.
func (m *Mask) SetReader(reader ports.Reader, sourceType, sourcePath string) {
	m.maskMu.Lock()
	defer m.maskMu.Unlock()
	m.reader = reader
	m.sourceType = sourceType
	m.sourcePath = sourcePath
	m.needsRef = true
}

// maskImage returns the mask for the given frame, resized to w×h. Fetched
// once for single-image sources and whenever the target size changes.
func (m *Mask) maskImage(number int64, w, h int) (*image.RGBA, error) {
	openMu.Lock()
	if !m.reader.IsOpen() {
		if err := m.reader.Open(); err != nil {
			openMu.Unlock()
			return nil, err
		}
	}
	openMu.Unlock()

	m.maskMu.Lock()
	defer m.maskMu.Unlock()

	singleImage := m.reader.Info().HasSingleImage
	if m.mask != nil && singleImage && !m.needsRef &&
		m.mask.Rect.Dx() == w && m.mask.Rect.Dy() == h {
		return m.mask, nil
	}

	frame, err := m.reader.GetFrame(number)
	if err != nil {
		return nil, err
	}
	src := frame.Image
	if src.Rect.Dx() == w && src.Rect.Dy() == h {
		m.mask = src
	} else {
		resized := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(resized, resized.Bounds(), src, src.Bounds(), draw.Src, nil)
		m.mask = resized
	}
	m.needsRef = false
	return m.mask, nil
}

// Apply implements Effect.
func (m *Mask) Apply(frame *media.Frame, number int64) *media.Frame {
	img := frame.Image
	if img == nil || m.reader == nil {
		return frame
	}
	w, h := frame.Width(), frame.Height()

	mask, err := m.maskImage(number, w, h)
	if err != nil {
		return frame
	}

	contrast := m.Contrast.GetValue(number)
	brightness := m.Brightness.GetValue(number)

	brightnessAdj := int(255 * brightness)
	contrastFactor := 20 / maxf(0.00001, 20-contrast)

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := img.Pix[y*img.Stride:]
			maskRow := mask.Pix[y*mask.Stride:]
			for x := 0; x < w; x++ {
				px := row[x*4 : x*4+4]
				mp := maskRow[x*4 : x*4+4]

				r, g, b, a := int(mp[0]), int(mp[1]), int(mp[2]), int(mp[3])

				gray := (r*11 + g*16 + b*5) / 32
				gray += brightnessAdj
				gray = int(contrastFactor*float64(gray-128)) + 128

				diff := a - gray
				if diff < 0 {
					diff = 0
				} else if diff > 255 {
					diff = 255
				}

				if m.ReplaceImage {
					v := uint8(diff)
					px[0], px[1], px[2], px[3] = v, v, v, v
				} else {
					alphaPercent := float64(diff) / 255
					px[0] = uint8(float64(px[0]) * alphaPercent)
					px[1] = uint8(float64(px[1]) * alphaPercent)
					px[2] = uint8(float64(px[2]) * alphaPercent)
					px[3] = uint8(float64(px[3]) * alphaPercent)
				}
			}
		}
	})

	return frame
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

type maskReaderJSON struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type maskJSON struct {
	Type         string            `json:"type"`
	Brightness   keyframe.Keyframe `json:"brightness"`
	Contrast     keyframe.Keyframe `json:"contrast"`
	ReplaceImage bool              `json:"replace_image"`
	Reader       *maskReaderJSON   `json:"reader,omitempty"`
}

// MarshalJSON emits the typed state, including the mask source descriptor
// when one was configured through JSON or SetReader.
func (m *Mask) MarshalJSON() ([]byte, error) {
	out := maskJSON{
		Type:         m.Name(),
		Brightness:   m.Brightness,
		Contrast:     m.Contrast,
		ReplaceImage: m.ReplaceImage,
	}
	if m.sourceType != "" {
		out.Reader = &maskReaderJSON{Type: m.sourceType, Path: m.sourcePath}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores state and rebuilds the mask source through the
// registry.
func (m *Mask) UnmarshalJSON(data []byte) error {
	var in maskJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m.Brightness = in.Brightness
	m.Contrast = in.Contrast
	m.ReplaceImage = in.ReplaceImage
	if in.Reader != nil {
		reader, err := newMaskSource(in.Reader.Type, in.Reader.Path)
		if err != nil {
			return err
		}
		m.SetReader(reader, in.Reader.Type, in.Reader.Path)
	}
	return nil
}
