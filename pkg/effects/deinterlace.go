package effects

import (
	"encoding/json"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/playcore/pkg/media"
)

// Deinterlace removes interlacing artefacts by keeping only the odd or even
// scanlines and stretching the remaining field back to full height.
type Deinterlace struct {
	IsOdd bool `json:"isOdd"`
}

func init() {
	Register("Deinterlace", func() Effect { return &Deinterlace{} })
}

// NewDeinterlace creates the effect keeping the odd field when useOddLines is
// true and the even field otherwise.
func NewDeinterlace(useOddLines bool) *Deinterlace {
	return &Deinterlace{IsOdd: useOddLines}
}

// Name implements Effect.
func (d *Deinterlace) Name() string { return "Deinterlace" }

// Apply implements Effect.
func (d *Deinterlace) Apply(frame *media.Frame, number int64) *media.Frame {
	src := frame.Image
	if src == nil {
		return frame
	}
	w, h := frame.Width(), frame.Height()
	if w <= 0 || h <= 1 {
		return frame
	}

	start := 0
	if d.IsOdd {
		start = 1
	}
	rows := (h - start + 1) / 2

	field := image.NewRGBA(image.Rect(0, 0, w, rows))
	for i := 0; i < rows; i++ {
		srcRow := (start + 2*i) * src.Stride
		copy(field.Pix[i*field.Stride:i*field.Stride+w*4], src.Pix[srcRow:srcRow+w*4])
	}

	// Fast rescale back to the original size; the field rows are already
	// correct, only the gaps need filling.
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(out, out.Bounds(), field, field.Bounds(), draw.Src, nil)

	frame.Image = out
	return frame
}

type deinterlaceJSON Deinterlace

// MarshalJSON emits the typed state.
func (d *Deinterlace) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		*deinterlaceJSON
	}{Type: d.Name(), deinterlaceJSON: (*deinterlaceJSON)(d)})
}
