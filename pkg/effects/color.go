package effects

import (
	"fmt"

	"github.com/user/playcore/pkg/keyframe"
)

// Color is a keyframed RGBA colour; each channel animates independently in
// [0, 255].
type Color struct {
	Red   keyframe.Keyframe `json:"red"`
	Green keyframe.Keyframe `json:"green"`
	Blue  keyframe.Keyframe `json:"blue"`
	Alpha keyframe.Keyframe `json:"alpha"`
}

// NewColorHex builds a constant colour from a "#rrggbb" string with full
// alpha. Malformed input yields opaque black.
func NewColorHex(hex string) Color {
	var r, g, b int
	if len(hex) == 7 && hex[0] == '#' {
		fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	}
	return Color{
		Red:   keyframe.NewConstant(float64(r)),
		Green: keyframe.NewConstant(float64(g)),
		Blue:  keyframe.NewConstant(float64(b)),
		Alpha: keyframe.NewConstant(255),
	}
}

// valuesAt evaluates all four channels at a frame, normalised to [0, 1].
func (c Color) valuesAt(number int64) (r, g, b, a float64) {
	norm := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 1
		}
		return v / 255
	}
	return norm(c.Red.GetValue(number)),
		norm(c.Green.GetValue(number)),
		norm(c.Blue.GetValue(number)),
		norm(c.Alpha.GetValue(number))
}
