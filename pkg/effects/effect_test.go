package effects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/playcore/pkg/keyframe"
	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/ports"
)

// pixelAt reads one RGBA pixel from a frame.
func pixelAt(f *media.Frame, x, y int) (r, g, b, a uint8) {
	i := y*f.Image.Stride + x*4
	return f.Image.Pix[i], f.Image.Pix[i+1], f.Image.Pix[i+2], f.Image.Pix[i+3]
}

// setPixel writes one RGBA pixel into a frame.
func setPixel(f *media.Frame, x, y int, r, g, b, a uint8) {
	i := y*f.Image.Stride + x*4
	f.Image.Pix[i], f.Image.Pix[i+1], f.Image.Pix[i+2], f.Image.Pix[i+3] = r, g, b, a
}

func TestFromJSONUnknownType(t *testing.T) {
	_, err := FromJSON([]byte(`{"type":"Nope"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidJSON)
}

func TestFromJSONMalformed(t *testing.T) {
	_, err := FromJSON([]byte(`{"type":`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidJSON)
}

func TestEffectJSONRoundTrips(t *testing.T) {
	sharpen := NewSharpen()
	sharpen.Amount.AddPoint(48, 20, keyframe.Linear)
	sharpen.Mode = SharpenHighPassBlend
	sharpen.Channel = SharpenChroma

	spherical := NewSphericalProjection()
	spherical.Yaw.AddPoint(90, 180, keyframe.Bezier)
	spherical.ProjectionMode = ProjectionFisheye
	spherical.Invert = 1
	spherical.Interpolation = SampleBilinear

	deinterlace := NewDeinterlace(true)

	flare := NewLensFlare()
	flare.Brightness.AddPoint(60, 0.25, keyframe.Linear)
	flare.Color = NewColorHex("#336699")

	for _, effect := range []Effect{sharpen, spherical, deinterlace, flare} {
		t.Run(effect.Name(), func(t *testing.T) {
			data, err := json.Marshal(effect)
			require.NoError(t, err)

			restored, err := FromJSON(data)
			require.NoError(t, err)
			require.Equal(t, effect.Name(), restored.Name())

			again, err := json.Marshal(restored)
			require.NoError(t, err)
			assert.JSONEq(t, string(data), string(again))
		})
	}
}

func TestSharpenJSONKeyframeValues(t *testing.T) {
	s := NewSharpen()
	s.Amount.AddPoint(48, 20, keyframe.Linear)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	restored, err := FromJSON(data)
	require.NoError(t, err)
	back := restored.(*Sharpen)

	for _, n := range []int64{1, 10, 48, 96} {
		assert.Equal(t, s.Amount.GetValue(n), back.Amount.GetValue(n), "frame %d", n)
	}
	assert.Equal(t, SharpenUnsharpMask, back.Mode)
	assert.Equal(t, SharpenLuma, back.Channel)
}

func TestColorHexConstructor(t *testing.T) {
	c := NewColorHex("#336699")
	assert.EqualValues(t, 0x33, c.Red.GetInt(1))
	assert.EqualValues(t, 0x66, c.Green.GetInt(1))
	assert.EqualValues(t, 0x99, c.Blue.GetInt(1))
	assert.EqualValues(t, 255, c.Alpha.GetInt(1))
}
