package effects

import (
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/playcore/pkg/keyframe"
	"github.com/user/playcore/pkg/media"
)

// identityCube is a 2-point identity LUT with every tolerated decoration.
const identityCube = `TITLE "identity"
# generated fixture
DOMAIN_MIN 0 0 0
DOMAIN_MAX 1 1 1
LUT_3D_SIZE 2

0 0 0
1 0 0
0 1 0
1 1 0
0 0 1
1 0 1
0 1 1
1 1 1
`

// invertCube maps every channel to its complement.
const invertCube = `LUT_3D_SIZE 2
1 1 1
0 1 1
1 0 1
0 0 1
1 1 0
0 1 0
1 0 0
0 0 0
`

func writeCube(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.cube")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func solidFrame(r, g, b, a uint8) *media.Frame {
	return media.NewSolidFrame(1, 4, 4, color.RGBA{R: r, G: g, B: b, A: a})
}

func TestColorMapIdentityAtIntensityZero(t *testing.T) {
	cm := NewColorMap(writeCube(t, identityCube))
	cm.Intensity = keyframe.NewConstant(0)

	frame := solidFrame(10, 20, 30, 255)
	out := cm.Apply(frame, 1)

	r, g, b, a := pixelAt(out, 0, 0)
	assert.Equal(t, [4]uint8{10, 20, 30, 255}, [4]uint8{r, g, b, a})
}

func TestColorMapIdentityLUTPreservesPixels(t *testing.T) {
	cm := NewColorMap(writeCube(t, identityCube))

	frame := solidFrame(10, 20, 30, 255)
	out := cm.Apply(frame, 1)

	r, g, b, a := pixelAt(out, 1, 1)
	assert.InDelta(t, 10, float64(r), 1)
	assert.InDelta(t, 20, float64(g), 1)
	assert.InDelta(t, 30, float64(b), 1)
	assert.EqualValues(t, 255, a)
}

func TestColorMapInvertLUT(t *testing.T) {
	cm := NewColorMap(writeCube(t, invertCube))

	frame := solidFrame(0, 255, 0, 255)
	out := cm.Apply(frame, 1)

	r, g, b, _ := pixelAt(out, 0, 0)
	assert.InDelta(t, 255, float64(r), 1)
	assert.InDelta(t, 0, float64(g), 1)
	assert.InDelta(t, 255, float64(b), 1)
}

func TestColorMapSkipsTransparentPixels(t *testing.T) {
	cm := NewColorMap(writeCube(t, invertCube))

	frame := solidFrame(0, 0, 0, 0)
	out := cm.Apply(frame, 1)

	r, g, b, a := pixelAt(out, 0, 0)
	assert.Equal(t, [4]uint8{0, 0, 0, 0}, [4]uint8{r, g, b, a})
}

func TestColorMapAlphaUnchanged(t *testing.T) {
	cm := NewColorMap(writeCube(t, invertCube))

	frame := solidFrame(64, 64, 64, 128)
	out := cm.Apply(frame, 1)

	_, _, _, a := pixelAt(out, 2, 2)
	assert.EqualValues(t, 128, a)
}

func TestColorMapUnreadableLUTIsIdentity(t *testing.T) {
	cases := map[string]string{
		"missing file":   filepath.Join(t.TempDir(), "nope.cube"),
		"no size header": writeCube(t, "0 0 0\n1 1 1\n"),
		"short data":     writeCube(t, "LUT_3D_SIZE 2\n0 0 0\n1 1 1\n"),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			cm := NewColorMap(path)
			frame := solidFrame(10, 20, 30, 255)
			out := cm.Apply(frame, 1)

			r, g, b, a := pixelAt(out, 0, 0)
			assert.Equal(t, [4]uint8{10, 20, 30, 255}, [4]uint8{r, g, b, a})
		})
	}
}

func TestColorMapPerChannelBlend(t *testing.T) {
	cm := NewColorMap(writeCube(t, invertCube))
	cm.IntensityG = keyframe.NewConstant(0)
	cm.IntensityB = keyframe.NewConstant(0)

	frame := solidFrame(0, 200, 200, 255)
	out := cm.Apply(frame, 1)

	r, g, b, _ := pixelAt(out, 0, 0)
	assert.InDelta(t, 255, float64(r), 1, "red channel follows the LUT")
	assert.InDelta(t, 200, float64(g), 1, "green channel untouched")
	assert.InDelta(t, 200, float64(b), 1, "blue channel untouched")
}

func TestColorMapJSONRoundTrip(t *testing.T) {
	cm := NewColorMap(writeCube(t, identityCube))
	cm.Intensity.AddPoint(10, 0.5, keyframe.Linear)

	data, err := json.Marshal(cm)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"ColorMap"`)

	restored, err := FromJSON(data)
	require.NoError(t, err)
	back, ok := restored.(*ColorMap)
	require.True(t, ok)

	assert.Equal(t, cm.LUTPath, back.LUTPath)
	for _, n := range []int64{1, 5, 10, 20} {
		assert.Equal(t, cm.Intensity.GetValue(n), back.Intensity.GetValue(n))
	}

	// The restored effect reloads the LUT on first use.
	frame := solidFrame(10, 20, 30, 255)
	back.Apply(frame, 1)
	assert.Equal(t, 2, back.lutSize)
}
