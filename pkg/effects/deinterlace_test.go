package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/playcore/pkg/media"
)

// rowFrame builds a 4x4 frame whose rows carry their own index in the red
// channel (r = row * 10).
func rowFrame() *media.Frame {
	frame := media.NewFrame(1, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			setPixel(frame, x, y, uint8(y*10), 0, 0, 255)
		}
	}
	return frame
}

func rowValues(f *media.Frame) []uint8 {
	vals := make([]uint8, f.Height())
	for y := range vals {
		r, _, _, _ := pixelAt(f, 0, y)
		vals[y] = r
	}
	return vals
}

func TestDeinterlaceOddKeepsOddRows(t *testing.T) {
	d := NewDeinterlace(true)
	out := d.Apply(rowFrame(), 1)

	// Odd field rows 1 and 3 stretched back over four rows.
	vals := rowValues(out)
	for _, v := range vals {
		assert.Contains(t, []uint8{10, 30}, v)
	}
	assert.Equal(t, uint8(10), vals[0])
	assert.Equal(t, uint8(30), vals[3])
	assert.Equal(t, 4, out.Height(), "size restored")
	assert.Equal(t, 4, out.Width())
}

func TestDeinterlaceEvenKeepsEvenRows(t *testing.T) {
	d := NewDeinterlace(false)
	out := d.Apply(rowFrame(), 1)

	vals := rowValues(out)
	for _, v := range vals {
		assert.Contains(t, []uint8{0, 20}, v)
	}
	assert.Equal(t, uint8(0), vals[0])
	assert.Equal(t, uint8(20), vals[3])
}

func TestDeinterlaceOddRowCount(t *testing.T) {
	// 5 rows: even field keeps 3 rows, odd field keeps 2.
	frame := media.NewFrame(1, 2, 5)
	for y := 0; y < 5; y++ {
		setPixel(frame, 0, y, uint8(y), 0, 0, 255)
		setPixel(frame, 1, y, uint8(y), 0, 0, 255)
	}

	out := NewDeinterlace(false).Apply(frame, 1)
	assert.Equal(t, 5, out.Height())

	vals := rowValues(out)
	for _, v := range vals {
		assert.Contains(t, []uint8{0, 2, 4}, v, "only even source rows survive")
	}
}
