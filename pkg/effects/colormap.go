package effects

import (
	"bufio"
	"encoding/json"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/user/playcore/pkg/keyframe"
	"github.com/user/playcore/pkg/media"
)

// ColorMap adjusts colours through a 3D lookup table loaded from a .cube
// file, with an overall intensity and per-channel blends. A missing or
// malformed LUT leaves the effect as an identity.
type ColorMap struct {
	LUTPath    string            `json:"lut_path"`
	Intensity  keyframe.Keyframe `json:"intensity"`
	IntensityR keyframe.Keyframe `json:"intensity_r"`
	IntensityG keyframe.Keyframe `json:"intensity_g"`
	IntensityB keyframe.Keyframe `json:"intensity_b"`

	lutData      []float64
	lutSize      int
	needsRefresh bool
}

func init() {
	Register("ColorMap", func() Effect { return &ColorMap{} })
}

// NewColorMap creates the effect with full intensity on every channel.
func NewColorMap(lutPath string) *ColorMap {
	return &ColorMap{
		LUTPath:      lutPath,
		Intensity:    keyframe.NewConstant(1),
		IntensityR:   keyframe.NewConstant(1),
		IntensityG:   keyframe.NewConstant(1),
		IntensityB:   keyframe.NewConstant(1),
		needsRefresh: true,
	}
}

// Name implements Effect.
func (c *ColorMap) Name() string { return "ColorMap" }

// loadCubeFile parses the .cube file at LUTPath. The format: a LUT_3D_SIZE N
// header somewhere in the file, then N³ whitespace-separated RGB float
// triples in red-fastest order. Blank lines and lines starting with "#",
// "TITLE" or "DOMAIN" are skipped. Any shortfall empties the LUT.
func (c *ColorMap) loadCubeFile() {
	c.lutData = nil
	c.lutSize = 0
	c.needsRefresh = false

	if c.LUTPath == "" {
		return
	}
	f, err := os.Open(c.LUTPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	size := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "LUT_3D_SIZE") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				size, _ = strconv.Atoi(fields[1])
			}
			break
		}
	}
	if size <= 0 {
		return
	}

	total := size * size * size * 3
	data := make([]float64, 0, total)
	for scanner.Scan() && len(data) < total {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "TITLE") || strings.HasPrefix(line, "DOMAIN") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				v = 0
			}
			data = append(data, v)
		}
	}
	if len(data) != total {
		return
	}
	c.lutSize = size
	c.lutData = data
}

// sample performs trilinear interpolation over the 8 voxels surrounding
// (rf, gf, bf), each in [0, size-1]. Addressing is red-fastest.
func (c *ColorMap) sample(rf, gf, bf float64) (float64, float64, float64) {
	n := c.lutSize
	r0 := int(math.Floor(rf))
	g0 := int(math.Floor(gf))
	b0 := int(math.Floor(bf))
	r1, g1, b1 := r0+1, g0+1, b0+1
	if r1 > n-1 {
		r1 = n - 1
	}
	if g1 > n-1 {
		g1 = n - 1
	}
	if b1 > n-1 {
		b1 = n - 1
	}
	dr, dg, db := rf-float64(r0), gf-float64(g0), bf-float64(b0)

	idx := func(r, g, b int) int { return ((b*n+g)*n + r) * 3 }
	bases := [8]int{
		idx(r0, g0, b0), idx(r1, g0, b0),
		idx(r0, g1, b0), idx(r1, g1, b0),
		idx(r0, g0, b1), idx(r1, g0, b1),
		idx(r0, g1, b1), idx(r1, g1, b1),
	}

	var out [3]float64
	for ch := 0; ch < 3; ch++ {
		c000 := c.lutData[bases[0]+ch]*(1-dr) + c.lutData[bases[1]+ch]*dr
		c010 := c.lutData[bases[2]+ch]*(1-dr) + c.lutData[bases[3]+ch]*dr
		c001 := c.lutData[bases[4]+ch]*(1-dr) + c.lutData[bases[5]+ch]*dr
		c011 := c.lutData[bases[6]+ch]*(1-dr) + c.lutData[bases[7]+ch]*dr
		c0 := c000*(1-dg) + c010*dg
		c1 := c001*(1-dg) + c011*dg
		out[ch] = c0*(1-db) + c1*db
	}
	return out[0], out[1], out[2]
}

// Apply implements Effect.
func (c *ColorMap) Apply(frame *media.Frame, number int64) *media.Frame {
	if c.needsRefresh {
		c.loadCubeFile()
	}
	if len(c.lutData) == 0 || frame.Image == nil {
		return frame
	}

	img := frame.Image
	w, h := frame.Width(), frame.Height()

	overall := c.Intensity.GetValue(number)
	tR := c.IntensityR.GetValue(number) * overall
	tG := c.IntensityG.GetValue(number) * overall
	tB := c.IntensityB.GetValue(number) * overall

	scale := float64(c.lutSize - 1)

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w*4]
			for x := 0; x < w; x++ {
				px := row[x*4 : x*4+4]
				a := float64(px[3])
				if a == 0 {
					continue
				}
				alpha := a / 255

				// Demultiply, normalise to [0,1].
				rn := float64(px[0]) / alpha / 255
				gn := float64(px[1]) / alpha / 255
				bn := float64(px[2]) / alpha / 255

				lr, lg, lb := c.sample(rn*scale, gn*scale, bn*scale)

				outR := (lr*tR + rn*(1-tR)) * alpha
				outG := (lg*tG + gn*(1-tG)) * alpha
				outB := (lb*tB + bn*(1-tB)) * alpha

				px[0] = clamp255(outR * 255)
				px[1] = clamp255(outG * 255)
				px[2] = clamp255(outB * 255)
			}
		}
	})
	return frame
}

type colorMapJSON ColorMap

// MarshalJSON emits the typed state.
func (c *ColorMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		*colorMapJSON
	}{Type: c.Name(), colorMapJSON: (*colorMapJSON)(c)})
}

// UnmarshalJSON restores state and queues a LUT reload.
func (c *ColorMap) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*colorMapJSON)(c)); err != nil {
		return err
	}
	c.needsRefresh = true
	return nil
}
