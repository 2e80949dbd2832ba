package effects

import (
	"encoding/json"
	"math"

	"github.com/user/playcore/pkg/keyframe"
	"github.com/user/playcore/pkg/media"
)

// LensFlare simulates sunlight hitting a lens: a bright core with glow and
// ring halos around the flare centre, and a trail of small spectral
// reflections along the axis through the frame centre.
type LensFlare struct {
	X          keyframe.Keyframe `json:"x"` // −1..1
	Y          keyframe.Keyframe `json:"y"` // −1..1
	Brightness keyframe.Keyframe `json:"brightness"`
	Size       keyframe.Keyframe `json:"size"`   // 0.1..3
	Spread     keyframe.Keyframe `json:"spread"` // 0..1
	Color      Color             `json:"color"`
}

func init() {
	Register("LensFlare", func() Effect { return &LensFlare{} })
}

// NewLensFlare creates a white flare in the upper-left quadrant.
func NewLensFlare() *LensFlare {
	return &LensFlare{
		X:          keyframe.NewConstant(-0.5),
		Y:          keyframe.NewConstant(-0.5),
		Brightness: keyframe.NewConstant(1),
		Size:       keyframe.NewConstant(1),
		Spread:     keyframe.NewConstant(1),
		Color:      NewColorHex("#ffffff"),
	}
}

// Name implements Effect.
func (l *LensFlare) Name() string { return "LensFlare" }

// reflector is one spectral reflection along the flare axis. The type picks
// the falloff profile.
type reflector struct {
	xp, yp, size float64
	r, g, b, a   float64
	typ          int
}

// reflectorDef positions a reflector as a fraction of the flare axis with a
// base colour.
type reflectorDef struct {
	typ     int
	f       float64
	size    float64
	r, g, b float64
}

// The classic FlareFX reflection trail.
var reflectorDefs = []reflectorDef{
	{1, 0.6699, 0.027, 0, 14.0 / 255, 113.0 / 255},
	{1, 0.2692, 0.010, 90.0 / 255, 181.0 / 255, 142.0 / 255},
	{1, -0.0112, 0.005, 56.0 / 255, 140.0 / 255, 106.0 / 255},
	{2, 0.6490, 0.031, 9.0 / 255, 29.0 / 255, 19.0 / 255},
	{2, 0.4696, 0.015, 24.0 / 255, 14.0 / 255, 0},
	{2, 0.4087, 0.037, 24.0 / 255, 14.0 / 255, 0},
	{2, -0.2003, 0.022, 42.0 / 255, 19.0 / 255, 0},
	{2, -0.4103, 0.025, 0, 9.0 / 255, 17.0 / 255},
	{2, -0.4503, 0.058, 10.0 / 255, 4.0 / 255, 0},
	{2, -0.5112, 0.017, 5.0 / 255, 5.0 / 255, 14.0 / 255},
	{2, -1.4960, 0.20, 9.0 / 255, 4.0 / 255, 0},
	{2, -1.4960, 0.50, 9.0 / 255, 4.0 / 255, 0},
	{3, 0.4487, 0.075, 34.0 / 255, 19.0 / 255, 0},
	{3, 1.0000, 0.10, 14.0 / 255, 26.0 / 255, 0},
	{3, -1.3010, 0.039, 10.0 / 255, 25.0 / 255, 13.0 / 255},
	{4, 1.3090, 0.19, 9.0 / 255, 0, 17.0 / 255},
	{4, 1.3090, 0.195, 9.0 / 255, 16.0 / 255, 5.0 / 255},
	{4, 1.3090, 0.20, 17.0 / 255, 4.0 / 255, 0},
	{4, -1.3010, 0.038, 17.0 / 255, 4.0 / 255, 0},
}

// rgbToHSV converts [0,1] RGB to hue/saturation/value, hue in [0,1).
func rgbToHSV(r, g, b float64) (float64, float64, float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v := max
	d := max - min
	if max == 0 || d == 0 {
		return 0, 0, v
	}
	s := d / max
	var h float64
	switch max {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h /= 6
	if h < 0 {
		h++
	}
	return h, s, v
}

// hsvToRGB converts hue/saturation/value (hue in [0,1)) to [0,1] RGB.
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 1) * 6
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// shiftedHSV recolours a base colour by the tint's hue/saturation/value.
func shiftedHSV(r, g, b, hShift, sScale, vScale float64) (float64, float64, float64) {
	h, s, v := rgbToHSV(r, g, b)
	if s == 0 {
		h = 0
	}
	h = math.Mod(h+hShift+1, 1)
	s = math.Min(1, s*sScale)
	v = math.Min(1, v*vScale)
	return hsvToRGB(h, s, v)
}

// initReflectors positions and colours the reflection trail for the current
// flare axis. A white tint (saturation < 0.01) keeps the classic spectral
// colours.
func initReflectors(dx, dy, halfW, halfH float64, width int, tintR, tintG, tintB, tintA, scale float64) []reflector {
	matt := float64(width)

	tintH, tintS, tintV := rgbToHSV(tintR, tintG, tintB)
	whiteTint := tintS < 0.01

	refs := make([]reflector, 0, len(reflectorDefs))
	for _, d := range reflectorDefs {
		ref := reflector{
			typ:  d.typ,
			size: d.size * matt * scale,
			xp:   halfW + d.f*dx,
			yp:   halfH + d.f*dy,
			r:    d.r, g: d.g, b: d.b, a: 1,
		}
		if !whiteTint {
			ref.r, ref.g, ref.b = shiftedHSV(d.r, d.g, d.b, tintH, tintS, tintV)
			ref.a = tintA
		}
		refs = append(refs, ref)
	}
	return refs
}

// addLight additively blends a light colour at power p onto an
// un-premultiplied accumulator, saturating toward white.
func addLight(acc *[3]float64, r, g, b, a, p float64) {
	acc[0] = math.Min(255, acc[0]+(255-acc[0])*p*r*a)
	acc[1] = math.Min(255, acc[1]+(255-acc[1])*p*g*a)
	acc[2] = math.Min(255, acc[2]+(255-acc[2])*p*b*a)
}

// applyReflector adds one reflector's contribution at pixel (cx, cy).
func applyReflector(acc *[3]float64, ref *reflector, cx, cy float64) {
	d := math.Hypot(ref.xp-cx, ref.yp-cy)
	switch ref.typ {
	case 1:
		p := (ref.size - d) / ref.size
		if p > 0 {
			addLight(acc, ref.r, ref.g, ref.b, ref.a, p*p)
		}
	case 2:
		p := (ref.size - d) / (ref.size * 0.15)
		if p > 0 {
			addLight(acc, ref.r, ref.g, ref.b, ref.a, math.Min(p, 1))
		}
	case 3:
		p := (ref.size - d) / (ref.size * 0.12)
		if p > 0 {
			addLight(acc, ref.r, ref.g, ref.b, ref.a, 1-math.Min(p, 1)*0.12)
		}
	case 4:
		p := math.Abs((d - ref.size) / (ref.size * 0.04))
		if p < 1 {
			addLight(acc, ref.r, ref.g, ref.b, ref.a, 1-p)
		}
	}
}

// Apply implements Effect.
func (l *LensFlare) Apply(frame *media.Frame, number int64) *media.Frame {
	img := frame.Image
	if img == nil {
		return frame
	}
	w, h := frame.Width(), frame.Height()
	if w <= 0 || h <= 0 {
		return frame
	}

	x := l.X.GetValue(number)
	y := l.Y.GetValue(number)
	intensity := l.Brightness.GetValue(number)
	scale := l.Size.GetValue(number)
	spread := l.Spread.GetValue(number)

	tintR, tintG, tintB, tintA := l.Color.valuesAt(number)

	halfW, halfH := float64(w)*0.5, float64(h)*0.5
	px := (x*0.5 + 0.5) * float64(w)
	py := (y*0.5 + 0.5) * float64(h)
	dx := (halfW - px) * spread
	dy := (halfH - py) * spread

	// Ring radii as fractions of the frame width.
	matt := float64(w)
	sColor := matt * 0.0375 * scale
	sGlow := matt * 0.078125 * scale
	sInner := matt * 0.1796875 * scale
	sOuter := matt * 0.3359375 * scale
	sHalo := matt * 0.084375 * scale

	tintify := func(br, bg, bb float64) [4]float64 {
		return [4]float64{br * tintR, bg * tintG, bb * tintB, tintA}
	}
	cColor := tintify(239.0/255, 239.0/255, 239.0/255)
	cGlow := tintify(245.0/255, 245.0/255, 245.0/255)
	cInner := tintify(1, 38.0/255, 43.0/255)
	cOuter := tintify(69.0/255, 59.0/255, 64.0/255)
	cHalo := tintify(80.0/255, 15.0/255, 4.0/255)

	refs := initReflectors(dx, dy, halfW, halfH, w, tintR, tintG, tintB, tintA, scale)

	overlay := make([]uint8, w*h*4)

	parallelRows(h, func(y0, y1 int) {
		for yy := y0; yy < y1; yy++ {
			for xx := 0; xx < w; xx++ {
				var acc [3]float64
				d := math.Hypot(float64(xx)-px, float64(yy)-py)

				if d < sColor {
					p := (sColor - d) / sColor
					addLight(&acc, cColor[0], cColor[1], cColor[2], cColor[3], p*p)
				}
				if d < sGlow {
					p := (sGlow - d) / sGlow
					addLight(&acc, cGlow[0], cGlow[1], cGlow[2], cGlow[3], p*p)
				}
				if d < sInner {
					p := (sInner - d) / sInner
					addLight(&acc, cInner[0], cInner[1], cInner[2], cInner[3], p*p)
				}
				if d < sOuter {
					p := (sOuter - d) / sOuter
					addLight(&acc, cOuter[0], cOuter[1], cOuter[2], cOuter[3], p)
				}
				if p := math.Abs((d - sHalo) / (sHalo * 0.07)); p < 1 {
					addLight(&acc, cHalo[0], cHalo[1], cHalo[2], cHalo[3], 1-p)
				}
				for i := range refs {
					applyReflector(&acc, &refs[i], float64(xx), float64(yy))
				}

				// Overlay alpha follows the brightest channel.
				a := math.Max(acc[0], math.Max(acc[1], acc[2]))
				o := overlay[(yy*w+xx)*4:]
				o[0] = clamp255(acc[0])
				o[1] = clamp255(acc[1])
				o[2] = clamp255(acc[2])
				o[3] = clamp255(a)
			}
		}
	})

	// Additive composite at the flare's opacity, then rebuild alpha as the
	// stronger of the original and the flare coverage.
	parallelRows(h, func(y0, y1 int) {
		for yy := y0; yy < y1; yy++ {
			row := img.Pix[yy*img.Stride:]
			for xx := 0; xx < w; xx++ {
				o := overlay[(yy*w+xx)*4:]
				p := row[xx*4 : xx*4+4]
				oa := float64(o[3]) / 255
				for c := 0; c < 3; c++ {
					add := float64(o[c]) * oa * intensity
					p[c] = clamp255(float64(p[c]) + add)
				}
				origA := float64(p[3])
				flareA := float64(o[3]) * intensity
				p[3] = clamp255(math.Max(origA, flareA))
			}
		}
	})

	return frame
}

type lensFlareJSON LensFlare

// MarshalJSON emits the typed state.
func (l *LensFlare) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		*lensFlareJSON
	}{Type: l.Name(), lensFlareJSON: (*lensFlareJSON)(l)})
}
