package effects

import (
	"encoding/json"
	"math"

	"github.com/user/playcore/pkg/keyframe"
	"github.com/user/playcore/pkg/media"
)

// Sharpen modes.
const (
	SharpenUnsharpMask   = 0
	SharpenHighPassBlend = 1
)

// Sharpen channel selectors.
const (
	SharpenAll    = 0
	SharpenLuma   = 1
	SharpenChroma = 2
)

// Sharpen boosts edge contrast with an unsharp mask or high-pass blend. The
// blur radius is resolution-normalised against 720p so the same settings read
// the same at any frame size.
type Sharpen struct {
	Amount    keyframe.Keyframe `json:"amount"`    // 0–40
	Radius    keyframe.Keyframe `json:"radius"`    // pixels, 0–10
	Threshold keyframe.Keyframe `json:"threshold"` // 0–1 ratio of max luma detail
	Mode      int               `json:"mode"`
	Channel   int               `json:"channel"`
}

func init() {
	Register("Sharpen", func() Effect { return &Sharpen{} })
}

// NewSharpen creates the effect with the default strength.
func NewSharpen() *Sharpen {
	return &Sharpen{
		Amount:    keyframe.NewConstant(10),
		Radius:    keyframe.NewConstant(3),
		Threshold: keyframe.NewConstant(0),
		Mode:      SharpenUnsharpMask,
		Channel:   SharpenLuma,
	}
}

// Name implements Effect.
func (s *Sharpen) Name() string { return "Sharpen" }

// boxesForGauss derives three box widths whose sequential application
// approximates a Gaussian of the given sigma.
func boxesForGauss(sigma float64) [3]int {
	const n = 3
	wi := math.Sqrt(12*sigma*sigma/n + 1)
	wl := int(math.Floor(wi))
	if wl%2 == 0 {
		wl--
	}
	wu := wl + 2
	mi := (12*sigma*sigma - float64(n*wl*wl) - float64(4*n*wl) - float64(3*n)) /
		(float64(-4*wl) - 4)
	m := int(math.Round(mi))

	var b [3]int
	for i := 0; i < n; i++ {
		if i < m {
			b[i] = wl
		} else {
			b[i] = wu
		}
	}
	return b
}

// blurAxis runs one box-blur pass of integer radius r along one axis with a
// sliding window and edge-replicate padding.
func blurAxis(src, dst []uint8, w, h, stride, r int, vertical bool) {
	if r <= 0 {
		copy(dst, src)
		return
	}
	window := float64(2*r + 1)

	clampIdx := func(v, max int) int {
		if v < 0 {
			return 0
		}
		if v > max {
			return max
		}
		return v
	}

	if !vertical {
		parallelRows(h, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				rowIn := src[y*stride:]
				rowOut := dst[y*stride:]
				var sum [4]float64
				for c := 0; c < 4; c++ {
					sum[c] = float64(rowIn[c]) * float64(r+1)
				}
				for x := 1; x <= r; x++ {
					p := rowIn[clampIdx(x, w-1)*4:]
					for c := 0; c < 4; c++ {
						sum[c] += float64(p[c])
					}
				}
				for x := 0; x < w; x++ {
					o := rowOut[x*4:]
					for c := 0; c < 4; c++ {
						o[c] = uint8(sum[c]/window + 0.5)
					}
					add := rowIn[clampIdx(x+r+1, w-1)*4:]
					sub := rowIn[clampIdx(x-r, w-1)*4:]
					for c := 0; c < 4; c++ {
						sum[c] += float64(add[c]) - float64(sub[c])
					}
				}
			}
		})
		return
	}

	parallelRows(w, func(x0, x1 int) {
		for x := x0; x < x1; x++ {
			var sum [4]float64
			p0 := src[x*4:]
			for c := 0; c < 4; c++ {
				sum[c] = float64(p0[c]) * float64(r+1)
			}
			for y := 1; y <= r; y++ {
				p := src[clampIdx(y, h-1)*stride+x*4:]
				for c := 0; c < 4; c++ {
					sum[c] += float64(p[c])
				}
			}
			for y := 0; y < h; y++ {
				o := dst[y*stride+x*4:]
				for c := 0; c < 4; c++ {
					o[c] = uint8(sum[c]/window + 0.5)
				}
				add := src[clampIdx(y+r+1, h-1)*stride+x*4:]
				sub := src[clampIdx(y-r, h-1)*stride+x*4:]
				for c := 0; c < 4; c++ {
					sum[c] += float64(add[c]) - float64(sub[c])
				}
			}
		}
	})
}

// boxBlur handles fractional radii by linearly blending the two adjacent
// integer-radius outputs.
func boxBlur(src, dst []uint8, w, h, stride int, rf float64, vertical bool) {
	r0 := int(math.Floor(rf))
	f := rf - float64(r0)
	if f < 1e-4 {
		blurAxis(src, dst, w, h, stride, r0, vertical)
		return
	}
	a := make([]uint8, len(src))
	b := make([]uint8, len(src))
	blurAxis(src, a, w, h, stride, r0, vertical)
	blurAxis(src, b, w, h, stride, r0+1, vertical)
	for i := range dst {
		dst[i] = uint8((1-f)*float64(a[i]) + f*float64(b[i]) + 0.5)
	}
}

// gaussBlur approximates a Gaussian by three sequential box blurs per axis.
func gaussBlur(src, dst []uint8, w, h, stride int, sigma float64) {
	b := boxesForGauss(sigma)
	t1 := make([]uint8, len(src))
	t2 := make([]uint8, len(src))

	r := 0.5 * float64(b[0]-1)
	boxBlur(src, t1, w, h, stride, r, false)
	boxBlur(t1, t2, w, h, stride, r, true)

	r = 0.5 * float64(b[1]-1)
	boxBlur(t2, t1, w, h, stride, r, false)
	boxBlur(t1, t2, w, h, stride, r, true)

	r = 0.5 * float64(b[2]-1)
	boxBlur(t2, t1, w, h, stride, r, false)
	boxBlur(t1, dst, w, h, stride, r, true)
}

// Apply implements Effect.
func (s *Sharpen) Apply(frame *media.Frame, number int64) *media.Frame {
	img := frame.Image
	if img == nil {
		return frame
	}
	w, h := frame.Width(), frame.Height()
	if w <= 0 || h <= 0 {
		return frame
	}

	amt := s.Amount.GetValue(number)
	rpx := s.Radius.GetValue(number)
	thrRatio := s.Threshold.GetValue(number)
	if rpx <= 0 {
		return frame
	}

	// Normalise the radius against a 720p reference height.
	sigma := math.Max(0.1, rpx*float64(h)/720)

	blur := make([]uint8, len(img.Pix))
	gaussBlur(img.Pix, blur, w, h, img.Stride, sigma)

	const wR, wG, wB = 0.299, 0.587, 0.114

	// The threshold keyframe is a ratio of the frame's strongest luma
	// detail, so scan for the maximum first.
	bandMax := make([]float64, h)
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			maxDY := 0.0
			base := y * img.Stride
			for x := 0; x < w; x++ {
				i := base + x*4
				dR := float64(img.Pix[i]) - float64(blur[i])
				dG := float64(img.Pix[i+1]) - float64(blur[i+1])
				dB := float64(img.Pix[i+2]) - float64(blur[i+2])
				dY := math.Abs(wR*dR + wG*dG + wB*dB)
				if dY > maxDY {
					maxDY = dY
				}
			}
			bandMax[y] = maxDY
		}
	})
	maxDY := 0.0
	for _, v := range bandMax {
		if v > maxDY {
			maxDY = v
		}
	}
	thr := thrRatio * maxDY

	halo := func(d float64) float64 {
		return (255 - math.Abs(d)) / 255
	}

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			base := y * img.Stride
			for x := 0; x < w; x++ {
				i := base + x*4
				sp := img.Pix[i : i+4]
				bp := blur[i : i+4]

				dR := float64(sp[0]) - float64(bp[0])
				dG := float64(sp[1]) - float64(bp[1])
				dB := float64(sp[2]) - float64(bp[2])
				dY := wR*dR + wG*dG + wB*dB

				if math.Abs(dY) < thr {
					continue
				}

				var out [3]float64

				if s.Mode == SharpenHighPassBlend {
					switch s.Channel {
					case SharpenLuma:
						inc := amt * dY
						out[0] = float64(bp[0]) + inc*wR
						out[1] = float64(bp[1]) + inc*wG
						out[2] = float64(bp[2]) + inc*wB
					case SharpenChroma:
						out[0] = float64(bp[0]) + amt*(dR-dY*wR)
						out[1] = float64(bp[1]) + amt*(dG-dY*wG)
						out[2] = float64(bp[2]) + amt*(dB-dY*wB)
					default:
						out[0] = float64(bp[0]) + amt*dR
						out[1] = float64(bp[1]) + amt*dG
						out[2] = float64(bp[2]) + amt*dB
					}
				} else {
					switch s.Channel {
					case SharpenLuma:
						inc := amt * dY * halo(dY)
						out[0] = float64(sp[0]) + inc
						out[1] = float64(sp[1]) + inc
						out[2] = float64(sp[2]) + inc
					case SharpenChroma:
						cR, cG, cB := dR-dY, dG-dY, dB-dY
						out[0] = float64(sp[0]) + amt*cR*halo(cR)
						out[1] = float64(sp[1]) + amt*cG*halo(cG)
						out[2] = float64(sp[2]) + amt*cB*halo(cB)
					default:
						out[0] = float64(sp[0]) + amt*dR*halo(dR)
						out[1] = float64(sp[1]) + amt*dG*halo(dG)
						out[2] = float64(sp[2]) + amt*dB*halo(dB)
					}
				}

				for c := 0; c < 3; c++ {
					sp[c] = clamp255(out[c])
				}
			}
		}
	})

	return frame
}

type sharpenJSON Sharpen

// MarshalJSON emits the typed state.
func (s *Sharpen) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		*sharpenJSON
	}{Type: s.Name(), sharpenJSON: (*sharpenJSON)(s)})
}
