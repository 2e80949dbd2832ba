package effects

import (
	"encoding/json"
	"image"
	"math"

	"github.com/user/playcore/pkg/keyframe"
	"github.com/user/playcore/pkg/media"
)

// SphericalProjection modes.
const (
	ProjectionSphere     = 0
	ProjectionHemisphere = 1
	ProjectionFisheye    = 2
)

// SphericalProjection sampling.
const (
	SampleNearest  = 0
	SampleBilinear = 1
)

// SphericalProjection flattens 360° footage into a perspective view with
// keyframed yaw, pitch, roll and field of view. Sphere and hemisphere modes
// sample an equirectangular source; fisheye mode inverts a circular fisheye.
type SphericalProjection struct {
	Yaw            keyframe.Keyframe `json:"yaw"`   // degrees
	Pitch          keyframe.Keyframe `json:"pitch"` // degrees
	Roll           keyframe.Keyframe `json:"roll"`  // degrees
	FOV            keyframe.Keyframe `json:"fov"`   // degrees
	ProjectionMode int               `json:"projection_mode"`
	Invert         int               `json:"invert"`
	Interpolation  int               `json:"interpolation"`
}

func init() {
	Register("SphericalProjection", func() Effect { return &SphericalProjection{} })
}

// NewSphericalProjection creates the effect looking straight ahead with a
// 90° field of view.
func NewSphericalProjection() *SphericalProjection {
	return &SphericalProjection{
		Yaw:   keyframe.NewConstant(0),
		Pitch: keyframe.NewConstant(0),
		Roll:  keyframe.NewConstant(0),
		FOV:   keyframe.NewConstant(90),
	}
}

// Name implements Effect.
func (s *SphericalProjection) Name() string { return "SphericalProjection" }

// Apply implements Effect.
func (s *SphericalProjection) Apply(frame *media.Frame, number int64) *media.Frame {
	src := frame.Image
	if src == nil {
		return frame
	}
	w, h := frame.Width(), frame.Height()
	if w <= 0 || h <= 0 {
		return frame
	}

	// Roll is inverted and offset by 180° so positive values read as
	// clockwise on screen.
	yawR := s.Yaw.GetValue(number) * math.Pi / 180
	pitchR := s.Pitch.GetValue(number) * math.Pi / 180
	rollR := -s.Roll.GetValue(number)*math.Pi/180 + math.Pi
	fovR := s.FOV.GetValue(number) * math.Pi / 180

	// Composite rotation R = Ry(yaw) * Rx(pitch) * Rz(roll).
	sy, cy := math.Sincos(yawR)
	sp, cp := math.Sincos(pitchR)
	sr, cr := math.Sincos(rollR)

	r00, r01, r02 := cy*cr+sy*sp*sr, -cy*sr+sy*sp*cr, sy*cp
	r10, r11, r12 := cp*sr, cp*cr, -sp
	r20, r21, r22 := -sy*cr+cy*sp*sr, sy*sr+cy*sp*cr, cy*cp

	hx := math.Tan(fovR * 0.5)
	vy := hx * float64(h) / float64(w)

	out := image.NewRGBA(src.Rect)
	srcStride, dstStride := src.Stride, out.Stride
	invert := s.Invert != 0

	clampI := func(v, max int) int {
		if v < 0 {
			return 0
		}
		if v > max {
			return max
		}
		return v
	}

	parallelRows(h, func(y0, y1 int) {
		for yy := y0; yy < y1; yy++ {
			dstRow := out.Pix[yy*dstStride:]
			ndcY := (2*(float64(yy)+0.5)/float64(h) - 1) * vy

			for xx := 0; xx < w; xx++ {
				ndcX := (2*(float64(xx)+0.5)/float64(w) - 1) * hx
				vx, vy2, vz := ndcX, -ndcY, -1.0
				inv := 1 / math.Sqrt(vx*vx+vy2*vy2+vz*vz)
				vx, vy2, vz = vx*inv, vy2*inv, vz*inv

				dx := r00*vx + r01*vy2 + r02*vz
				dy := r10*vx + r11*vy2 + r12*vz
				dz := r20*vx + r21*vy2 + r22*vz

				if s.ProjectionMode < ProjectionFisheye && invert {
					dx = -dx
					dz = -dz
				}

				var uf, vf float64
				if s.ProjectionMode == ProjectionFisheye {
					az := 1.0
					if invert {
						az = -1
					}
					theta := math.Acos(dz * az)
					rpx := theta / fovR * float64(w) / 2
					phi := math.Atan2(dy, dx)
					uf = float64(w)/2 + rpx*math.Cos(phi)
					vf = float64(h)/2 + rpx*math.Sin(phi)
				} else {
					lon := math.Atan2(dx, dz)
					lat := math.Asin(math.Max(-1, math.Min(1, dy)))
					if s.ProjectionMode == ProjectionHemisphere {
						lon = math.Max(-math.Pi/2, math.Min(math.Pi/2, lon))
						uf = (lon + math.Pi/2) / math.Pi * float64(w)
					} else {
						uf = (lon + math.Pi) / (2 * math.Pi) * float64(w)
					}
					vf = (lat + math.Pi/2) / math.Pi * float64(h)
				}

				d := dstRow[xx*4 : xx*4+4]

				if s.Interpolation == SampleNearest {
					x0 := clampI(int(math.Floor(uf)), w-1)
					y0 := clampI(int(math.Floor(vf)), h-1)
					copy(d, src.Pix[y0*srcStride+x0*4:y0*srcStride+x0*4+4])
				} else {
					x0 := clampI(int(math.Floor(uf)), w-1)
					y0 := clampI(int(math.Floor(vf)), h-1)
					x1 := clampI(x0+1, w-1)
					y1b := clampI(y0+1, h-1)
					dxr, dyr := uf-float64(x0), vf-float64(y0)
					p00 := src.Pix[y0*srcStride+x0*4:]
					p10 := src.Pix[y0*srcStride+x1*4:]
					p01 := src.Pix[y1b*srcStride+x0*4:]
					p11 := src.Pix[y1b*srcStride+x1*4:]
					for c := 0; c < 4; c++ {
						v0 := float64(p00[c])*(1-dxr) + float64(p10[c])*dxr
						v1 := float64(p01[c])*(1-dxr) + float64(p11[c])*dxr
						d[c] = uint8(v0*(1-dyr) + v1*dyr + 0.5)
					}
				}
			}
		}
	})

	frame.Image = out
	return frame
}

type sphericalJSON SphericalProjection

// MarshalJSON emits the typed state.
func (s *SphericalProjection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		*sphericalJSON
	}{Type: s.Name(), sphericalJSON: (*sphericalJSON)(s)})
}
