// Package keyframe implements time-indexed scalar curves. Every animatable
// effect parameter is a Keyframe: a sorted set of control points interpolated
// per frame number.
package keyframe

import (
	"math"
	"sort"
)

// Interpolation selects how the curve moves between two adjacent points.
type Interpolation int

const (
	// Bezier eases in and out between the two points.
	Bezier Interpolation = iota
	// Linear moves in a straight line between the two points.
	Linear
	// Constant holds the left point's value until the right point.
	Constant
)

// Coordinate is a single (frame, value) pair.
type Coordinate struct {
	X float64 `json:"X"`
	Y float64 `json:"Y"`
}

// Point is a control point on the curve.
type Point struct {
	Co            Coordinate    `json:"co"`
	Interpolation Interpolation `json:"interpolation"`
}

// Keyframe is a scalar curve. The zero value is an empty curve that returns 0
// everywhere.
type Keyframe struct {
	Points []Point `json:"Points"`

	def float64
}

// NewConstant returns a curve with a single point at frame 1, which evaluates
// to value everywhere.
func NewConstant(value float64) Keyframe {
	k := Keyframe{}
	k.AddPoint(1, value, Bezier)
	return k
}

// NewEmpty returns a curve with no points that evaluates to def everywhere.
func NewEmpty(def float64) Keyframe {
	return Keyframe{def: def}
}

// AddPoint inserts or replaces the control point at the given frame, keeping
// the points sorted by frame number.
func (k *Keyframe) AddPoint(frame int64, value float64, interp Interpolation) {
	p := Point{Co: Coordinate{X: float64(frame), Y: value}, Interpolation: interp}
	i := sort.Search(len(k.Points), func(i int) bool { return k.Points[i].Co.X >= p.Co.X })
	if i < len(k.Points) && k.Points[i].Co.X == p.Co.X {
		k.Points[i] = p
		return
	}
	k.Points = append(k.Points, Point{})
	copy(k.Points[i+1:], k.Points[i:])
	k.Points[i] = p
}

// GetValue evaluates the curve at frame n. Outside the first and last points
// the curve extrapolates as a constant; an empty curve returns its
// construction default.
func (k Keyframe) GetValue(n int64) float64 {
	if len(k.Points) == 0 {
		return k.def
	}
	x := float64(n)
	first, last := k.Points[0], k.Points[len(k.Points)-1]
	if x <= first.Co.X {
		return first.Co.Y
	}
	if x >= last.Co.X {
		return last.Co.Y
	}

	// Locate the segment containing x. The right point's interpolation
	// governs the segment.
	i := sort.Search(len(k.Points), func(i int) bool { return k.Points[i].Co.X >= x })
	p0, p1 := k.Points[i-1], k.Points[i]
	if p1.Co.X == p0.Co.X {
		return p1.Co.Y
	}
	t := (x - p0.Co.X) / (p1.Co.X - p0.Co.X)

	switch p1.Interpolation {
	case Constant:
		if x < p1.Co.X {
			return p0.Co.Y
		}
		return p1.Co.Y
	case Linear:
		return p0.Co.Y + t*(p1.Co.Y-p0.Co.Y)
	default:
		return p0.Co.Y + bezierEase(t)*(p1.Co.Y-p0.Co.Y)
	}
}

// GetInt evaluates the curve and rounds half away from zero.
func (k Keyframe) GetInt(n int64) int64 {
	return int64(math.Round(k.GetValue(n)))
}

// GetLength returns the frame number of the last control point, or 0 for an
// empty curve.
func (k Keyframe) GetLength() int64 {
	if len(k.Points) == 0 {
		return 0
	}
	return int64(k.Points[len(k.Points)-1].Co.X)
}

// bezierEase maps t in [0,1] through a cubic bezier with symmetric ease
// handles. The curve's X component is inverted numerically; 24 bisection
// steps are well below half a ULP of 8-bit pixel math.
func bezierEase(t float64) float64 {
	const h = 0.25 // handle offset on both ends

	bezX := func(u float64) float64 {
		// P0=(0,0), C1=(h,0), C2=(1-h,1), P3=(1,1)
		inv := 1 - u
		return 3*inv*inv*u*h + 3*inv*u*u*(1-h) + u*u*u
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < 24; i++ {
		mid := (lo + hi) / 2
		if bezX(mid) < t {
			lo = mid
		} else {
			hi = mid
		}
	}
	u := (lo + hi) / 2
	inv := 1 - u
	return 3*inv*u*u + u*u*u
}
