// Package geom provides the numeric helpers shared by every layout stage:
// rounding and formatting, bounding boxes under rotation, stroke-inflated
// sizes and the spacing statistics used to detect implicit stacks.
//
// Everything in this package is pure; nothing allocates beyond its return
// values and nothing depends on run configuration.
package geom

import (
	"math"
	"strconv"

	"github.com/montanaflynn/stats"
)

const eps = 1e-9

// Round rounds v to the given number of decimal places. Negative places are
// treated as zero.
func Round(v float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // avoid -0
	}
	return r
}

// Format renders v rounded to places without trailing zeros,
// e.g. Format(12.50, 2) == "12.5" and Format(20, 2) == "20".
func Format(v float64, places int) string {
	return strconv.FormatFloat(Round(v, places), 'f', -1, 64)
}

// Near reports whether a and b differ by at most tol.
func Near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol+eps
}

// RotatedBounds returns the axis-aligned bounding box of a w×h box whose
// origin sits at (x, y) and which is rotated by deg degrees counter-clockwise
// about that origin. The y axis grows downward.
func RotatedBounds(x, y, w, h, deg float64) Rect {
	if math.Abs(deg) < 0.01 {
		return Rect{X: x, Y: y, W: w, H: h}
	}
	sin, cos := math.Sincos(deg * math.Pi / 180)
	corners := [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		px := c[0]*cos + c[1]*sin
		py := -c[0]*sin + c[1]*cos
		minX, maxX = math.Min(minX, px), math.Max(maxX, px)
		minY, maxY = math.Min(minY, py), math.Max(maxY, py)
	}
	return Rect{
		X: Round(x+minX, 6),
		Y: Round(y+minY, 6),
		W: Round(maxX-minX, 6),
		H: Round(maxY-minY, 6),
	}
}

// Transform maps a local coordinate space to absolute coordinates: the local
// origin sits at (X, Y) and the space is rotated by Deg degrees
// counter-clockwise about it, as in [RotatedBounds].
type Transform struct {
	X, Y float64
	Deg  float64
}

// Apply maps the local point (x, y).
func (t Transform) Apply(x, y float64) (float64, float64) {
	if math.Abs(t.Deg) < 0.01 {
		return t.X + x, t.Y + y
	}
	sin, cos := math.Sincos(t.Deg * math.Pi / 180)
	return t.X + x*cos + y*sin, t.Y - x*sin + y*cos
}

// Child returns the transform of a nested space whose origin is the local
// point (x, y) and which is rotated by a further deg degrees.
func (t Transform) Child(x, y, deg float64) Transform {
	ax, ay := t.Apply(x, y)
	return Transform{X: ax, Y: ay, Deg: t.Deg + deg}
}

// Bounds returns the absolute axis-aligned bounds of a local w×h box at
// (x, y) rotated by deg about its own origin.
func (t Transform) Bounds(x, y, w, h, deg float64) Rect {
	c := t.Child(x, y, deg)
	return RotatedBounds(c.X, c.Y, w, h, c.Deg)
}

// StrokeAlign is where a border sits relative to the geometric outline.
type StrokeAlign string

const (
	StrokeInside  StrokeAlign = "inside"
	StrokeCenter  StrokeAlign = "center"
	StrokeOutside StrokeAlign = "outside"
)

// StrokeInflation returns how much a stroke of the given weight and alignment
// adds to the box extent on one axis: twice the weight when drawn outside,
// the weight when centered (half on each side), nothing when inside.
func StrokeInflation(weight float64, align StrokeAlign) float64 {
	if weight <= 0 {
		return 0
	}
	switch align {
	case StrokeOutside:
		return 2 * weight
	case StrokeCenter:
		return weight
	default:
		return 0
	}
}

// Inflate returns r grown by the stroke on every side, keeping its center.
func Inflate(r Rect, weight float64, align StrokeAlign) Rect {
	d := StrokeInflation(weight, align)
	return Rect{X: r.X - d/2, Y: r.Y - d/2, W: r.W + d, H: r.H + d}
}

// Spacing summarizes the gaps between consecutive boxes along one axis.
type Spacing struct {
	Gaps   []float64
	Mean   float64
	StdDev float64 // sample standard deviation; zero for fewer than two gaps
}

// Overlapping reports whether any gap is negative beyond tol.
func (s Spacing) Overlapping(tol float64) bool {
	for _, g := range s.Gaps {
		if g < -tol {
			return true
		}
	}
	return false
}

// Gaps measures the spacing of boxes that are already sorted by their start
// coordinate along axis.
func Gaps(sorted []Rect, a Axis) Spacing {
	if len(sorted) < 2 {
		return Spacing{}
	}
	gaps := make([]float64, len(sorted)-1)
	for i := range gaps {
		gaps[i] = sorted[i+1].Start(a) - sorted[i].End(a)
	}
	mean, _ := stats.Mean(gaps)
	s := Spacing{Gaps: gaps, Mean: mean}
	if len(gaps) > 1 {
		sd, err := stats.StandardDeviationSample(gaps)
		if err == nil && !math.IsNaN(sd) {
			s.StdDev = sd
		}
	}
	return s
}
