package geom

import "math"

// Rect is an axis-aligned box. X and Y are the top-left corner; the y axis
// grows downward as in every design tool the scene graphs come from.
type Rect struct {
	X, Y float64
	W, H float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// CenterX returns the horizontal center point of the box.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical center point of the box.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Empty reports whether the box has no area. Negative extents, a known
// artifact of upstream floating-point rounding, count as empty.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Translate returns the box moved by dx, dy.
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Union returns the smallest box containing both r and o.
// An empty operand is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x := math.Min(r.X, o.X)
	y := math.Min(r.Y, o.Y)
	return Rect{
		X: x,
		Y: y,
		W: math.Max(r.Right(), o.Right()) - x,
		H: math.Max(r.Bottom(), o.Bottom()) - y,
	}
}

// Contains reports whether o lies entirely inside r, allowing each edge to
// overshoot by at most tol.
func (r Rect) Contains(o Rect, tol float64) bool {
	return o.X >= r.X-tol &&
		o.Y >= r.Y-tol &&
		o.Right() <= r.Right()+tol &&
		o.Bottom() <= r.Bottom()+tol
}

// Extent returns the box size along axis.
func (r Rect) Extent(a Axis) float64 {
	if a == Horizontal {
		return r.W
	}
	return r.H
}

// Start returns the leading edge coordinate along axis.
func (r Rect) Start(a Axis) float64 {
	if a == Horizontal {
		return r.X
	}
	return r.Y
}

// End returns the trailing edge coordinate along axis.
func (r Rect) End(a Axis) float64 {
	return r.Start(a) + r.Extent(a)
}

// Center returns the box center along axis.
func (r Rect) Center(a Axis) float64 {
	return r.Start(a) + r.Extent(a)/2
}

// UnionAll returns the union of all boxes, or the zero Rect when rs is empty.
func UnionAll(rs []Rect) Rect {
	var out Rect
	for _, r := range rs {
		out = out.Union(r)
	}
	return out
}

// Axis selects the horizontal (width, x) or vertical (height, y) dimension.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

// Cross returns the perpendicular axis.
func (a Axis) Cross() Axis {
	if a == Horizontal {
		return Vertical
	}
	return Horizontal
}

// String returns "horizontal" or "vertical".
func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Axes lists both axes in evaluation order.
var Axes = [2]Axis{Horizontal, Vertical}
