package geom

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{12.345, 2, 12.35},
		{12.344, 2, 12.34},
		{-0.0001, 2, 0},
		{7.5, 0, 8},
		{7.5, -1, 8},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.places); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{12.5, "12.5"},
		{20, "20"},
		{0.3333333, "0.33"},
		{-0.001, "0"},
	}
	for _, tt := range tests {
		if got := Format(tt.v, 2); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestRotatedBounds(t *testing.T) {
	tests := []struct {
		name          string
		x, y, w, h, d float64
		want          Rect
	}{
		{"unrotated", 5, 5, 10, 20, 0, Rect{5, 5, 10, 20}},
		{"quarter turn", 0, 0, 10, 20, 90, Rect{0, -10, 20, 10}},
		{"half turn", 10, 10, 10, 20, 180, Rect{0, -10, 10, 20}},
		{"negative quarter", 0, 0, 10, 20, -90, Rect{-20, 0, 20, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RotatedBounds(tt.x, tt.y, tt.w, tt.h, tt.d)
			if got != tt.want {
				t.Errorf("RotatedBounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRotatedBoundsDiagonal(t *testing.T) {
	got := RotatedBounds(0, 0, 10, 10, 45)
	want := 10 * math.Sqrt2
	if math.Abs(got.W-want) > 1e-6 || math.Abs(got.H-want) > 1e-6 {
		t.Errorf("45° square bounds = %+v, want %v×%v", got, want, want)
	}
}

func TestStrokeInflation(t *testing.T) {
	tests := []struct {
		align StrokeAlign
		want  float64
	}{
		{StrokeOutside, 8},
		{StrokeCenter, 4},
		{StrokeInside, 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := StrokeInflation(4, tt.align); got != tt.want {
			t.Errorf("StrokeInflation(4, %q) = %v, want %v", tt.align, got, tt.want)
		}
	}
	if got := StrokeInflation(-1, StrokeOutside); got != 0 {
		t.Errorf("negative weight inflation = %v, want 0", got)
	}
}

func TestInflateKeepsCenter(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 20, H: 20}
	got := Inflate(r, 2, StrokeOutside)
	if got.CenterX() != r.CenterX() || got.CenterY() != r.CenterY() {
		t.Errorf("Inflate moved center: %+v", got)
	}
	if got.W != 24 || got.H != 24 {
		t.Errorf("Inflate size = %v×%v, want 24×24", got.W, got.H)
	}
}

func TestUnionAndContains(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{20, 5, 10, 10}
	u := a.Union(b)
	if u != (Rect{0, 0, 30, 15}) {
		t.Fatalf("Union = %+v", u)
	}
	if !u.Contains(a, 0) || !u.Contains(b, 0) {
		t.Error("union should contain both operands")
	}
	if a.Contains(b, 0) {
		t.Error("a should not contain b")
	}
	if got := (Rect{}).Union(a); got != a {
		t.Errorf("empty union = %+v, want %+v", got, a)
	}
	if got := UnionAll(nil); got != (Rect{}) {
		t.Errorf("UnionAll(nil) = %+v", got)
	}
}

func TestGaps(t *testing.T) {
	boxes := []Rect{{0, 0, 10, 10}, {0, 20, 10, 10}, {0, 41, 10, 10}}
	s := Gaps(boxes, Vertical)
	if len(s.Gaps) != 2 || s.Gaps[0] != 10 || s.Gaps[1] != 11 {
		t.Fatalf("Gaps = %v", s.Gaps)
	}
	if s.Mean != 10.5 {
		t.Errorf("Mean = %v, want 10.5", s.Mean)
	}
	if math.Abs(s.StdDev-math.Sqrt(0.5)) > 1e-9 {
		t.Errorf("StdDev = %v, want %v", s.StdDev, math.Sqrt(0.5))
	}
	if s.Overlapping(0) {
		t.Error("non-overlapping boxes reported as overlapping")
	}

	h := Gaps(boxes, Horizontal)
	if !h.Overlapping(0) {
		t.Error("stacked boxes should overlap horizontally")
	}

	single := Gaps(boxes[:2], Vertical)
	if single.StdDev != 0 || single.Mean != 10 {
		t.Errorf("single gap spacing = %+v", single)
	}
	if got := Gaps(boxes[:1], Vertical); len(got.Gaps) != 0 {
		t.Errorf("one box should have no gaps, got %v", got.Gaps)
	}
}

func TestAxis(t *testing.T) {
	if Horizontal.Cross() != Vertical || Vertical.Cross() != Horizontal {
		t.Error("Cross() should swap axes")
	}
	r := Rect{X: 1, Y: 2, W: 3, H: 4}
	if r.Extent(Horizontal) != 3 || r.Extent(Vertical) != 4 {
		t.Error("Extent mismatch")
	}
	if r.End(Horizontal) != 4 || r.End(Vertical) != 6 {
		t.Error("End mismatch")
	}
	if r.Center(Vertical) != 4 {
		t.Errorf("Center(Vertical) = %v", r.Center(Vertical))
	}
}

func TestTransform(t *testing.T) {
	var id Transform
	if x, y := id.Apply(3, 4); x != 3 || y != 4 {
		t.Errorf("identity Apply = (%v, %v)", x, y)
	}

	xf := Transform{}.Child(10, 10, 90)
	x, y := xf.Apply(20, 5)
	if Round(x, 6) != 15 || Round(y, 6) != -10 {
		t.Errorf("rotated Apply = (%v, %v), want (15, -10)", x, y)
	}

	// Rotations compose: a quarter turn inside a quarter turn is a half turn.
	got := Transform{}.Child(0, 0, 90).Bounds(0, 0, 10, 20, 90)
	if want := RotatedBounds(0, 0, 10, 20, 180); got != want {
		t.Errorf("composed Bounds = %+v, want %+v", got, want)
	}
}
