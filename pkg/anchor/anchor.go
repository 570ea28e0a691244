// Package anchor classifies where an absolutely positioned node sits inside
// its parent's content box.
//
// Only children of containers without a flow layout are classified; flow
// children and the root get [None]. The vocabulary is a centre, four corners,
// four edge centres, and [Manual] for everything else. Manual nodes carry raw
// offsets from the parent's content-box origin, never document coordinates.
//
// Tolerances scale with the content extent and never drop below
// config.MinTolerance pixels.
package anchor

import (
	"math"

	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/geom"
	"github.com/matzehuels/autolayout/pkg/tree"
)

// Class is an anchor label.
type Class uint8

const (
	None Class = iota
	Center
	TopStart
	TopCenter
	TopEnd
	CenterStart
	CenterEnd
	BottomStart
	BottomCenter
	BottomEnd
	Manual
)

// Classes returns every class, None included.
func Classes() []Class {
	return []Class{None, Center, TopStart, TopCenter, TopEnd, CenterStart, CenterEnd, BottomStart, BottomCenter, BottomEnd, Manual}
}

func (c Class) String() string {
	switch c {
	case None:
		return "none"
	case Center:
		return "center"
	case TopStart:
		return "top-start"
	case TopCenter:
		return "top-center"
	case TopEnd:
		return "top-end"
	case CenterStart:
		return "center-start"
	case CenterEnd:
		return "center-end"
	case BottomStart:
		return "bottom-start"
	case BottomCenter:
		return "bottom-center"
	case BottomEnd:
		return "bottom-end"
	case Manual:
		return "manual"
	default:
		return "unknown"
	}
}

// Offset is a position relative to the parent's content-box origin.
type Offset struct {
	Left, Top float64
}

// Anchor is the classification of one node.
type Anchor struct {
	Class  Class
	Offset Offset // set for every child of a non-flow container
}

// Result holds the anchors of one tree, indexed by [tree.Ref].
type Result struct {
	anchors []Anchor
}

// Get returns the anchor of ref.
func (r *Result) Get(ref tree.Ref) Anchor { return r.anchors[ref] }

// Counts tallies classes over the given nodes.
func (r *Result) Counts(refs []tree.Ref) map[Class]int {
	out := map[Class]int{}
	for _, ref := range refs {
		out[r.anchors[ref].Class]++
	}
	return out
}

// Classify computes the anchor of every reachable node of t.
func Classify(t *tree.Tree, cfg config.Config) *Result {
	res := &Result{anchors: make([]Anchor, t.Len())}
	t.Walk(func(ref tree.Ref, _ int) bool {
		n := t.Node(ref)
		c := n.Container
		if c == nil || c.IsFlow() {
			return true
		}
		content := n.ContentBox()
		siblings := len(c.Children) > 1 && !cfg.AnchorSiblings
		for _, child := range c.Children {
			cn := t.Node(child)
			box := geom.Inflate(cn.Box, cn.Stroke.Weight, cn.Stroke.Align)
			a := Anchor{
				Class:  Manual,
				Offset: Offset{Left: cn.Box.X - content.X, Top: cn.Box.Y - content.Y},
			}
			if !siblings {
				a.Class = classify(box, content, cfg)
			}
			res.anchors[child] = a
		}
		return true
	})
	return res
}

// placement is where a box sits along one axis.
type placement uint8

const (
	elsewhere placement = iota
	atStart
	atCenter
	atEnd
)

func place(box, content geom.Rect, a geom.Axis, cfg config.Config) placement {
	ext := content.Extent(a)
	centerTol := math.Max(cfg.MinTolerance, cfg.CenterTolerance*ext)
	edgeTol := math.Max(cfg.MinTolerance, cfg.EdgeTolerance*ext)

	switch {
	case geom.Near(box.Center(a), content.Center(a), centerTol):
		return atCenter
	case geom.Near(box.Start(a), content.Start(a), edgeTol):
		return atStart
	case geom.Near(box.End(a), content.End(a), edgeTol):
		return atEnd
	default:
		return elsewhere
	}
}

// classify is the decision table over both axes' placements.
func classify(box, content geom.Rect, cfg config.Config) Class {
	x := place(box, content, geom.Horizontal, cfg)
	y := place(box, content, geom.Vertical, cfg)
	if x == elsewhere || y == elsewhere {
		return Manual
	}
	table := [3][3]Class{
		// x: start, center, end
		{TopStart, TopCenter, TopEnd},          // y: start
		{CenterStart, Center, CenterEnd},       // y: center
		{BottomStart, BottomCenter, BottomEnd}, // y: end
	}
	return table[y-atStart][x-atStart]
}
