// Package infer promotes absolutely positioned siblings into directional
// stacks.
//
// For every container that does not declare a layout mode and holds at least
// two children, [Apply] first looks for a background rectangle that encloses
// all of its siblings and absorbs it, then measures the gaps between the
// remaining children, vertically before horizontally. Uniform, non-negative
// gaps make a stack; anything else leaves the container untouched.
//
// A wrongly inferred stack reorders and repositions content for every
// emitter, so every doubtful case resolves to [tree.LayoutNone].
package infer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/geom"
	"github.com/matzehuels/autolayout/pkg/tree"
)

// Reasons recorded in a [Decision].
const (
	ReasonUniformGaps = "uniform gaps"
	ReasonSingleGap   = "single gap"
	ReasonOverlap     = "children overlap"
	ReasonIrregular   = "irregular gaps"
	ReasonWideGap     = "gap wider than children"
	ReasonTooFew      = "fewer than two children"
)

// Decision is the outcome for one inspected container.
type Decision struct {
	Ref        tree.Ref
	ID         string
	Mode       tree.LayoutMode
	Spacing    float64
	Background string // id of the absorbed background, if any
	Reason     string
}

// Report lists a decision per inspected container, in pre-order.
type Report struct {
	Decisions []Decision
}

// Stacks returns the number of containers that became stacks.
func (r Report) Stacks() int {
	n := 0
	for _, d := range r.Decisions {
		if d.Mode != tree.LayoutNone {
			n++
		}
	}
	return n
}

// Absorbed returns the number of absorbed backgrounds.
func (r Report) Absorbed() int {
	n := 0
	for _, d := range r.Decisions {
		if d.Background != "" {
			n++
		}
	}
	return n
}

// Apply returns a copy of t with inferred layouts. t itself is not modified.
func Apply(t *tree.Tree, cfg config.Config) (*tree.Tree, Report) {
	out := t.Clone()
	var rep Report
	if !cfg.InferAutoLayout {
		return out, rep
	}
	for _, r := range out.PreOrder() {
		n := out.Node(r)
		if n.Container == nil || n.Container.LayoutMode != tree.LayoutNone || len(n.Container.Children) < 2 {
			continue
		}
		rep.Decisions = append(rep.Decisions, inferContainer(out, r, cfg))
	}
	return out, rep
}

func inferContainer(t *tree.Tree, r tree.Ref, cfg config.Config) Decision {
	n := t.Node(r)
	c := n.Container
	d := Decision{Ref: r, ID: n.ID, Mode: tree.LayoutNone}

	if cfg.AbsorbBackground {
		if bg, ok := findBackground(t, c.Children); ok {
			c.Children = without(c.Children, bg)
			c.Background = &bg
			d.Background = t.Node(bg).ID
		}
	}
	if len(c.Children) < 2 {
		d.Reason = ReasonTooFew
		return d
	}

	var reasons []string
	for _, axis := range [2]geom.Axis{geom.Vertical, geom.Horizontal} {
		order, spacing, reason, ok := classify(t, c.Children, axis, cfg)
		if !ok {
			reasons = append(reasons, fmt.Sprintf("%s: %s", axis, reason))
			continue
		}
		c.Children = order
		c.LayoutMode = tree.ModeFor(axis)
		c.ItemSpacing = spacing
		c.Inferred = true
		deriveAlignment(t, n, axis, cfg)
		d.Mode, d.Spacing, d.Reason = c.LayoutMode, spacing, reason
		return d
	}
	d.Reason = strings.Join(reasons, "; ")
	return d
}

// findBackground returns the single rectangle child whose box encloses the
// union of all its siblings. Two or more candidates are ambiguous.
func findBackground(t *tree.Tree, children []tree.Ref) (tree.Ref, bool) {
	found := tree.NoRef
	for _, cand := range children {
		n := t.Node(cand)
		if n.Kind != tree.Rectangle || n.Placeholder {
			continue
		}
		var others []geom.Rect
		for _, o := range children {
			if o != cand {
				others = append(others, t.Node(o).Box)
			}
		}
		if !n.Box.Contains(geom.UnionAll(others), 0) {
			continue
		}
		if found != tree.NoRef {
			return tree.NoRef, false
		}
		found = cand
	}
	return found, found != tree.NoRef
}

// classify sorts children along axis and checks their gaps. It returns the
// flow order and the mean gap when they form a stack.
func classify(t *tree.Tree, children []tree.Ref, axis geom.Axis, cfg config.Config) ([]tree.Ref, float64, string, bool) {
	order := append([]tree.Ref(nil), children...)
	cross := axis.Cross()
	sort.SliceStable(order, func(i, j int) bool {
		a, b := t.Node(order[i]).Box, t.Node(order[j]).Box
		if a.Start(axis) != b.Start(axis) {
			return a.Start(axis) < b.Start(axis)
		}
		return a.Start(cross) < b.Start(cross)
	})

	boxes := make([]geom.Rect, len(order))
	for i, ref := range order {
		boxes[i] = t.Node(ref).Box
	}
	sp := geom.Gaps(boxes, axis)
	if sp.Overlapping(1e-6) {
		return nil, 0, ReasonOverlap, false
	}

	if len(sp.Gaps) == 1 {
		smaller := math.Min(boxes[0].Extent(axis), boxes[1].Extent(axis))
		if sp.Gaps[0] > cfg.SingleGapRatio*smaller {
			return nil, 0, ReasonWideGap, false
		}
		return order, sp.Mean, ReasonSingleGap, true
	}
	if sp.StdDev >= cfg.GapTolerance {
		return nil, 0, ReasonIrregular, false
	}
	return order, sp.Mean, ReasonUniformGaps, true
}

// deriveAlignment sets padding and alignment of a freshly inferred stack from
// where its children sit inside the container.
func deriveAlignment(t *tree.Tree, n *tree.Node, axis geom.Axis, cfg config.Config) {
	c := n.Container
	cross := axis.Cross()

	boxes := make([]geom.Rect, len(c.Children))
	for i, ref := range c.Children {
		boxes[i] = t.Node(ref).Box
	}
	content := geom.UnionAll(boxes)

	lead := math.Max(0, content.Start(axis))
	trail := math.Max(0, n.Box.Extent(axis)-content.End(axis))
	crossLead := math.Max(0, content.Start(cross))
	crossTrail := math.Max(0, n.Box.Extent(cross)-content.End(cross))

	c.Padding = padding(axis, lead, trail, crossLead, crossTrail)
	c.PrimaryAlign = tree.AlignMin
	if lead > cfg.MinTolerance && geom.Near(lead, trail, cfg.MinTolerance) {
		c.PrimaryAlign = tree.AlignCenter
	}
	c.CounterAlign = counterAlign(boxes, cross, crossLead, n.Box.Extent(cross)-crossTrail, cfg.MinTolerance)
}

func padding(axis geom.Axis, lead, trail, crossLead, crossTrail float64) tree.Padding {
	if axis == geom.Vertical {
		return tree.Padding{Top: lead, Bottom: trail, Left: crossLead, Right: crossTrail}
	}
	return tree.Padding{Left: lead, Right: trail, Top: crossLead, Bottom: crossTrail}
}

// counterAlign returns the modal cross-axis alignment of children inside
// [start, end]. Children spanning the whole range say nothing and are
// skipped; ties and an empty vote resolve to center.
func counterAlign(boxes []geom.Rect, cross geom.Axis, start, end, tol float64) tree.Align {
	votes := map[tree.Align]int{}
	for _, b := range boxes {
		before := b.Start(cross) - start
		after := end - b.End(cross)
		if geom.Near(before, 0, tol) && geom.Near(after, 0, tol) {
			continue
		}
		switch {
		case geom.Near(before, after, tol):
			votes[tree.AlignCenter]++
		case geom.Near(before, 0, tol):
			votes[tree.AlignMin]++
		case geom.Near(after, 0, tol):
			votes[tree.AlignMax]++
		}
	}

	best, bestVotes, tied := tree.AlignCenter, 0, false
	for _, a := range []tree.Align{tree.AlignMin, tree.AlignCenter, tree.AlignMax} {
		switch v := votes[a]; {
		case v > bestVotes:
			best, bestVotes, tied = a, v, false
		case v == bestVotes && v > 0:
			tied = true
		}
	}
	if bestVotes == 0 || tied {
		return tree.AlignCenter
	}
	return best
}

func without(refs []tree.Ref, drop tree.Ref) []tree.Ref {
	out := make([]tree.Ref, 0, len(refs))
	for _, r := range refs {
		if r != drop {
			out = append(out, r)
		}
	}
	return out
}
