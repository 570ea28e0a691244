// Package sizing decides, per node and per axis, whether a box is pixel-fixed,
// fills its container, hugs its content or snaps to a simple fraction of its
// parent.
//
// Rules are evaluated in precedence order and the first match wins:
//
//  1. the stroke inflates the effective extent (outside: twice the weight,
//     center: the weight) before any comparison
//  2. a container whose sole child matches its content extent hugs it
//  3. an auto-layout container with auto sizing on the axis, or a text box
//     that auto-resizes along it, hugs its content
//  4. a flow child that grows along the primary axis or stretches along the
//     counter axis fills
//  5. compared with the parent's content extent: equal fills, a menu
//     fraction snaps, a near-edge span with high coverage fills, anything
//     else is fixed
//  6. a fixed extent above the ceiling on the last child of a multi-child
//     container fills
//
// [Resolve] runs the rules bottom-up, then makes exactly one top-down
// reconciliation pass. There is no fixed-point iteration.
package sizing

import (
	"math"

	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/geom"
	"github.com/matzehuels/autolayout/pkg/tree"
)

// sameSize is the largest difference, in pixels, between two extents still
// considered equal by the sole-child rule.
const sameSize = 0.5

// Result holds the resolved policies of one tree, indexed by [tree.Ref].
type Result struct {
	sizes []Sizes
}

// Get returns the policies of r.
func (r *Result) Get(ref tree.Ref) Sizes { return r.sizes[ref] }

// Axis returns the policy of ref along a.
func (r *Result) Axis(ref tree.Ref, a geom.Axis) Policy { return r.sizes[ref].Axis(a) }

// Counts tallies policies by kind over both axes of the given nodes.
func (r *Result) Counts(refs []tree.Ref) map[Kind]int {
	out := map[Kind]int{}
	for _, ref := range refs {
		out[r.sizes[ref].Width.Kind]++
		out[r.sizes[ref].Height.Kind]++
	}
	return out
}

// Resolve computes the sizing policies of every reachable node of t.
func Resolve(t *tree.Tree, cfg config.Config) *Result {
	res := &Result{sizes: make([]Sizes, t.Len())}
	if t.Empty() {
		return res
	}

	for _, ref := range t.PostOrder() {
		for _, a := range geom.Axes {
			res.sizes[ref].set(a, resolve(t, ref, a, cfg))
		}
	}

	for _, ref := range t.PreOrder() {
		if ref == t.Root() {
			continue
		}
		for _, a := range geom.Axes {
			if p, changed := reconcile(t, res, ref, a, cfg); changed {
				res.sizes[ref].set(a, p)
			}
		}
	}
	return res
}

// resolve applies the bottom-up rules to one node along one axis.
func resolve(t *tree.Tree, ref tree.Ref, a geom.Axis, cfg config.Config) Policy {
	n := t.Node(ref)
	ext := n.EffectiveExtent(a)

	if c := n.Container; c != nil {
		if len(c.Children) == 1 {
			child := t.Node(c.Children[0])
			if geom.Near(child.EffectiveExtent(a), n.Extent(a)-c.Padding.Total(a), sameSize) {
				return HugContents(RuleSoleChild)
			}
		}
		if c.IsFlow() && c.SizingFor(a) == tree.SizingAuto {
			return HugContents(RuleAutoLayout)
		}
	}
	if n.Text != nil && n.Text.AutoResize.Covers(a) {
		return HugContents(RuleAutoLayout)
	}

	if n.Parent == tree.NoRef {
		return FixedPixels(ext, RuleRoot)
	}
	parent := t.Node(n.Parent)
	pc := parent.Container

	if pc.IsFlow() {
		primary := pc.LayoutMode.Axis()
		if (a == primary && n.Grow) || (a != primary && n.Stretch) {
			return FillParent(RuleFlowFill)
		}
	}

	p := compare(n, parent, a, ext, cfg)
	if p.Kind == Fixed && ext > cfg.MaxFixedSize && len(pc.Children) > 1 && isLast(t, ref, a) {
		return FillParent(RuleCeiling)
	}
	return p
}

// compare classifies ext against the parent's content extent.
func compare(n, parent *tree.Node, a geom.Axis, ext float64, cfg config.Config) Policy {
	pad := parent.Container.Padding
	content := parent.Extent(a) - pad.Total(a)
	if content <= 0 {
		return FixedPixels(ext, RuleFixed)
	}

	tol := cfg.FractionTolerance * content
	if geom.Near(ext, content, tol) {
		return FillParent(RuleEqual)
	}

	best, bestDiff := Ratio{}, math.Inf(1)
	for _, f := range Menu {
		if d := math.Abs(ext - f.Value()*content); d <= tol && d < bestDiff {
			best, bestDiff = f, d
		}
	}
	if best.Den != 0 {
		return FractionOf(best)
	}

	infl := ext - n.Extent(a)
	start := n.Box.Start(a) - infl/2 - pad.Lead(a)
	end := content - (start + ext)
	if math.Abs(start) <= cfg.FillMargin && math.Abs(end) <= cfg.FillMargin && ext >= cfg.FillCoverage*content {
		return FillParent(RuleNearEdges)
	}
	return FixedPixels(ext, RuleFixed)
}

// isLast reports whether ref is the last child of its parent along a: last in
// flow order on a flow's primary axis, furthest-reaching otherwise.
func isLast(t *tree.Tree, ref tree.Ref, a geom.Axis) bool {
	parent := t.Node(t.Parent(ref))
	kids := parent.Container.Children
	if parent.Container.IsFlow() && parent.Container.LayoutMode.Axis() == a {
		return kids[len(kids)-1] == ref
	}
	end := t.Node(ref).Box.End(a)
	for _, k := range kids {
		if k != ref && t.Node(k).Box.End(a) > end {
			return false
		}
	}
	return true
}

// reconcile applies the top-down pass to one node, given its parent's final
// policy.
func reconcile(t *tree.Tree, res *Result, ref tree.Ref, a geom.Axis, cfg config.Config) (Policy, bool) {
	n := t.Node(ref)
	cur := res.sizes[ref].Axis(a)
	parentPol := res.sizes[n.Parent].Axis(a)

	switch {
	case cur.Kind == Fill && parentPol.Kind == Hug && parentPol.Rule == RuleSoleChild:
		// Nobody would declare the size otherwise.
		return FixedPixels(n.EffectiveExtent(a), RuleDemoted), true

	case cur.Kind == Fixed && (parentPol.Kind == Fill || parentPol.Kind == Fraction):
		parent := t.Node(n.Parent)
		content := parent.Extent(a) - parent.Container.Padding.Total(a)
		if content > 0 && cur.Pixels >= cfg.FillCoverage*content {
			return FillParent(RulePromoted), true
		}
	}
	return cur, false
}
