// Package tree provides the normalized layout tree: an owned, detached copy of
// the source scene graph reduced to five closed variants.
//
// # Arena
//
// Nodes live in a single slice owned by [Tree] and are addressed by [Ref].
// Ownership flows only through [Container.Children] (and
// [Container.Background]); [Node.Parent] is a plain index used for lookup and
// never owns anything. A tree has exactly one root, or none when the source
// selection normalized to nothing.
//
// # Coordinates
//
// [Node.Box] is the axis-aligned bounding box of the node after rotation,
// relative to its parent's box origin. The root's box is in document space.
// [Node.Width] and [Node.Height] keep the unrotated size.
//
// # Stages
//
// Later stages never patch a tree they are given. Inference works on a
// [Tree.Clone]; sizing and anchoring return side tables keyed by [Ref].
package tree

import (
	"fmt"

	"github.com/matzehuels/autolayout/pkg/geom"
	"github.com/matzehuels/autolayout/pkg/scene"
)

// Ref addresses a node inside its tree.
type Ref int

// NoRef is the parent of the root and the root of an empty tree.
const NoRef Ref = -1

// Paint is a visible fill or stroke.
type Paint struct {
	Type     string
	Color    scene.Color
	Opacity  float64
	ImageRef string
	Stops    []scene.ColorStop
}

// Effect is a visible shadow or blur.
type Effect struct {
	Type    string
	Radius  float64
	Spread  float64
	Color   scene.Color
	OffsetX float64
	OffsetY float64
}

// Stroke is the border geometry. Stroke paints live in [Node.Strokes].
type Stroke struct {
	Weight float64
	Align  geom.StrokeAlign
}

// Corners holds per-corner radii.
type Corners struct {
	TopLeft, TopRight, BottomRight, BottomLeft float64
}

// Radius is either one uniform radius or four varying ones.
type Radius struct {
	Varying bool
	Uniform float64 // valid when !Varying
	Corners Corners // valid when Varying
}

// UniformRadius returns a radius shared by all four corners.
func UniformRadius(v float64) Radius { return Radius{Uniform: v} }

// VaryingRadius returns per-corner radii.
func VaryingRadius(c Corners) Radius { return Radius{Varying: true, Corners: c} }

// IsZero reports whether no corner is rounded.
func (r Radius) IsZero() bool {
	if r.Varying {
		return r.Corners == Corners{}
	}
	return r.Uniform == 0
}

// Padding is the inset of a container's content box.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// Lead returns the padding before content along a.
func (p Padding) Lead(a geom.Axis) float64 {
	if a == geom.Vertical {
		return p.Top
	}
	return p.Left
}

// Trail returns the padding after content along a.
func (p Padding) Trail(a geom.Axis) float64 {
	if a == geom.Vertical {
		return p.Bottom
	}
	return p.Right
}

// Total returns the combined padding along a.
func (p Padding) Total(a geom.Axis) float64 { return p.Lead(a) + p.Trail(a) }

// Container is the payload of frames and groups.
type Container struct {
	Children      []Ref // z-order, and flow order once LayoutMode is set
	LayoutMode    LayoutMode
	PrimarySizing SizingMode
	CounterSizing SizingMode
	ItemSpacing   float64
	Padding       Padding
	PrimaryAlign  Align
	CounterAlign  Align
	Background    *Ref // absorbed background rectangle, not a child
	Inferred      bool // LayoutMode was set by inference
}

// IsFlow reports whether the container lays out its children.
func (c *Container) IsFlow() bool { return c != nil && c.LayoutMode != LayoutNone }

// SizingFor returns the sizing mode of the container along a.
func (c *Container) SizingFor(a geom.Axis) SizingMode {
	if c.LayoutMode.Axis() == a {
		return c.PrimarySizing
	}
	return c.CounterSizing
}

// TextContent is the payload of text nodes.
type TextContent struct {
	Characters string
	FontSize   float64
	AutoResize AutoResize
	AlignH     string
	AlignV     string
	Runs       []scene.TextRun
}

// Node is one normalized node.
type Node struct {
	ID   string
	Name string
	Kind Kind

	Box      geom.Rect // rotated bounds, relative to the parent's box origin
	Width    float64   // unrotated
	Height   float64   // unrotated
	Rotation float64

	Fills   []Paint
	Strokes []Paint
	Stroke  Stroke
	Radius  Radius
	Effects []Effect
	Opacity float64

	// Flow-child flags, meaningful when the parent is an auto-layout container.
	Grow    bool
	Stretch bool

	Placeholder bool // stands in for vector geometry
	Synthetic   bool // created by the builder, no source node

	Parent    Ref
	Container *Container   // Frame and Group only
	Text      *TextContent // Text only
}

// IsContainer reports whether n carries children.
func (n *Node) IsContainer() bool { return n.Container != nil }

// Extent returns the box extent along a.
func (n *Node) Extent(a geom.Axis) float64 { return n.Box.Extent(a) }

// EffectiveExtent returns the box extent along a, inflated by the stroke.
func (n *Node) EffectiveExtent(a geom.Axis) float64 {
	return n.Box.Extent(a) + geom.StrokeInflation(n.Stroke.Weight, n.Stroke.Align)
}

// ContentBox returns the container's padded content box in its own
// coordinate space. Leaves have a content box equal to their size.
func (n *Node) ContentBox() geom.Rect {
	var p Padding
	if n.Container != nil {
		p = n.Container.Padding
	}
	return geom.Rect{
		X: p.Left,
		Y: p.Top,
		W: n.Box.W - p.Left - p.Right,
		H: n.Box.H - p.Top - p.Bottom,
	}
}

// Drop records a source node the builder left out and why.
type Drop struct {
	ID     string
	Reason string
}

// Tree is an arena of normalized nodes with a single root.
type Tree struct {
	nodes   []Node
	root    Ref
	dropped []Drop
}

// Len returns the number of nodes in the arena, absorbed backgrounds included.
func (t *Tree) Len() int { return len(t.nodes) }

// Empty reports whether the tree has no root.
func (t *Tree) Empty() bool { return t.root == NoRef }

// Root returns the root, or NoRef for an empty tree.
func (t *Tree) Root() Ref { return t.root }

// Node returns the node at r. The pointer is valid until the tree is cloned
// or grown.
func (t *Tree) Node(r Ref) *Node { return &t.nodes[r] }

// Children returns the children of r, or nil for leaves.
func (t *Tree) Children(r Ref) []Ref {
	if c := t.nodes[r].Container; c != nil {
		return c.Children
	}
	return nil
}

// Parent returns the parent of r, or NoRef for the root.
func (t *Tree) Parent(r Ref) Ref { return t.nodes[r].Parent }

// Dropped lists the source nodes the builder left out.
func (t *Tree) Dropped() []Drop { return t.dropped }

// Lookup finds a node by id.
func (t *Tree) Lookup(id string) (Ref, bool) {
	for i := range t.nodes {
		if t.nodes[i].ID == id {
			return Ref(i), true
		}
	}
	return NoRef, false
}

// Walk visits the root and its descendants in pre-order. Returning false from
// fn skips the node's subtree. Absorbed backgrounds are not visited.
func (t *Tree) Walk(fn func(r Ref, depth int) bool) {
	if t.Empty() {
		return
	}
	var visit func(Ref, int)
	visit = func(r Ref, depth int) {
		if !fn(r, depth) {
			return
		}
		for _, c := range t.Children(r) {
			visit(c, depth+1)
		}
	}
	visit(t.root, 0)
}

// PostOrder returns every reachable node with children before parents.
func (t *Tree) PostOrder() []Ref {
	if t.Empty() {
		return nil
	}
	out := make([]Ref, 0, len(t.nodes))
	var visit func(Ref)
	visit = func(r Ref) {
		for _, c := range t.Children(r) {
			visit(c)
		}
		out = append(out, r)
	}
	visit(t.root)
	return out
}

// PreOrder returns every reachable node with parents before children.
func (t *Tree) PreOrder() []Ref {
	out := make([]Ref, 0, len(t.nodes))
	t.Walk(func(r Ref, _ int) bool {
		out = append(out, r)
		return true
	})
	return out
}

// Count returns the number of nodes reachable from the root.
func (t *Tree) Count() int { return len(t.PreOrder()) }

// Clone returns a deep copy. Refs stay valid across the copy.
func (t *Tree) Clone() *Tree {
	out := &Tree{
		nodes:   make([]Node, len(t.nodes)),
		root:    t.root,
		dropped: append([]Drop(nil), t.dropped...),
	}
	for i, n := range t.nodes {
		n.Fills = append([]Paint(nil), n.Fills...)
		n.Strokes = append([]Paint(nil), n.Strokes...)
		n.Effects = append([]Effect(nil), n.Effects...)
		if n.Container != nil {
			c := *n.Container
			c.Children = append([]Ref(nil), c.Children...)
			if c.Background != nil {
				bg := *c.Background
				c.Background = &bg
			}
			n.Container = &c
		}
		if n.Text != nil {
			tx := *n.Text
			tx.Runs = append([]scene.TextRun(nil), tx.Runs...)
			n.Text = &tx
		}
		out.nodes[i] = n
	}
	return out
}

// Validate checks the structural invariants: one root, every reachable
// non-root node's parent owns it, no node reachable twice.
func (t *Tree) Validate() error {
	if t.Empty() {
		if len(t.nodes) != 0 {
			return fmt.Errorf("empty tree holds %d nodes", len(t.nodes))
		}
		return nil
	}
	if t.nodes[t.root].Parent != NoRef {
		return fmt.Errorf("root %s has a parent", t.nodes[t.root].ID)
	}
	seen := make([]bool, len(t.nodes))
	var visit func(Ref) error
	visit = func(r Ref) error {
		if seen[r] {
			return fmt.Errorf("node %s reachable twice", t.nodes[r].ID)
		}
		seen[r] = true
		n := &t.nodes[r]
		if n.Kind.IsContainer() != (n.Container != nil) {
			return fmt.Errorf("node %s: kind %s with container=%v", n.ID, n.Kind, n.Container != nil)
		}
		if (n.Kind == Text) != (n.Text != nil) {
			return fmt.Errorf("node %s: kind %s with text=%v", n.ID, n.Kind, n.Text != nil)
		}
		if n.Container == nil {
			return nil
		}
		if n.Container.Background != nil {
			bg := *n.Container.Background
			if t.nodes[bg].Parent != r {
				return fmt.Errorf("background %s not owned by %s", t.nodes[bg].ID, n.ID)
			}
			seen[bg] = true
		}
		for _, c := range n.Container.Children {
			if t.nodes[c].Parent != r {
				return fmt.Errorf("node %s: parent %d, owned by %s", t.nodes[c].ID, t.nodes[c].Parent, n.ID)
			}
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(t.root)
}

// add appends a node and returns its ref.
func (t *Tree) add(n Node) Ref {
	t.nodes = append(t.nodes, n)
	return Ref(len(t.nodes) - 1)
}
