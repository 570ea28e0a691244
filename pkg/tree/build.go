package tree

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/geom"
	"github.com/matzehuels/autolayout/pkg/scene"
)

// SelectionName is the name of the synthetic root wrapping a multi-node
// selection.
const SelectionName = "selection"

// chunkName is the name of the synthetic groups holding chunks of an
// oversized child list.
const chunkName = "chunk"

// Drop reasons.
const (
	ReasonUnsupported = "unsupported kind"
	ReasonInvisible   = "invisible"
	ReasonDegenerate  = "degenerate geometry"
	ReasonEmptyGroup  = "empty group"
)

// Option configures [Build].
type Option func(*builder)

// WithSegmenter attaches text runs from s to every text node.
func WithSegmenter(s scene.TextSegmenter) Option {
	return func(b *builder) { b.segmenter = s }
}

// WithIDGenerator replaces the generator of synthetic node ids.
func WithIDGenerator(fn func() string) Option {
	return func(b *builder) { b.newID = fn }
}

type builder struct {
	cfg       config.Config
	segmenter scene.TextSegmenter
	newID     func() string
	dropped   []Drop
}

// pending is a converted node before it is placed in the arena. Boxes are
// absolute so elided groups need no rebasing.
type pending struct {
	node     Node
	abs      geom.Rect
	children []*pending
}

// Build normalizes a source selection into a tree. The source is never
// mutated. The only error is a failing text segmenter; unsupported,
// invisible and degenerate nodes are dropped and listed in [Tree.Dropped].
func Build(ctx context.Context, nodes []scene.Node, cfg config.Config, opts ...Option) (*Tree, error) {
	b := &builder{cfg: cfg, newID: uuid.NewString}
	for _, opt := range opts {
		opt(b)
	}

	var tops []*pending
	for i := range nodes {
		p, err := b.convert(ctx, &nodes[i], geom.Transform{})
		if err != nil {
			return nil, err
		}
		if p != nil {
			tops = append(tops, p)
		}
	}

	t := &Tree{root: NoRef, dropped: b.dropped}
	switch len(tops) {
	case 0:
		return t, nil
	case 1:
		t.root = b.place(t, tops[0], NoRef, 0, 0)
	default:
		root := b.synthetic(Frame, SelectionName, b.chunk(tops))
		t.root = b.place(t, root, NoRef, 0, 0)
	}
	return t, nil
}

// convert maps one source node, and its subtree, to a pending node. xf maps
// the coordinate space src is positioned in to absolute coordinates.
func (b *builder) convert(ctx context.Context, src *scene.Node, xf geom.Transform) (*pending, error) {
	if !src.IsVisible() {
		b.drop(src, ReasonInvisible)
		return nil, nil
	}

	var (
		kind        Kind
		placeholder bool
		line        bool
	)
	switch src.Kind {
	case scene.KindFrame, scene.KindComponent, scene.KindComponentSet, scene.KindInstance, scene.KindSection:
		kind = Frame
	case scene.KindGroup:
		kind = Group
	case scene.KindRectangle:
		kind = Rectangle
	case scene.KindEllipse:
		kind = Ellipse
	case scene.KindText:
		kind = Text
	case scene.KindLine:
		kind, line = Rectangle, true
	case scene.KindVector, scene.KindStar, scene.KindPolygon, scene.KindBooleanOp:
		kind, placeholder = Rectangle, true
	default:
		b.drop(src, ReasonUnsupported)
		return nil, nil
	}

	w, h := src.Width, src.Height
	fills, strokes := paints(src.Fills), paints(src.Strokes)
	stroke := Stroke{Weight: src.StrokeWeight, Align: strokeAlign(src.StrokeAlign)}
	if line {
		// A line is drawn by its stroke; its thin axis is the stroke weight.
		if h <= 0 {
			h = src.StrokeWeight
		}
		if w <= 0 {
			w = src.StrokeWeight
		}
		fills, strokes, stroke = strokes, nil, Stroke{}
	}
	if w <= 0 || h <= 0 || math.IsNaN(w) || math.IsNaN(h) {
		b.drop(src, ReasonDegenerate)
		return nil, nil
	}

	p := &pending{
		node: Node{
			ID:          src.ID,
			Name:        src.Name,
			Kind:        kind,
			Width:       w,
			Height:      h,
			Rotation:    src.Rotation,
			Fills:       fills,
			Strokes:     strokes,
			Stroke:      stroke,
			Radius:      radius(src, w, h),
			Effects:     effects(src.Effects),
			Opacity:     src.OpacityOr(),
			Grow:        src.LayoutGrow > 0,
			Stretch:     strings.EqualFold(src.LayoutAlign, "STRETCH"),
			Placeholder: placeholder,
		},
		abs: xf.Bounds(src.X, src.Y, w, h, src.Rotation),
	}

	switch kind {
	case Text:
		tc := &TextContent{
			Characters: src.Characters,
			FontSize:   src.FontSize,
			AutoResize: autoResize(src.TextAutoResize),
			AlignH:     src.TextAlignHorizontal,
			AlignV:     src.TextAlignVertical,
		}
		if b.segmenter != nil {
			runs, err := b.segmenter.Segments(ctx, src.ID)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeSegmenter, err, "segment text node %s", src.ID)
			}
			tc.Runs = runs
		}
		p.node.Text = tc
		return p, nil

	case Frame, Group:
		// Frame children live in the frame's rotated space; group children
		// share the group's own coordinate space.
		cxf := xf
		if kind == Frame {
			cxf = xf.Child(src.X, src.Y, src.Rotation)
		}
		for i := range src.Children {
			c, err := b.convert(ctx, &src.Children[i], cxf)
			if err != nil {
				return nil, err
			}
			if c != nil {
				p.children = append(p.children, c)
			}
		}
		return b.shapeContainer(src, p), nil
	}
	return p, nil
}

// shapeContainer resolves the container edge cases: empty frames become
// rectangles, empty groups disappear, singleton groups are elided.
func (b *builder) shapeContainer(src *scene.Node, p *pending) *pending {
	if p.node.Kind == Group {
		switch len(p.children) {
		case 0:
			b.drop(src, ReasonEmptyGroup)
			return nil
		case 1:
			return p.children[0]
		}
		p.abs = unionOf(p.children)
		p.node.Width, p.node.Height = p.abs.W, p.abs.H
		p.node.Container = &Container{}
		p.children = b.chunk(p.children)
		return p
	}

	if len(p.children) == 0 {
		p.node.Kind = Rectangle
		p.children = nil
		return p
	}

	c := &Container{
		LayoutMode:    layoutMode(src.LayoutMode),
		PrimarySizing: sizingMode(src.PrimaryAxisSizingMode),
		CounterSizing: sizingMode(src.CounterAxisSizingMode),
		ItemSpacing:   src.ItemSpacing,
		Padding: Padding{
			Top:    src.PaddingTop,
			Right:  src.PaddingRight,
			Bottom: src.PaddingBottom,
			Left:   src.PaddingLeft,
		},
		PrimaryAlign: align(src.PrimaryAxisAlignItems),
		CounterAlign: align(src.CounterAxisAlignItems),
	}
	if c.PrimaryAlign == AlignBaseline {
		c.PrimaryAlign = AlignMin
	}
	if c.CounterAlign == AlignSpaceBetween {
		c.CounterAlign = AlignMin
	}
	p.node.Container = c
	p.children = b.chunk(p.children)
	if c.IsFlow() {
		inheritFlow(p.children, c)
	}
	return p
}

// inheritFlow makes chunk groups of a flow container flow the same way and
// hug their contents, so chunking does not change the rendered layout.
func inheritFlow(children []*pending, c *Container) {
	for _, g := range children {
		if !g.node.Synthetic || g.node.Name != chunkName {
			continue
		}
		gc := g.node.Container
		gc.LayoutMode = c.LayoutMode
		gc.ItemSpacing = c.ItemSpacing
		gc.PrimaryAlign = c.PrimaryAlign
		gc.CounterAlign = c.CounterAlign
		gc.PrimarySizing = SizingAuto
		gc.CounterSizing = SizingAuto
		inheritFlow(g.children, c)
	}
}

// chunk splits an oversized child list into synthetic groups of at most
// MaxChildren, repeating until the list itself fits.
func (b *builder) chunk(children []*pending) []*pending {
	limit := b.cfg.MaxChildren
	if limit < 2 {
		limit = config.DefaultMaxChildren
	}
	for len(children) > limit {
		var groups []*pending
		for start := 0; start < len(children); start += limit {
			end := min(start+limit, len(children))
			part := children[start:end]
			if len(part) == 1 {
				groups = append(groups, part[0])
				continue
			}
			groups = append(groups, b.synthetic(Group, chunkName, part))
		}
		children = groups
	}
	return children
}

// synthetic creates a container with no source node around children.
func (b *builder) synthetic(kind Kind, name string, children []*pending) *pending {
	abs := unionOf(children)
	return &pending{
		node: Node{
			ID:        b.newID(),
			Name:      name,
			Kind:      kind,
			Width:     abs.W,
			Height:    abs.H,
			Opacity:   1,
			Synthetic: true,
			Container: &Container{},
		},
		abs:      abs,
		children: children,
	}
}

// place appends p and its subtree to the arena. (ox, oy) is the absolute
// origin of the parent's box.
func (b *builder) place(t *Tree, p *pending, parent Ref, ox, oy float64) Ref {
	n := p.node
	n.Parent = parent
	n.Box = p.abs.Translate(-ox, -oy)
	if n.Container != nil {
		c := *n.Container
		c.Children = nil
		n.Container = &c
	}
	r := t.add(n)
	for _, child := range p.children {
		cr := b.place(t, child, r, p.abs.X, p.abs.Y)
		c := t.nodes[r].Container
		c.Children = append(c.Children, cr)
	}
	return r
}

func (b *builder) drop(src *scene.Node, reason string) {
	b.dropped = append(b.dropped, Drop{ID: src.ID, Reason: reason})
}

func unionOf(ps []*pending) geom.Rect {
	boxes := make([]geom.Rect, len(ps))
	for i, p := range ps {
		boxes[i] = p.abs
	}
	return geom.UnionAll(boxes)
}

// =============================================================================
// Field mapping
// =============================================================================

func paints(src []scene.Paint) []Paint {
	var out []Paint
	for i := range src {
		p := &src[i]
		if !p.IsVisible() {
			continue
		}
		out = append(out, Paint{
			Type:     p.Type,
			Color:    deref(p.Color),
			Opacity:  optional(p.Opacity, 1),
			ImageRef: p.ImageRef,
			Stops:    append([]scene.ColorStop(nil), p.GradientStops...),
		})
	}
	return out
}

func effects(src []scene.Effect) []Effect {
	var out []Effect
	for i := range src {
		e := &src[i]
		if !e.IsVisible() {
			continue
		}
		fx := Effect{Type: e.Type, Radius: e.Radius, Spread: e.Spread, Color: deref(e.Color)}
		if e.Offset != nil {
			fx.OffsetX, fx.OffsetY = e.Offset.X, e.Offset.Y
		}
		out = append(out, fx)
	}
	return out
}

// radius resolves the mixed sentinel to per-corner radii and clamps every
// corner to half the shorter side.
func radius(src *scene.Node, w, h float64) Radius {
	limit := math.Min(w, h) / 2
	clamp := func(v float64) float64 { return math.Max(0, math.Min(v, limit)) }

	corners := Corners{
		TopLeft:     clamp(src.TopLeftRadius),
		TopRight:    clamp(src.TopRightRadius),
		BottomRight: clamp(src.BottomRightRadius),
		BottomLeft:  clamp(src.BottomLeftRadius),
	}
	if src.CornerRadius.Mixed {
		return VaryingRadius(corners)
	}
	if src.CornerRadius.Value == 0 && corners != (Corners{}) {
		if corners.TopLeft == corners.TopRight && corners.TopLeft == corners.BottomRight && corners.TopLeft == corners.BottomLeft {
			return UniformRadius(corners.TopLeft)
		}
		return VaryingRadius(corners)
	}
	return UniformRadius(clamp(src.CornerRadius.Value))
}

func strokeAlign(s string) geom.StrokeAlign {
	switch strings.ToUpper(s) {
	case "OUTSIDE":
		return geom.StrokeOutside
	case "CENTER":
		return geom.StrokeCenter
	default:
		return geom.StrokeInside
	}
}

func layoutMode(s string) LayoutMode {
	switch strings.ToUpper(s) {
	case "HORIZONTAL":
		return LayoutHorizontal
	case "VERTICAL":
		return LayoutVertical
	default:
		return LayoutNone
	}
}

func sizingMode(s string) SizingMode {
	switch strings.ToUpper(s) {
	case "AUTO", "HUG":
		return SizingAuto
	default:
		return SizingFixed
	}
}

func align(s string) Align {
	switch strings.ToUpper(s) {
	case "CENTER":
		return AlignCenter
	case "MAX":
		return AlignMax
	case "SPACE_BETWEEN":
		return AlignSpaceBetween
	case "BASELINE":
		return AlignBaseline
	default:
		return AlignMin
	}
}

func autoResize(s string) AutoResize {
	switch strings.ToUpper(s) {
	case "HEIGHT":
		return ResizeHeight
	case "WIDTH_AND_HEIGHT":
		return ResizeWidthAndHeight
	case "TRUNCATE":
		return ResizeTruncate
	default:
		return ResizeNone
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func optional(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
