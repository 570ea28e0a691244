package layout

import (
	"fmt"
	"math"

	"github.com/matzehuels/autolayout/pkg/anchor"
	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/geom"
	"github.com/matzehuels/autolayout/pkg/scene"
	"github.com/matzehuels/autolayout/pkg/sizing"
	"github.com/matzehuels/autolayout/pkg/tree"
)

// Export flattens t and its side tables into a Layout. Geometry is rounded to
// cfg.Precision decimal places. Layer names are carried only when
// cfg.LayerNames is set.
func Export(t *tree.Tree, sizes *sizing.Result, anchors *anchor.Result, cfg config.Config) Layout {
	l := Layout{Version: Version, BaseFontSize: cfg.BaseFontSize, Nodes: []Node{}}
	if t.Empty() {
		return l
	}
	root := t.Node(t.Root())
	l.Root = root.ID
	l.Width = geom.Round(root.Box.W, cfg.Precision)
	l.Height = geom.Round(root.Box.H, cfg.Precision)

	order := map[tree.Ref]int{}
	t.Walk(func(ref tree.Ref, depth int) bool {
		n := t.Node(ref)
		if n.Container != nil {
			for i, c := range n.Container.Children {
				order[c] = i
			}
		}
		l.Nodes = append(l.Nodes, exportNode(t, ref, depth, order[ref], sizes, anchors, cfg))
		return true
	})
	return l
}

func exportNode(t *tree.Tree, ref tree.Ref, depth, order int, sizes *sizing.Result, anchors *anchor.Result, cfg config.Config) Node {
	n := t.Node(ref)
	round := func(v float64) float64 { return geom.Round(v, cfg.Precision) }

	out := Node{
		ID:          n.ID,
		Kind:        n.Kind.String(),
		Depth:       depth,
		Order:       order,
		X:           round(n.Box.X),
		Y:           round(n.Box.Y),
		Width:       round(n.Box.W),
		Height:      round(n.Box.H),
		Rotation:    round(n.Rotation),
		Style:       style(n, cfg.Precision),
		Grow:        n.Grow,
		Stretch:     n.Stretch,
		Placeholder: n.Placeholder,
		Synthetic:   n.Synthetic,
	}
	if cfg.LayerNames {
		out.Name = n.Name
	}
	if n.Parent != tree.NoRef {
		out.Parent = t.Node(n.Parent).ID
	}

	s := sizes.Get(ref)
	out.Size = Size{Width: dimension(s.Width, cfg.Precision), Height: dimension(s.Height, cfg.Precision)}

	a := anchors.Get(ref)
	if a.Class != anchor.None {
		out.Anchor = a.Class.String()
		out.Offset = &Offset{Left: round(a.Offset.Left), Top: round(a.Offset.Top)}
	}

	if c := n.Container; c != nil {
		for _, child := range c.Children {
			out.Children = append(out.Children, t.Node(child).ID)
		}
		if c.IsFlow() {
			out.Flow = &Flow{
				Mode:        c.LayoutMode.String(),
				ItemSpacing: round(c.ItemSpacing),
				Padding: Padding{
					Top:    round(c.Padding.Top),
					Right:  round(c.Padding.Right),
					Bottom: round(c.Padding.Bottom),
					Left:   round(c.Padding.Left),
				},
				PrimaryAlign:  c.PrimaryAlign.String(),
				CounterAlign:  c.CounterAlign.String(),
				PrimarySizing: c.PrimarySizing.String(),
				CounterSizing: c.CounterSizing.String(),
				Inferred:      c.Inferred,
			}
		}
		if c.Background != nil {
			bg := style(t.Node(*c.Background), cfg.Precision)
			out.Background = &bg
		}
	}

	if txt := n.Text; txt != nil {
		out.Text = &Text{
			Characters: txt.Characters,
			FontSize:   round(txt.FontSize),
			AutoResize: txt.AutoResize.String(),
			AlignH:     txt.AlignH,
			AlignV:     txt.AlignV,
			Runs:       runs(txt.Runs),
		}
		if txt.FontSize > 0 && cfg.BaseFontSize > 0 {
			out.Text.FontSizeRem = geom.Round(txt.FontSize/cfg.BaseFontSize, 4)
		}
	}
	return out
}

func dimension(p sizing.Policy, prec int) Dimension {
	d := Dimension{Mode: p.Kind.String(), Rule: string(p.Rule)}
	switch p.Kind {
	case sizing.Fixed:
		d.Pixels = geom.Round(p.Pixels, prec)
	case sizing.Fraction:
		d.Ratio = p.Ratio.String()
	}
	return d
}

func style(n *tree.Node, prec int) Style {
	s := Style{
		Fills:   paints(n.Fills),
		Strokes: paints(n.Strokes),
		Opacity: n.Opacity,
	}
	if n.Stroke.Weight > 0 {
		s.StrokeWeight = geom.Round(n.Stroke.Weight, prec)
		s.StrokeAlign = string(n.Stroke.Align)
	}
	if !n.Radius.IsZero() {
		r := &Radius{Varying: n.Radius.Varying}
		if n.Radius.Varying {
			r.TopLeft = n.Radius.Corners.TopLeft
			r.TopRight = n.Radius.Corners.TopRight
			r.BottomRight = n.Radius.Corners.BottomRight
			r.BottomLeft = n.Radius.Corners.BottomLeft
		} else {
			r.Uniform = n.Radius.Uniform
		}
		s.Radius = r
	}
	for _, e := range n.Effects {
		s.Effects = append(s.Effects, Effect{
			Type:    e.Type,
			Radius:  e.Radius,
			Spread:  e.Spread,
			Color:   Hex(e.Color),
			OffsetX: e.OffsetX,
			OffsetY: e.OffsetY,
		})
	}
	return s
}

func paints(ps []tree.Paint) []Paint {
	if len(ps) == 0 {
		return nil
	}
	out := make([]Paint, len(ps))
	for i, p := range ps {
		out[i] = Paint{Type: p.Type, Opacity: p.Opacity, ImageRef: p.ImageRef}
		if p.Type == "SOLID" {
			out[i].Color = Hex(p.Color)
		}
		for _, st := range p.Stops {
			out[i].Stops = append(out[i].Stops, Stop{Position: st.Position, Color: Hex(st.Color)})
		}
	}
	return out
}

func runs(rs []scene.TextRun) []TextRun {
	if len(rs) == 0 {
		return nil
	}
	out := make([]TextRun, len(rs))
	for i, r := range rs {
		out[i] = TextRun{
			Start:          r.Start,
			End:            r.End,
			Characters:     r.Characters,
			FontFamily:     r.FontFamily,
			FontStyle:      r.FontStyle,
			FontWeight:     r.FontWeight,
			FontSize:       r.FontSize,
			TextDecoration: r.TextDecoration,
		}
		for _, p := range r.Fills {
			if p.Visible != nil && !*p.Visible {
				continue
			}
			tp := Paint{Type: p.Type, Opacity: 1, ImageRef: p.ImageRef}
			if p.Opacity != nil {
				tp.Opacity = *p.Opacity
			}
			if p.Color != nil {
				tp.Color = Hex(*p.Color)
			}
			out[i].Fills = append(out[i].Fills, tp)
		}
	}
	return out
}

// Hex formats a color with unit channels as #RRGGBB. Alpha is carried by the
// paint opacity instead.
func Hex(c scene.Color) string {
	ch := func(v float64) int { return int(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return fmt.Sprintf("#%02X%02X%02X", ch(c.R), ch(c.G), ch(c.B))
}
