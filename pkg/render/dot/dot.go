package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/autolayout/pkg/layout"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds geometry, padding and spacing to labels.
	Detailed bool
}

// ToDOT converts a layout into Graphviz DOT source. Edges run from parent to
// child in flow order.
func ToDOT(l layout.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph layout {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("\n")

	for _, n := range l.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, n := range l.Nodes {
		for i, c := range n.Children {
			if n.Flow != nil {
				fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\"];\n", n.ID, c, i)
			} else {
				fmt.Fprintf(&buf, "  %q -> %q;\n", n.ID, c)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n layout.Node, detailed bool) string {
	lines := []string{n.ID, n.Kind}
	lines = append(lines, fmt.Sprintf("w: %s  h: %s", fmtDim(n.Size.Width), fmtDim(n.Size.Height)))
	if n.Anchor != "" {
		anchor := n.Anchor
		if n.Anchor == "manual" && n.Offset != nil {
			anchor += fmt.Sprintf(" (%g, %g)", n.Offset.Left, n.Offset.Top)
		}
		lines = append(lines, "anchor: "+anchor)
	}
	if f := n.Flow; f != nil {
		lines = append(lines, fmt.Sprintf("%s gap %g", f.Mode, f.ItemSpacing))
	}
	if detailed {
		lines = append(lines, fmt.Sprintf("box: %g,%g %gx%g", n.X, n.Y, n.Width, n.Height))
		if f := n.Flow; f != nil {
			p := f.Padding
			lines = append(lines, fmt.Sprintf("pad: %g %g %g %g", p.Top, p.Right, p.Bottom, p.Left))
			lines = append(lines, fmt.Sprintf("align: %s / %s", f.PrimaryAlign, f.CounterAlign))
		}
		if n.Background != nil {
			lines = append(lines, "background absorbed")
		}
	}
	return strings.Join(lines, "\n")
}

func fmtDim(d layout.Dimension) string {
	switch d.Mode {
	case "fixed":
		return fmt.Sprintf("%gpx", d.Pixels)
	case "fraction":
		return d.Ratio
	default:
		return d.Mode
	}
}

func fmtAttrs(n layout.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	switch {
	case n.Flow != nil && n.Flow.Inferred:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightcyan")
	case n.Flow != nil:
		attrs = append(attrs, "fillcolor=lightblue")
	case n.Placeholder:
		attrs = append(attrs, "style=\"rounded,filled,dotted\"", "fillcolor=lightgrey")
	case n.Synthetic:
		attrs = append(attrs, "style=\"rounded,dashed\"")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with a plain
// viewBox so the picture scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// Emitter emits DOT source.
type Emitter struct{ Options Options }

// Emit implements layout.Emitter.
func (e Emitter) Emit(l layout.Layout) ([]byte, error) {
	return []byte(ToDOT(l, e.Options)), nil
}

// SVGEmitter emits the rendered SVG.
type SVGEmitter struct{ Options Options }

// Emit implements layout.Emitter.
func (e SVGEmitter) Emit(l layout.Layout) ([]byte, error) {
	return RenderSVG(ToDOT(l, e.Options))
}

var (
	_ layout.Emitter = Emitter{}
	_ layout.Emitter = SVGEmitter{}
)
