package dot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/autolayout/pkg/layout"
)

func sample() layout.Layout {
	return layout.Layout{
		Version: layout.Version,
		Root:    "stack",
		Nodes: []layout.Node{
			{
				ID: "stack", Kind: "frame", Children: []string{"a", "b"},
				Size: layout.Size{
					Width:  layout.Dimension{Mode: "fixed", Pixels: 100},
					Height: layout.Dimension{Mode: "hug"},
				},
				Flow: &layout.Flow{Mode: "vertical", ItemSpacing: 8, Inferred: true},
			},
			{
				ID: "a", Kind: "rectangle", Parent: "stack",
				Size: layout.Size{Width: layout.Dimension{Mode: "fill"}, Height: layout.Dimension{Mode: "fraction", Ratio: "1/2"}},
			},
			{
				ID: "b", Kind: "frame", Parent: "stack", Children: []string{"c"},
				Size: layout.Size{Width: layout.Dimension{Mode: "fill"}, Height: layout.Dimension{Mode: "fixed", Pixels: 40}},
			},
			{
				ID: "c", Kind: "ellipse", Parent: "b", Anchor: "manual", Offset: &layout.Offset{Left: 3, Top: 4},
				Placeholder: true,
			},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sample(), Options{})

	for _, want := range []string{
		"digraph layout {",
		`"stack" -> "a" [label="0"];`,
		`"stack" -> "b" [label="1"];`,
		`"b" -> "c";`,
		`w: 100px  h: hug`,
		`w: fill  h: 1/2`,
		`anchor: manual (3, 4)`,
		`vertical gap 8`,
		"style=\"rounded,filled,dashed\"",
		"style=\"rounded,filled,dotted\"",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "box:") {
		t.Error("geometry shown without Detailed")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sample(), Options{Detailed: true})
	if !strings.Contains(dot, "box: 0,0 0x0") || !strings.Contains(dot, "align: ") {
		t.Errorf("detailed DOT lacks geometry:\n%s", dot)
	}
}

func TestEmitters(t *testing.T) {
	var _ layout.Emitter = Emitter{}

	out, err := Emitter{}.Emit(sample())
	if err != nil || !bytes.HasPrefix(out, []byte("digraph")) {
		t.Fatalf("Emit = %q, %v", out, err)
	}

	svg, err := SVGEmitter{}.Emit(sample())
	if err != nil {
		t.Fatalf("SVG Emit: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("unexpected SVG header: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if out != want {
		t.Errorf("normalizeViewBox =\n%s\nwant\n%s", out, want)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("no viewBox changed: %s", got)
	}
}
