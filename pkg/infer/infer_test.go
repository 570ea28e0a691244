package infer

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/scene"
	"github.com/matzehuels/autolayout/pkg/tree"
)

func rect(id string, x, y, w, h float64) scene.Node {
	return scene.Node{ID: id, Kind: scene.KindRectangle, X: x, Y: y, Width: w, Height: h}
}

func build(t *testing.T, w, h float64, children ...scene.Node) *tree.Tree {
	t.Helper()
	root := scene.Node{ID: "root", Kind: scene.KindFrame, Width: w, Height: h, Children: children}
	tr, err := tree.Build(context.Background(), []scene.Node{root}, config.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tr
}

func ids(t *tree.Tree, refs []tree.Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = t.Node(r).ID
	}
	return out
}

func TestGapUniformityRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		ys      [3]float64
		want    tree.LayoutMode
		spacing float64
	}{
		{"equal gaps", [3]float64{0, 20, 40}, tree.LayoutVertical, 10},
		{"gap within tolerance", [3]float64{0, 20, 41}, tree.LayoutVertical, 10.5},
		{"gap outside tolerance", [3]float64{0, 20, 70}, tree.LayoutNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := build(t, 100, 100,
				rect("a", 0, tt.ys[0], 10, 10),
				rect("b", 0, tt.ys[1], 10, 10),
				rect("c", 0, tt.ys[2], 10, 10),
			)
			out, rep := Apply(tr, config.Default())
			c := out.Node(out.Root()).Container
			if c.LayoutMode != tt.want {
				t.Fatalf("LayoutMode = %s, want %s (%+v)", c.LayoutMode, tt.want, rep.Decisions)
			}
			if c.ItemSpacing != tt.spacing {
				t.Errorf("ItemSpacing = %v, want %v", c.ItemSpacing, tt.spacing)
			}
			if tt.want != tree.LayoutNone && !c.Inferred {
				t.Error("inferred stack not flagged")
			}
		})
	}
}

func TestDegenerateSiblingIgnoredInGaps(t *testing.T) {
	tr := build(t, 100, 100,
		rect("a", 0, 0, 10, 10),
		rect("rule", 0, 15, 10, 0),
		rect("b", 0, 20, 10, 10),
		rect("c", 0, 40, 10, 10),
	)
	if d := tr.Dropped(); len(d) != 1 || d[0].ID != "rule" || d[0].Reason != tree.ReasonDegenerate {
		t.Fatalf("Dropped = %+v", d)
	}
	out, rep := Apply(tr, config.Default())
	c := out.Node(out.Root()).Container
	if c.LayoutMode != tree.LayoutVertical || c.ItemSpacing != 10 {
		t.Fatalf("mode=%s spacing=%v (%+v)", c.LayoutMode, c.ItemSpacing, rep.Decisions)
	}
	if got := strings.Join(ids(out, c.Children), ","); got != "a,b,c" {
		t.Errorf("flow order = %s, want a,b,c", got)
	}
}

func TestHorizontalRow(t *testing.T) {
	tr := build(t, 100, 20,
		rect("c", 60, 0, 20, 20),
		rect("a", 0, 0, 20, 20),
		rect("b", 30, 0, 20, 20),
	)
	out, rep := Apply(tr, config.Default())
	c := out.Node(out.Root()).Container
	if c.LayoutMode != tree.LayoutHorizontal || c.ItemSpacing != 10 {
		t.Fatalf("mode=%s spacing=%v", c.LayoutMode, c.ItemSpacing)
	}
	if got := strings.Join(ids(out, c.Children), ","); got != "a,b,c" {
		t.Errorf("flow order = %s, want a,b,c", got)
	}
	if c.Padding != (tree.Padding{Right: 20}) {
		t.Errorf("padding = %+v", c.Padding)
	}
	if rep.Stacks() != 1 {
		t.Errorf("Stacks() = %d", rep.Stacks())
	}
	if !strings.Contains(rep.Decisions[0].Reason, ReasonUniformGaps) {
		t.Errorf("reason = %q", rep.Decisions[0].Reason)
	}
}

func TestTwoDistantChildrenStayAbsolute(t *testing.T) {
	tr := build(t, 100, 100, rect("a", 0, 0, 25, 25), rect("b", 75, 0, 25, 25))
	out, rep := Apply(tr, config.Default())
	if m := out.Node(out.Root()).Container.LayoutMode; m != tree.LayoutNone {
		t.Fatalf("LayoutMode = %s, want none", m)
	}
	reason := rep.Decisions[0].Reason
	if !strings.Contains(reason, ReasonOverlap) || !strings.Contains(reason, ReasonWideGap) {
		t.Errorf("reason = %q", reason)
	}
}

func TestSingleGapAdjacentChildren(t *testing.T) {
	tr := build(t, 100, 100, rect("a", 0, 0, 40, 20), rect("b", 0, 28, 40, 20))
	out, _ := Apply(tr, config.Default())
	c := out.Node(out.Root()).Container
	if c.LayoutMode != tree.LayoutVertical || c.ItemSpacing != 8 {
		t.Errorf("mode=%s spacing=%v", c.LayoutMode, c.ItemSpacing)
	}
}

func TestBackgroundAbsorptionOrderIndependent(t *testing.T) {
	a := rect("A", 0, 0, 200, 200)
	b := rect("B", 20, 20, 50, 50)

	for _, order := range [][]scene.Node{{a, b}, {b, a}} {
		tr := build(t, 200, 200, order...)
		out, rep := Apply(tr, config.Default())
		c := out.Node(out.Root()).Container
		if c.Background == nil || out.Node(*c.Background).ID != "A" {
			t.Fatalf("order %s,%s: background not absorbed", order[0].ID, order[1].ID)
		}
		if got := ids(out, c.Children); len(got) != 1 || got[0] != "B" {
			t.Errorf("remaining children = %v", got)
		}
		if c.LayoutMode != tree.LayoutNone || rep.Decisions[0].Reason != ReasonTooFew {
			t.Errorf("mode=%s reason=%q", c.LayoutMode, rep.Decisions[0].Reason)
		}
		if err := out.Validate(); err != nil {
			t.Error(err)
		}
	}
}

func TestBackgroundThenStack(t *testing.T) {
	tr := build(t, 120, 120,
		rect("card", 0, 0, 120, 120),
		rect("title", 10, 10, 100, 20),
		rect("body", 10, 40, 100, 20),
		rect("footer", 10, 70, 100, 20),
	)
	out, rep := Apply(tr, config.Default())
	c := out.Node(out.Root()).Container
	if rep.Absorbed() != 1 || c.LayoutMode != tree.LayoutVertical {
		t.Fatalf("absorbed=%d mode=%s", rep.Absorbed(), c.LayoutMode)
	}
	if c.Padding != (tree.Padding{Top: 10, Right: 10, Bottom: 30, Left: 10}) {
		t.Errorf("padding = %+v", c.Padding)
	}
}

func TestAmbiguousBackground(t *testing.T) {
	tr := build(t, 100, 100, rect("a", 0, 0, 100, 100), rect("b", 0, 0, 100, 100))
	out, rep := Apply(tr, config.Default())
	if c := out.Node(out.Root()).Container; c.Background != nil {
		t.Error("two enclosing rectangles must not be absorbed")
	}
	if rep.Absorbed() != 0 {
		t.Errorf("Absorbed() = %d", rep.Absorbed())
	}
}

func TestCounterAlignment(t *testing.T) {
	tests := []struct {
		name string
		kids []scene.Node
		want tree.Align
	}{
		{"left", []scene.Node{
			rect("a", 10, 10, 80, 10), rect("b", 10, 30, 40, 10), rect("c", 10, 50, 20, 10),
		}, tree.AlignMin},
		{"centered", []scene.Node{
			rect("a", 10, 10, 80, 10), rect("b", 30, 30, 40, 10), rect("c", 40, 50, 20, 10),
		}, tree.AlignCenter},
		{"right", []scene.Node{
			rect("a", 10, 10, 80, 10), rect("b", 50, 30, 40, 10), rect("c", 70, 50, 20, 10),
		}, tree.AlignMax},
		{"tie", []scene.Node{
			rect("a", 10, 10, 80, 10), rect("b", 10, 30, 40, 10), rect("c", 70, 50, 20, 10),
		}, tree.AlignCenter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := Apply(build(t, 100, 100, tt.kids...), config.Default())
			c := out.Node(out.Root()).Container
			if c.LayoutMode != tree.LayoutVertical {
				t.Fatalf("mode = %s", c.LayoutMode)
			}
			if c.CounterAlign != tt.want {
				t.Errorf("CounterAlign = %s, want %s", c.CounterAlign, tt.want)
			}
		})
	}
}

func TestPrimaryCenter(t *testing.T) {
	out, _ := Apply(build(t, 100, 100, rect("a", 0, 35, 100, 10), rect("b", 0, 55, 100, 10)), config.Default())
	c := out.Node(out.Root()).Container
	if c.PrimaryAlign != tree.AlignCenter {
		t.Errorf("PrimaryAlign = %s, want center", c.PrimaryAlign)
	}
}

func TestApplyLeavesInputAlone(t *testing.T) {
	tr := build(t, 100, 100, rect("a", 0, 0, 10, 10), rect("b", 0, 20, 10, 10))
	Apply(tr, config.Default())
	if m := tr.Node(tr.Root()).Container.LayoutMode; m != tree.LayoutNone {
		t.Errorf("input mutated: mode = %s", m)
	}
}

func TestDeclaredAndDisabled(t *testing.T) {
	root := scene.Node{
		ID: "root", Kind: scene.KindFrame, Width: 100, Height: 100, LayoutMode: "HORIZONTAL",
		Children: []scene.Node{rect("a", 0, 0, 10, 10), rect("b", 0, 20, 10, 10)},
	}
	tr, err := tree.Build(context.Background(), []scene.Node{root}, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	out, rep := Apply(tr, config.Default())
	if len(rep.Decisions) != 0 || out.Node(out.Root()).Container.LayoutMode != tree.LayoutHorizontal {
		t.Error("declared layout should not be re-inferred")
	}

	cfg := config.Default()
	cfg.InferAutoLayout = false
	_, rep = Apply(build(t, 100, 100, rect("a", 0, 0, 10, 10), rect("b", 0, 20, 10, 10)), cfg)
	if len(rep.Decisions) != 0 {
		t.Error("disabled inference still made decisions")
	}
}
