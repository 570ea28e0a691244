package layout

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/autolayout/pkg/anchor"
	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/infer"
	"github.com/matzehuels/autolayout/pkg/scene"
	"github.com/matzehuels/autolayout/pkg/sizing"
	"github.com/matzehuels/autolayout/pkg/tree"
)

func rect(id string, x, y, w, h float64) scene.Node {
	return scene.Node{ID: id, Name: "Layer " + id, Kind: scene.KindRectangle, X: x, Y: y, Width: w, Height: h}
}

func export(t *testing.T, cfg config.Config, nodes ...scene.Node) Layout {
	t.Helper()
	tr, err := tree.Build(context.Background(), nodes, cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tr, _ = infer.Apply(tr, cfg)
	return Export(tr, sizing.Resolve(tr, cfg), anchor.Classify(tr, cfg), cfg)
}

func card() scene.Node {
	red := scene.Color{R: 1, A: 1}
	a := rect("a", 0, 0, 25, 25)
	a.Fills = []scene.Paint{{Type: "SOLID", Color: &red}}
	return scene.Node{
		ID: "card", Name: "Card", Kind: scene.KindFrame, Width: 100, Height: 100,
		Children: []scene.Node{a, rect("b", 75, 0, 25, 25)},
	}
}

func TestExportAbsolute(t *testing.T) {
	l := export(t, config.Default(), card())

	if l.Root != "card" || l.Width != 100 || l.Height != 100 {
		t.Fatalf("header = %q %vx%v", l.Root, l.Width, l.Height)
	}
	if len(l.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(l.Nodes))
	}
	root := l.Nodes[0]
	if root.Flow != nil {
		t.Errorf("root flow = %+v, want none for distant siblings", root.Flow)
	}
	if root.Size.Width != (Dimension{Mode: "fixed", Pixels: 100, Rule: "root"}) {
		t.Errorf("root width = %+v", root.Size.Width)
	}
	if !reflect.DeepEqual(root.Children, []string{"a", "b"}) {
		t.Errorf("root children = %v", root.Children)
	}

	a, _ := l.Find("a")
	if a.Parent != "card" || a.Depth != 1 || a.Order != 0 {
		t.Errorf("a = parent %q depth %d order %d", a.Parent, a.Depth, a.Order)
	}
	if a.Size.Width.Mode != "fraction" || a.Size.Width.Ratio != "1/4" {
		t.Errorf("a width = %+v, want fraction 1/4", a.Size.Width)
	}
	if a.Anchor != "manual" || *a.Offset != (Offset{0, 0}) {
		t.Errorf("a anchor = %s %+v", a.Anchor, a.Offset)
	}
	if len(a.Style.Fills) != 1 || a.Style.Fills[0].Color != "#FF0000" {
		t.Errorf("a fills = %+v", a.Style.Fills)
	}
	if a.Name != "" {
		t.Errorf("name %q exported without LayerNames", a.Name)
	}

	b, _ := l.Find("b")
	if *b.Offset != (Offset{75, 0}) || b.Order != 1 {
		t.Errorf("b = offset %+v order %d", b.Offset, b.Order)
	}
	if kids := l.Children("card"); len(kids) != 2 || kids[1].ID != "b" {
		t.Errorf("Children(card) = %v", kids)
	}
}

func TestExportInferredFlow(t *testing.T) {
	stack := scene.Node{
		ID: "stack", Kind: scene.KindFrame, Width: 100, Height: 80,
		Children: []scene.Node{
			rect("a", 0, 0, 100, 20),
			rect("b", 0, 30, 100, 20),
			rect("c", 0, 60, 100, 20),
		},
	}
	l := export(t, config.Default(), stack)
	f := l.Nodes[0].Flow
	if f == nil {
		t.Fatal("no flow exported")
	}
	if f.Mode != "vertical" || f.ItemSpacing != 10 || !f.Inferred {
		t.Errorf("flow = %+v", f)
	}
	for _, n := range l.Nodes[1:] {
		if n.Anchor != "" || n.Offset != nil {
			t.Errorf("%s: flow child anchored %q", n.ID, n.Anchor)
		}
	}
}

func TestExportLayerNamesAndText(t *testing.T) {
	cfg := config.Default()
	cfg.LayerNames = true
	txt := scene.Node{
		ID: "t", Name: "Title", Kind: scene.KindText, Width: 80, Height: 24,
		Characters: "Hello", FontSize: 24, TextAutoResize: "WIDTH_AND_HEIGHT",
	}
	l := export(t, cfg, txt)
	n := l.Nodes[0]
	if n.Name != "Title" {
		t.Errorf("Name = %q", n.Name)
	}
	if n.Text == nil || n.Text.Characters != "Hello" || n.Text.FontSizeRem != 1.5 {
		t.Errorf("Text = %+v", n.Text)
	}
	if n.Size.Width.Mode != "hug" {
		t.Errorf("auto-resizing text width = %+v", n.Size.Width)
	}
}

func TestExportEmpty(t *testing.T) {
	l := export(t, config.Default())
	if !l.Empty() || l.Root != "" {
		t.Errorf("empty selection exported %+v", l)
	}
	data, err := Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"nodes": []`) {
		t.Errorf("empty layout JSON = %s", data)
	}
}

func TestPrecision(t *testing.T) {
	cfg := config.Default()
	cfg.Precision = 1
	l := export(t, cfg, rect("r", 0.04, 0, 10.26, 3.33))
	if n := l.Nodes[0]; n.Width != 10.3 || n.Height != 3.3 || n.X != 0 {
		t.Errorf("rounded box = %v,%v %vx%v", n.X, n.Y, n.Width, n.Height)
	}
}

func TestFileRoundTrip(t *testing.T) {
	want := export(t, config.Default(), card())
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteFile(want, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", `{"nodes": [`},
		{"no root", `{"nodes": [{"id": "a"}]}`},
		{"unknown root", `{"root": "x", "nodes": [{"id": "a"}]}`},
		{"newer version", `{"version": 99}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		c    scene.Color
		want string
	}{
		{scene.Color{}, "#000000"},
		{scene.Color{R: 1, G: 1, B: 1}, "#FFFFFF"},
		{scene.Color{R: 0.5, G: 2, B: -1}, "#80FF00"},
	}
	for _, tt := range tests {
		if got := Hex(tt.c); got != tt.want {
			t.Errorf("Hex(%+v) = %s, want %s", tt.c, got, tt.want)
		}
	}
}
