package scene

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/autolayout/pkg/errors"
)

func TestDecodeShapes(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
		want   int
	}{
		{"json single", `{"id":"1:1","type":"RECTANGLE","width":10,"height":10}`, FormatJSON, 1},
		{"json list", `[{"id":"1:1","type":"RECTANGLE"},{"id":"1:2","type":"TEXT"}]`, FormatJSON, 2},
		{"json document", `{"nodes":[{"id":"1:1","type":"FRAME","children":[{"id":"1:2","type":"TEXT"}]}]}`, FormatJSON, 1},
		{"yaml single", "id: '1:1'\ntype: RECTANGLE\nwidth: 10\n", FormatYAML, 1},
		{"yaml list", "- id: a\n  type: RECTANGLE\n- id: b\n  type: ELLIPSE\n", FormatYAML, 2},
		{"yaml document", "nodes:\n  - id: a\n    type: FRAME\n", FormatYAML, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(doc.Nodes) != tt.want {
				t.Errorf("got %d top-level nodes, want %d", len(doc.Nodes), tt.want)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"empty", "   ", errors.ErrCodeInvalidScene},
		{"garbage", "{not json", errors.ErrCodeInvalidScene},
		{"missing id", `{"type":"RECTANGLE"}`, errors.ErrCodeInvalidScene},
		{"bad radius", `{"id":"a","type":"RECTANGLE","cornerRadius":"round"}`, errors.ErrCodeInvalidScene},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), FormatJSON)
			if !errors.Is(err, tt.code) {
				t.Errorf("Decode() error = %v, want code %s", err, tt.code)
			}
		})
	}

	if _, err := Decode([]byte("{}"), "toml"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("unknown format error = %v", err)
	}
}

func TestCornerRadius(t *testing.T) {
	var n Node
	if err := json.Unmarshal([]byte(`{"id":"a","cornerRadius":"mixed","topLeftRadius":4}`), &n); err != nil {
		t.Fatal(err)
	}
	if !n.CornerRadius.Mixed || n.TopLeftRadius != 4 {
		t.Errorf("mixed radius not decoded: %+v", n.CornerRadius)
	}

	if err := json.Unmarshal([]byte(`{"id":"a","cornerRadius":8}`), &n); err != nil {
		t.Fatal(err)
	}
	if n.CornerRadius.Mixed || n.CornerRadius.Value != 8 {
		t.Errorf("uniform radius = %+v", n.CornerRadius)
	}

	out, err := json.Marshal(CornerRadius{Mixed: true})
	if err != nil || string(out) != `"mixed"` {
		t.Errorf("Marshal(mixed) = %s, %v", out, err)
	}

	doc, err := Decode([]byte("id: a\ntype: RECTANGLE\ncornerRadius: mixed\n"), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Nodes[0].CornerRadius.Mixed {
		t.Error("yaml mixed radius not decoded")
	}
}

func TestVisibilityDefaults(t *testing.T) {
	var n Node
	if !n.IsVisible() || n.OpacityOr() != 1 {
		t.Error("absent visibility/opacity should default to visible and opaque")
	}
	hidden := false
	n.Visible = &hidden
	if n.IsVisible() {
		t.Error("explicitly hidden node reported visible")
	}
}

func TestDocumentCollaborators(t *testing.T) {
	doc := &Document{
		Nodes:    []Node{{ID: "t", Kind: KindText, Characters: "Hi"}},
		TextRuns: map[string][]TextRun{"t": {{Start: 0, End: 2, Characters: "Hi"}}},
	}
	ctx := context.Background()

	nodes, err := doc.Read(ctx)
	if err != nil || len(nodes) != 1 {
		t.Fatalf("Read() = %v, %v", nodes, err)
	}
	runs, err := doc.Segments(ctx, "t")
	if err != nil || len(runs) != 1 {
		t.Fatalf("Segments() = %v, %v", runs, err)
	}
	if runs, _ := doc.Segments(ctx, "missing"); runs != nil {
		t.Errorf("unknown node runs = %v", runs)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := doc.Read(cancelled); err == nil {
		t.Error("Read should honor cancellation")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.yaml")
	body := "nodes:\n  - id: f\n    type: FRAME\n    width: 100\n    height: 100\n    children:\n      - id: r\n        type: RECTANGLE\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if doc.Count() != 2 {
		t.Errorf("Count() = %d, want 2", doc.Count())
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
	if _, err := ReadFile(filepath.Join(dir, "scene.txt")); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("bad extension error = %v", err)
	}
}

func TestKindIsFrameLike(t *testing.T) {
	for _, k := range []Kind{KindFrame, KindComponent, KindComponentSet, KindInstance, KindSection} {
		if !k.IsFrameLike() {
			t.Errorf("%s should be frame-like", k)
		}
	}
	for _, k := range []Kind{KindGroup, KindRectangle, KindText, KindLine} {
		if k.IsFrameLike() {
			t.Errorf("%s should not be frame-like", k)
		}
	}
}
