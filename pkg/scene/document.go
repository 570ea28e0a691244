package scene

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/autolayout/pkg/errors"
)

// Format identifies the encoding of a scene document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is a decoded scene selection plus optional pre-segmented text.
// It implements both Source and TextSegmenter, which makes it the collaborator
// used by the CLI, the HTTP shell and tests.
type Document struct {
	Nodes    []Node               `json:"nodes" yaml:"nodes"`
	TextRuns map[string][]TextRun `json:"textRuns,omitempty" yaml:"textRuns,omitempty"`
}

// Read returns the document's top-level nodes.
func (d *Document) Read(ctx context.Context) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Nodes, nil
}

// Segments returns the pre-segmented runs of a text node, or nil when the
// document carries none for it.
func (d *Document) Segments(ctx context.Context, nodeID string) ([]TextRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.TextRuns[nodeID], nil
}

// Count returns the number of nodes in the document, descendants included.
func (d *Document) Count() int {
	var count func([]Node) int
	count = func(ns []Node) int {
		n := len(ns)
		for i := range ns {
			n += count(ns[i].Children)
		}
		return n
	}
	return count(d.Nodes)
}

// Validate checks node identifiers. Geometry is never rejected here; the
// tree builder resolves odd geometry to conservative defaults.
func (d *Document) Validate() error {
	var walk func([]Node) error
	walk = func(ns []Node) error {
		for i := range ns {
			if err := errors.ValidateNodeID(ns[i].ID); err != nil {
				return err
			}
			if err := walk(ns[i].Children); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(d.Nodes)
}

// ReadFile reads and decodes a scene document from disk.
func ReadFile(path string) (*Document, error) {
	if err := errors.ValidateScenePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene document %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeSourceUnreadable, err, "read %s", path)
	}
	return Decode(data, FormatFromPath(path))
}

// Decode parses a scene document in any of its three shapes and validates
// its node identifiers.
func Decode(data []byte, format Format) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch format {
	case FormatYAML:
		doc, err = decodeYAML(data)
	case FormatJSON, "":
		doc, err = decodeJSON(data)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported document format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode %s document", format)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Encode writes a document in the given format.
func Encode(doc *Document, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func decodeJSON(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidScene, "empty document")
	}

	if trimmed[0] == '[' {
		var nodes []Node
		if err := json.Unmarshal(trimmed, &nodes); err != nil {
			return nil, err
		}
		return &Document{Nodes: nodes}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, err
	}
	if _, ok := probe["nodes"]; ok {
		var doc Document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	}

	var n Node
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return nil, err
	}
	return &Document{Nodes: []Node{n}}, nil
}

func decodeYAML(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidScene, "empty document")
	}
	top := root.Content[0]

	switch top.Kind {
	case yaml.SequenceNode:
		var nodes []Node
		if err := top.Decode(&nodes); err != nil {
			return nil, err
		}
		return &Document{Nodes: nodes}, nil
	case yaml.MappingNode:
		if hasKey(top, "nodes") {
			var doc Document
			if err := top.Decode(&doc); err != nil {
				return nil, err
			}
			return &doc, nil
		}
		var n Node
		if err := top.Decode(&n); err != nil {
			return nil, err
		}
		return &Document{Nodes: []Node{n}}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidScene, "expected a node, a node list or a document at line %d", top.Line)
	}
}

func hasKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return true
		}
	}
	return false
}
