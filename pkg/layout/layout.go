// Package layout defines the serialization format handed to code emitters.
//
// A [Layout] is the normalized tree flattened in pre-order, with the resolved
// width and height policy, the anchor and the (possibly inferred) flow
// settings attached to every node. Emitters translate these decisions into
// target syntax; they never re-derive sizing or anchoring themselves.
//
// Layouts are persisted as JSON (files, HTTP responses, cache entries) and as
// BSON (MongoDB cache backend); both tag sets are kept in sync.
package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// Version is the current format version.
const Version = 1

// Layout is the complete output of one conversion.
type Layout struct {
	Version      int     `json:"version" bson:"version"`
	RunID        string  `json:"run_id,omitempty" bson:"run_id,omitempty"`
	Root         string  `json:"root,omitempty" bson:"root,omitempty"`
	Width        float64 `json:"width" bson:"width"`
	Height       float64 `json:"height" bson:"height"`
	BaseFontSize float64 `json:"base_font_size" bson:"base_font_size"`
	Nodes        []Node  `json:"nodes" bson:"nodes"` // pre-order
}

// Node is one normalized node with its resolved policies.
type Node struct {
	ID       string   `json:"id" bson:"id"`
	Name     string   `json:"name,omitempty" bson:"name,omitempty"`
	Kind     string   `json:"kind" bson:"kind"`
	Parent   string   `json:"parent,omitempty" bson:"parent,omitempty"`
	Depth    int      `json:"depth" bson:"depth"`
	Order    int      `json:"order" bson:"order"` // index among siblings
	Children []string `json:"children,omitempty" bson:"children,omitempty"`

	X        float64 `json:"x" bson:"x"`
	Y        float64 `json:"y" bson:"y"`
	Width    float64 `json:"width" bson:"width"`
	Height   float64 `json:"height" bson:"height"`
	Rotation float64 `json:"rotation,omitempty" bson:"rotation,omitempty"`

	Size   Size    `json:"size" bson:"size"`
	Anchor string  `json:"anchor,omitempty" bson:"anchor,omitempty"`
	Offset *Offset `json:"offset,omitempty" bson:"offset,omitempty"`

	Flow       *Flow  `json:"flow,omitempty" bson:"flow,omitempty"`
	Style      Style  `json:"style" bson:"style"`
	Background *Style `json:"background,omitempty" bson:"background,omitempty"`
	Text       *Text  `json:"text,omitempty" bson:"text,omitempty"`

	Grow        bool `json:"grow,omitempty" bson:"grow,omitempty"`
	Stretch     bool `json:"stretch,omitempty" bson:"stretch,omitempty"`
	Placeholder bool `json:"placeholder,omitempty" bson:"placeholder,omitempty"`
	Synthetic   bool `json:"synthetic,omitempty" bson:"synthetic,omitempty"`
}

// Size holds the resolved width and height policies.
type Size struct {
	Width  Dimension `json:"width" bson:"width"`
	Height Dimension `json:"height" bson:"height"`
}

// Dimension is a resolved sizing policy along one axis.
type Dimension struct {
	Mode   string  `json:"mode" bson:"mode"` // fixed, fill, hug, fraction
	Pixels float64 `json:"pixels,omitempty" bson:"pixels,omitempty"`
	Ratio  string  `json:"ratio,omitempty" bson:"ratio,omitempty"`
	Rule   string  `json:"rule,omitempty" bson:"rule,omitempty"`
}

// Offset is a manual position from the parent's content-box origin.
type Offset struct {
	Left float64 `json:"left" bson:"left"`
	Top  float64 `json:"top" bson:"top"`
}

// Flow is the auto-layout of a container.
type Flow struct {
	Mode          string  `json:"mode" bson:"mode"`
	ItemSpacing   float64 `json:"item_spacing" bson:"item_spacing"`
	Padding       Padding `json:"padding" bson:"padding"`
	PrimaryAlign  string  `json:"primary_align" bson:"primary_align"`
	CounterAlign  string  `json:"counter_align" bson:"counter_align"`
	PrimarySizing string  `json:"primary_sizing" bson:"primary_sizing"`
	CounterSizing string  `json:"counter_sizing" bson:"counter_sizing"`
	Inferred      bool    `json:"inferred,omitempty" bson:"inferred,omitempty"`
}

// Padding is a content inset.
type Padding struct {
	Top    float64 `json:"top" bson:"top"`
	Right  float64 `json:"right" bson:"right"`
	Bottom float64 `json:"bottom" bson:"bottom"`
	Left   float64 `json:"left" bson:"left"`
}

// Style is the visual styling of a node.
type Style struct {
	Fills        []Paint  `json:"fills,omitempty" bson:"fills,omitempty"`
	Strokes      []Paint  `json:"strokes,omitempty" bson:"strokes,omitempty"`
	StrokeWeight float64  `json:"stroke_weight,omitempty" bson:"stroke_weight,omitempty"`
	StrokeAlign  string   `json:"stroke_align,omitempty" bson:"stroke_align,omitempty"`
	Radius       *Radius  `json:"radius,omitempty" bson:"radius,omitempty"`
	Effects      []Effect `json:"effects,omitempty" bson:"effects,omitempty"`
	Opacity      float64  `json:"opacity" bson:"opacity"`
}

// Paint is a fill or stroke.
type Paint struct {
	Type     string  `json:"type" bson:"type"`
	Color    string  `json:"color,omitempty" bson:"color,omitempty"` // #RRGGBB
	Opacity  float64 `json:"opacity" bson:"opacity"`
	ImageRef string  `json:"image_ref,omitempty" bson:"image_ref,omitempty"`
	Stops    []Stop  `json:"stops,omitempty" bson:"stops,omitempty"`
}

// Stop is a gradient stop.
type Stop struct {
	Position float64 `json:"position" bson:"position"`
	Color    string  `json:"color" bson:"color"`
}

// Radius is a uniform radius or four corner radii.
type Radius struct {
	Uniform     float64 `json:"uniform,omitempty" bson:"uniform,omitempty"`
	TopLeft     float64 `json:"top_left,omitempty" bson:"top_left,omitempty"`
	TopRight    float64 `json:"top_right,omitempty" bson:"top_right,omitempty"`
	BottomRight float64 `json:"bottom_right,omitempty" bson:"bottom_right,omitempty"`
	BottomLeft  float64 `json:"bottom_left,omitempty" bson:"bottom_left,omitempty"`
	Varying     bool    `json:"varying,omitempty" bson:"varying,omitempty"`
}

// Effect is a shadow or blur.
type Effect struct {
	Type    string  `json:"type" bson:"type"`
	Radius  float64 `json:"radius,omitempty" bson:"radius,omitempty"`
	Spread  float64 `json:"spread,omitempty" bson:"spread,omitempty"`
	Color   string  `json:"color,omitempty" bson:"color,omitempty"`
	OffsetX float64 `json:"offset_x,omitempty" bson:"offset_x,omitempty"`
	OffsetY float64 `json:"offset_y,omitempty" bson:"offset_y,omitempty"`
}

// Text is the payload of text nodes.
type Text struct {
	Characters  string    `json:"characters" bson:"characters"`
	FontSize    float64   `json:"font_size,omitempty" bson:"font_size,omitempty"`
	FontSizeRem float64   `json:"font_size_rem,omitempty" bson:"font_size_rem,omitempty"`
	AutoResize  string    `json:"auto_resize,omitempty" bson:"auto_resize,omitempty"`
	AlignH      string    `json:"align_h,omitempty" bson:"align_h,omitempty"`
	AlignV      string    `json:"align_v,omitempty" bson:"align_v,omitempty"`
	Runs        []TextRun `json:"runs,omitempty" bson:"runs,omitempty"`
}

// TextRun is one styled span of a text node, passed through opaquely.
type TextRun struct {
	Start          int     `json:"start" bson:"start"`
	End            int     `json:"end" bson:"end"`
	Characters     string  `json:"characters" bson:"characters"`
	FontFamily     string  `json:"font_family,omitempty" bson:"font_family,omitempty"`
	FontStyle      string  `json:"font_style,omitempty" bson:"font_style,omitempty"`
	FontWeight     int     `json:"font_weight,omitempty" bson:"font_weight,omitempty"`
	FontSize       float64 `json:"font_size,omitempty" bson:"font_size,omitempty"`
	TextDecoration string  `json:"text_decoration,omitempty" bson:"text_decoration,omitempty"`
	Fills          []Paint `json:"fills,omitempty" bson:"fills,omitempty"`
}

// Emitter turns a layout into target code. Implementations must not
// re-derive sizing or anchoring.
type Emitter interface {
	Emit(l Layout) ([]byte, error)
}

// Find returns the node with the given id.
func (l *Layout) Find(id string) (*Node, bool) {
	for i := range l.Nodes {
		if l.Nodes[i].ID == id {
			return &l.Nodes[i], true
		}
	}
	return nil, false
}

// Children returns the children of id in flow order.
func (l *Layout) Children(id string) []*Node {
	n, ok := l.Find(id)
	if !ok {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if cn, ok := l.Find(c); ok {
			out = append(out, cn)
		}
	}
	return out
}

// Empty reports whether the layout holds no nodes.
func (l *Layout) Empty() bool { return len(l.Nodes) == 0 }

// =============================================================================
// Serialization API
// =============================================================================

// Marshal serializes a Layout to pretty-printed JSON bytes.
func Marshal(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Unmarshal deserializes JSON bytes into a Layout and checks that it is
// structurally usable.
func Unmarshal(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Version == 0 {
		l.Version = Version
	}
	if l.Version > Version {
		return Layout{}, fmt.Errorf("layout version %d is newer than supported version %d", l.Version, Version)
	}
	if len(l.Nodes) > 0 {
		if l.Root == "" {
			return Layout{}, fmt.Errorf("layout with nodes must name its root")
		}
		if _, ok := l.Find(l.Root); !ok {
			return Layout{}, fmt.Errorf("root %q not among nodes", l.Root)
		}
	}
	return l, nil
}

// WriteFile writes a Layout to a JSON file.
func WriteFile(l Layout, path string) error {
	data, err := Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a Layout from a JSON file.
func ReadFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
