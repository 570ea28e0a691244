// Package scene defines the input boundary of autolayout: the source scene
// graph exactly as a design host exposes it.
//
// Source nodes are heterogeneous. Which fields are meaningful depends on the
// node type: containers carry children and auto-layout settings, text nodes
// carry characters and typography, shapes carry neither. Nothing here is
// normalized; that is the job of package tree.
//
// # Coordinates
//
// X and Y are relative to the nearest frame-like ancestor (FRAME, COMPONENT,
// COMPONENT_SET, INSTANCE, SECTION). Children of a GROUP share the group's
// own coordinate space, as in the hosts this format mirrors. Rotation is in
// degrees, counter-clockwise, about the node's origin.
//
// # Documents
//
// A document is JSON or YAML in one of three shapes: a single node object, a
// list of nodes (a multi-node selection), or an object with a "nodes" list
// and optional "textRuns" keyed by node id.
package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the discriminant of a source node.
type Kind string

// Node kinds understood by the tree builder. Any other value is unsupported
// and dropped during normalization.
const (
	KindRectangle      Kind = "RECTANGLE"
	KindEllipse        Kind = "ELLIPSE"
	KindFrame          Kind = "FRAME"
	KindGroup          Kind = "GROUP"
	KindText           Kind = "TEXT"
	KindComponent      Kind = "COMPONENT"
	KindComponentSet   Kind = "COMPONENT_SET"
	KindInstance       Kind = "INSTANCE"
	KindSection        Kind = "SECTION"
	KindLine           Kind = "LINE"
	KindVector         Kind = "VECTOR"
	KindStar           Kind = "STAR"
	KindPolygon        Kind = "POLYGON"
	KindBooleanOp      Kind = "BOOLEAN_OPERATION"
	KindSlice          Kind = "SLICE"
	KindSticky         Kind = "STICKY"
	KindConnector      Kind = "CONNECTOR"
	KindShapeWithText  Kind = "SHAPE_WITH_TEXT"
	KindCodeBlock      Kind = "CODE_BLOCK"
	KindStamp          Kind = "STAMP"
	KindWidget         Kind = "WIDGET"
	KindEmbed          Kind = "EMBED"
	KindLinkUnfurl     Kind = "LINK_UNFURL"
	KindMedia          Kind = "MEDIA"
	KindHighlight      Kind = "HIGHLIGHT"
	KindWashiTape      Kind = "WASHI_TAPE"
	KindTable          Kind = "TABLE"
	KindTableCell      Kind = "TABLE_CELL"
	KindDocument       Kind = "DOCUMENT"
	KindPage           Kind = "PAGE"
	KindTextPath       Kind = "TEXT_PATH"
	KindTransformGroup Kind = "TRANSFORM_GROUP"
)

// IsFrameLike reports whether nodes of this kind establish a coordinate space
// and may declare auto-layout.
func (k Kind) IsFrameLike() bool {
	switch k {
	case KindFrame, KindComponent, KindComponentSet, KindInstance, KindSection:
		return true
	}
	return false
}

// Color is an RGBA color with channels in [0, 1].
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
	A float64 `json:"a" yaml:"a"`
}

// ColorStop is one stop of a gradient paint.
type ColorStop struct {
	Position float64 `json:"position" yaml:"position"`
	Color    Color   `json:"color" yaml:"color"`
}

// Paint is one entry of a fill or stroke list.
type Paint struct {
	Type          string      `json:"type" yaml:"type"` // SOLID, GRADIENT_LINEAR, IMAGE, ...
	Color         *Color      `json:"color,omitempty" yaml:"color,omitempty"`
	Opacity       *float64    `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Visible       *bool       `json:"visible,omitempty" yaml:"visible,omitempty"`
	ImageRef      string      `json:"imageRef,omitempty" yaml:"imageRef,omitempty"`
	GradientStops []ColorStop `json:"gradientStops,omitempty" yaml:"gradientStops,omitempty"`
}

// Vector is a 2D offset.
type Vector struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Effect is a shadow or blur.
type Effect struct {
	Type    string  `json:"type" yaml:"type"` // DROP_SHADOW, INNER_SHADOW, LAYER_BLUR, BACKGROUND_BLUR
	Radius  float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
	Spread  float64 `json:"spread,omitempty" yaml:"spread,omitempty"`
	Color   *Color  `json:"color,omitempty" yaml:"color,omitempty"`
	Offset  *Vector `json:"offset,omitempty" yaml:"offset,omitempty"`
	Visible *bool   `json:"visible,omitempty" yaml:"visible,omitempty"`
}

// Node is one source scene-graph node.
type Node struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Kind Kind   `json:"type" yaml:"type"`

	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	Rotation float64 `json:"rotation,omitempty" yaml:"rotation,omitempty"`

	Visible *bool    `json:"visible,omitempty" yaml:"visible,omitempty"`
	Opacity *float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`

	Fills        []Paint  `json:"fills,omitempty" yaml:"fills,omitempty"`
	Strokes      []Paint  `json:"strokes,omitempty" yaml:"strokes,omitempty"`
	StrokeWeight float64  `json:"strokeWeight,omitempty" yaml:"strokeWeight,omitempty"`
	StrokeAlign  string   `json:"strokeAlign,omitempty" yaml:"strokeAlign,omitempty"`
	Effects      []Effect `json:"effects,omitempty" yaml:"effects,omitempty"`

	CornerRadius      CornerRadius `json:"cornerRadius,omitempty" yaml:"cornerRadius,omitempty"`
	TopLeftRadius     float64      `json:"topLeftRadius,omitempty" yaml:"topLeftRadius,omitempty"`
	TopRightRadius    float64      `json:"topRightRadius,omitempty" yaml:"topRightRadius,omitempty"`
	BottomRightRadius float64      `json:"bottomRightRadius,omitempty" yaml:"bottomRightRadius,omitempty"`
	BottomLeftRadius  float64      `json:"bottomLeftRadius,omitempty" yaml:"bottomLeftRadius,omitempty"`

	// Container fields.
	Children              []Node  `json:"children,omitempty" yaml:"children,omitempty"`
	LayoutMode            string  `json:"layoutMode,omitempty" yaml:"layoutMode,omitempty"`
	PrimaryAxisSizingMode string  `json:"primaryAxisSizingMode,omitempty" yaml:"primaryAxisSizingMode,omitempty"`
	CounterAxisSizingMode string  `json:"counterAxisSizingMode,omitempty" yaml:"counterAxisSizingMode,omitempty"`
	ItemSpacing           float64 `json:"itemSpacing,omitempty" yaml:"itemSpacing,omitempty"`
	PaddingLeft           float64 `json:"paddingLeft,omitempty" yaml:"paddingLeft,omitempty"`
	PaddingRight          float64 `json:"paddingRight,omitempty" yaml:"paddingRight,omitempty"`
	PaddingTop            float64 `json:"paddingTop,omitempty" yaml:"paddingTop,omitempty"`
	PaddingBottom         float64 `json:"paddingBottom,omitempty" yaml:"paddingBottom,omitempty"`
	PrimaryAxisAlignItems string  `json:"primaryAxisAlignItems,omitempty" yaml:"primaryAxisAlignItems,omitempty"`
	CounterAxisAlignItems string  `json:"counterAxisAlignItems,omitempty" yaml:"counterAxisAlignItems,omitempty"`

	// Fields of a child inside an auto-layout parent.
	LayoutAlign string  `json:"layoutAlign,omitempty" yaml:"layoutAlign,omitempty"`
	LayoutGrow  float64 `json:"layoutGrow,omitempty" yaml:"layoutGrow,omitempty"`

	// Text fields.
	Characters          string  `json:"characters,omitempty" yaml:"characters,omitempty"`
	FontSize            float64 `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	TextAutoResize      string  `json:"textAutoResize,omitempty" yaml:"textAutoResize,omitempty"`
	TextAlignHorizontal string  `json:"textAlignHorizontal,omitempty" yaml:"textAlignHorizontal,omitempty"`
	TextAlignVertical   string  `json:"textAlignVertical,omitempty" yaml:"textAlignVertical,omitempty"`
}

// IsVisible reports whether the node is rendered. Absent means visible.
func (n *Node) IsVisible() bool { return n.Visible == nil || *n.Visible }

// OpacityOr returns the node opacity, or 1 when absent.
func (n *Node) OpacityOr() float64 {
	if n.Opacity == nil {
		return 1
	}
	return *n.Opacity
}

// IsVisible reports whether the paint is rendered. Absent means visible.
func (p *Paint) IsVisible() bool { return p.Visible == nil || *p.Visible }

// IsVisible reports whether the effect is rendered. Absent means visible.
func (e *Effect) IsVisible() bool { return e.Visible == nil || *e.Visible }

// =============================================================================
// CornerRadius - number or "mixed"
// =============================================================================

// mixedSentinel is the wire value hosts use when corners differ.
const mixedSentinel = "mixed"

// CornerRadius is the uniform corner radius of a node, or Mixed when the
// corners differ and the per-corner fields must be consulted instead.
type CornerRadius struct {
	Value float64
	Mixed bool
}

// IsZero lets omitempty drop an unset radius.
func (c CornerRadius) IsZero() bool { return !c.Mixed && c.Value == 0 }

// MarshalJSON writes a number, or "mixed".
func (c CornerRadius) MarshalJSON() ([]byte, error) {
	if c.Mixed {
		return json.Marshal(mixedSentinel)
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON accepts a number, "mixed" or null.
func (c *CornerRadius) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = CornerRadius{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if !strings.EqualFold(str, mixedSentinel) {
			return fmt.Errorf("corner radius: unexpected string %q", str)
		}
		*c = CornerRadius{Mixed: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("corner radius: %w", err)
	}
	*c = CornerRadius{Value: v}
	return nil
}

// MarshalYAML writes a number, or "mixed".
func (c CornerRadius) MarshalYAML() (any, error) {
	if c.Mixed {
		return mixedSentinel, nil
	}
	return c.Value, nil
}

// UnmarshalYAML accepts a number or "mixed".
func (c *CornerRadius) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("corner radius: expected scalar at line %d", value.Line)
	}
	if strings.EqualFold(value.Value, mixedSentinel) {
		*c = CornerRadius{Mixed: true}
		return nil
	}
	var v float64
	if err := value.Decode(&v); err != nil {
		return fmt.Errorf("corner radius: %w", err)
	}
	*c = CornerRadius{Value: v}
	return nil
}

// =============================================================================
// Collaborators
// =============================================================================

// Source provides the live scene graph. Implementations backed by a running
// host may fail mid-read; the pipeline reports that as a single coarse error.
type Source interface {
	Read(ctx context.Context) ([]Node, error)
}

// TextRun is one uniformly styled span of a text node.
type TextRun struct {
	Start          int     `json:"start" yaml:"start"`
	End            int     `json:"end" yaml:"end"`
	Characters     string  `json:"characters" yaml:"characters"`
	FontFamily     string  `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	FontStyle      string  `json:"fontStyle,omitempty" yaml:"fontStyle,omitempty"`
	FontWeight     int     `json:"fontWeight,omitempty" yaml:"fontWeight,omitempty"`
	FontSize       float64 `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	TextDecoration string  `json:"textDecoration,omitempty" yaml:"textDecoration,omitempty"`
	Fills          []Paint `json:"fills,omitempty" yaml:"fills,omitempty"`
}

// TextSegmenter splits a text node into styled runs. The layout core treats
// the result as opaque and only attaches it to the normalized text node.
type TextSegmenter interface {
	Segments(ctx context.Context, nodeID string) ([]TextRun, error)
}
