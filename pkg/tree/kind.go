package tree

import "github.com/matzehuels/autolayout/pkg/geom"

// Kind is the variant tag of a normalized node. The set is closed: every
// switch over Kind in this module is exhaustive, which a test over [Kinds]
// enforces.
type Kind uint8

const (
	Rectangle Kind = iota
	Ellipse
	Frame
	Group
	Text
)

// Kinds returns every node kind.
func Kinds() []Kind { return []Kind{Rectangle, Ellipse, Frame, Group, Text} }

func (k Kind) String() string {
	switch k {
	case Rectangle:
		return "rectangle"
	case Ellipse:
		return "ellipse"
	case Frame:
		return "frame"
	case Group:
		return "group"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// IsContainer reports whether nodes of this kind carry a [Container].
func (k Kind) IsContainer() bool {
	switch k {
	case Frame, Group:
		return true
	case Rectangle, Ellipse, Text:
		return false
	default:
		return false
	}
}

// LayoutMode is the flow direction of a container.
type LayoutMode uint8

const (
	LayoutNone LayoutMode = iota
	LayoutHorizontal
	LayoutVertical
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutHorizontal:
		return "horizontal"
	case LayoutVertical:
		return "vertical"
	default:
		return "none"
	}
}

// Axis returns the primary axis of a flow. It must not be called on
// LayoutNone.
func (m LayoutMode) Axis() geom.Axis {
	if m == LayoutVertical {
		return geom.Vertical
	}
	return geom.Horizontal
}

// ModeFor returns the layout mode whose primary axis is a.
func ModeFor(a geom.Axis) LayoutMode {
	if a == geom.Vertical {
		return LayoutVertical
	}
	return LayoutHorizontal
}

// SizingMode is how an auto-layout container sizes itself along an axis.
type SizingMode uint8

const (
	SizingFixed SizingMode = iota
	SizingAuto
)

func (m SizingMode) String() string {
	if m == SizingAuto {
		return "auto"
	}
	return "fixed"
}

// Align positions flow children along an axis. SpaceBetween is only valid on
// the primary axis and Baseline only on the counter axis.
type Align uint8

const (
	AlignMin Align = iota
	AlignCenter
	AlignMax
	AlignSpaceBetween
	AlignBaseline
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignMax:
		return "max"
	case AlignSpaceBetween:
		return "space-between"
	case AlignBaseline:
		return "baseline"
	default:
		return "min"
	}
}

// AutoResize is the text box auto-resize behaviour.
type AutoResize uint8

const (
	ResizeNone AutoResize = iota
	ResizeHeight
	ResizeWidthAndHeight
	ResizeTruncate
)

func (r AutoResize) String() string {
	switch r {
	case ResizeHeight:
		return "height"
	case ResizeWidthAndHeight:
		return "width-and-height"
	case ResizeTruncate:
		return "truncate"
	default:
		return "none"
	}
}

// Covers reports whether the text box grows with its content along a.
func (r AutoResize) Covers(a geom.Axis) bool {
	switch r {
	case ResizeWidthAndHeight:
		return true
	case ResizeHeight:
		return a == geom.Vertical
	default:
		return false
	}
}
