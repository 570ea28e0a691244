package sizing

import (
	"fmt"

	"github.com/matzehuels/autolayout/pkg/geom"
)

// Kind is the sizing behaviour of a node along one axis.
type Kind uint8

const (
	Fixed Kind = iota
	Fill
	Hug
	Fraction
)

func (k Kind) String() string {
	switch k {
	case Fill:
		return "fill"
	case Hug:
		return "hug"
	case Fraction:
		return "fraction"
	default:
		return "fixed"
	}
}

// Ratio is a simple fraction of the parent's content extent.
type Ratio struct {
	Num, Den int
}

// Value returns the ratio as a float.
func (r Ratio) Value() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Ratio) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// Menu lists the fractions a child may snap to, besides 1 which means fill.
var Menu = []Ratio{
	{1, 2}, {1, 3}, {2, 3},
	{1, 4}, {3, 4},
	{1, 5},
	{1, 6}, {5, 6},
	{1, 12},
}

// Rule names the rule that produced a policy.
type Rule string

const (
	RuleRoot       Rule = "root"
	RuleSoleChild  Rule = "sole-child"
	RuleAutoLayout Rule = "auto-layout"
	RuleFlowFill   Rule = "flow-fill"
	RuleEqual      Rule = "equal"
	RuleFraction   Rule = "fraction"
	RuleNearEdges  Rule = "near-edges"
	RuleFixed      Rule = "fixed"
	RuleCeiling    Rule = "ceiling"
	RuleDemoted    Rule = "demoted"
	RulePromoted   Rule = "promoted"
)

// Policy is the resolved sizing of a node along one axis.
type Policy struct {
	Kind   Kind
	Pixels float64 // Fixed only, stroke-inflated
	Ratio  Ratio   // Fraction only
	Rule   Rule
}

// FixedPixels returns a fixed policy.
func FixedPixels(px float64, rule Rule) Policy { return Policy{Kind: Fixed, Pixels: px, Rule: rule} }

// FillParent returns a fill policy.
func FillParent(rule Rule) Policy { return Policy{Kind: Fill, Rule: rule} }

// HugContents returns a hug policy.
func HugContents(rule Rule) Policy { return Policy{Kind: Hug, Rule: rule} }

// FractionOf returns a fractional policy.
func FractionOf(r Ratio) Policy { return Policy{Kind: Fraction, Ratio: r, Rule: RuleFraction} }

// Same reports whether p and o classify the same way, ignoring the rule.
func (p Policy) Same(o Policy) bool {
	switch p.Kind {
	case Fixed:
		return o.Kind == Fixed && geom.Near(p.Pixels, o.Pixels, 1e-6)
	case Fraction:
		return o.Kind == Fraction && p.Ratio == o.Ratio
	default:
		return p.Kind == o.Kind
	}
}

func (p Policy) String() string {
	switch p.Kind {
	case Fixed:
		return fmt.Sprintf("fixed(%s)", geom.Format(p.Pixels, 2))
	case Fraction:
		return fmt.Sprintf("fraction(%s)", p.Ratio)
	default:
		return p.Kind.String()
	}
}

// Sizes holds the width and height policies of one node.
type Sizes struct {
	Width, Height Policy
}

// Axis returns the policy along a.
func (s Sizes) Axis(a geom.Axis) Policy {
	if a == geom.Vertical {
		return s.Height
	}
	return s.Width
}

func (s *Sizes) set(a geom.Axis, p Policy) {
	if a == geom.Vertical {
		s.Height = p
	} else {
		s.Width = p
	}
}
