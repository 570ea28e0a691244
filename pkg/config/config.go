// Package config holds the immutable run configuration threaded through every
// layout stage.
//
// A Config is a plain value. Stages receive it by value and never mutate it,
// so runs are reentrant and each stage is testable in isolation. The numeric
// tolerances are empirically tuned; they are exposed as named, overridable
// fields rather than derived.
//
// Configuration reaches the pipeline from one of three places: [Default],
// a TOML file ([LoadFile]) or a flat key/value preference record owned by
// the host shell ([FromMap]).
package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"

	"github.com/matzehuels/autolayout/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultFractionTolerance is the relative distance (of the parent extent)
	// within which a child snaps to a fraction of its parent.
	DefaultFractionTolerance = 0.01

	// DefaultFillMargin is the pixel distance from both parent edges within
	// which a wide child is treated as full-bleed.
	DefaultFillMargin = 16.0

	// DefaultFillCoverage is the minimum share of the parent extent a
	// near-edge child must cover to be treated as full-bleed.
	DefaultFillCoverage = 0.8

	// DefaultMaxFixedSize is the largest fixed extent emitted for the last
	// child of a multi-child container.
	DefaultMaxFixedSize = 256.0

	// DefaultGapTolerance bounds the sample standard deviation of gaps in an
	// implicit stack.
	DefaultGapTolerance = 2.0

	// DefaultSingleGapRatio bounds a lone gap relative to the smaller of the
	// two children it separates.
	DefaultSingleGapRatio = 1.0

	// DefaultCenterTolerance is the share of the content extent a child centre
	// may deviate from the content centre and still count as centred.
	DefaultCenterTolerance = 0.1

	// DefaultEdgeTolerance is the share of the content extent a child may sit
	// away from an edge and still count as anchored to it.
	DefaultEdgeTolerance = 0.05

	// DefaultMinTolerance is the absolute floor, in pixels, of both anchor
	// tolerances.
	DefaultMinTolerance = 2.0

	// DefaultMaxChildren caps the children of one container; larger batches
	// are chunked into synthetic groups.
	DefaultMaxChildren = 100

	// DefaultBaseFontSize converts pixel font sizes to rem.
	DefaultBaseFontSize = 16.0

	// DefaultPrecision is the number of decimals kept in exported numbers.
	DefaultPrecision = 2
)

// Config is the run configuration.
type Config struct {
	// Sizing
	FractionTolerance float64 `toml:"fraction_tolerance" mapstructure:"fraction_tolerance" json:"fraction_tolerance"`
	FillMargin        float64 `toml:"fill_margin" mapstructure:"fill_margin" json:"fill_margin"`
	FillCoverage      float64 `toml:"fill_coverage" mapstructure:"fill_coverage" json:"fill_coverage"`
	MaxFixedSize      float64 `toml:"max_fixed_size" mapstructure:"max_fixed_size" json:"max_fixed_size"`

	// Inference
	InferAutoLayout  bool    `toml:"infer_auto_layout" mapstructure:"infer_auto_layout" json:"infer_auto_layout"`
	AbsorbBackground bool    `toml:"absorb_background" mapstructure:"absorb_background" json:"absorb_background"`
	GapTolerance     float64 `toml:"gap_tolerance" mapstructure:"gap_tolerance" json:"gap_tolerance"`
	SingleGapRatio   float64 `toml:"single_gap_ratio" mapstructure:"single_gap_ratio" json:"single_gap_ratio"`

	// Anchoring
	CenterTolerance float64 `toml:"center_tolerance" mapstructure:"center_tolerance" json:"center_tolerance"`
	EdgeTolerance   float64 `toml:"edge_tolerance" mapstructure:"edge_tolerance" json:"edge_tolerance"`
	MinTolerance    float64 `toml:"min_tolerance" mapstructure:"min_tolerance" json:"min_tolerance"`
	AnchorSiblings  bool    `toml:"anchor_siblings" mapstructure:"anchor_siblings" json:"anchor_siblings"`

	// Tree building and export
	MaxChildren  int     `toml:"max_children" mapstructure:"max_children" json:"max_children"`
	BaseFontSize float64 `toml:"base_font_size" mapstructure:"base_font_size" json:"base_font_size"`
	Precision    int     `toml:"precision" mapstructure:"precision" json:"precision"`
	LayerNames   bool    `toml:"layer_names" mapstructure:"layer_names" json:"layer_names"`
}

// Default returns the calibrated default configuration.
func Default() Config {
	return Config{
		FractionTolerance: DefaultFractionTolerance,
		FillMargin:        DefaultFillMargin,
		FillCoverage:      DefaultFillCoverage,
		MaxFixedSize:      DefaultMaxFixedSize,
		InferAutoLayout:   true,
		AbsorbBackground:  true,
		GapTolerance:      DefaultGapTolerance,
		SingleGapRatio:    DefaultSingleGapRatio,
		CenterTolerance:   DefaultCenterTolerance,
		EdgeTolerance:     DefaultEdgeTolerance,
		MinTolerance:      DefaultMinTolerance,
		MaxChildren:       DefaultMaxChildren,
		BaseFontSize:      DefaultBaseFontSize,
		Precision:         DefaultPrecision,
	}
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	checks := []struct {
		name string
		ok   bool
		val  any
	}{
		{"fraction_tolerance", c.FractionTolerance >= 0 && c.FractionTolerance < 0.5, c.FractionTolerance},
		{"fill_margin", c.FillMargin >= 0, c.FillMargin},
		{"fill_coverage", c.FillCoverage > 0 && c.FillCoverage <= 1, c.FillCoverage},
		{"max_fixed_size", c.MaxFixedSize > 0, c.MaxFixedSize},
		{"gap_tolerance", c.GapTolerance > 0, c.GapTolerance},
		{"single_gap_ratio", c.SingleGapRatio >= 0, c.SingleGapRatio},
		{"center_tolerance", c.CenterTolerance >= 0 && c.CenterTolerance <= 0.5, c.CenterTolerance},
		{"edge_tolerance", c.EdgeTolerance >= 0 && c.EdgeTolerance <= 0.5, c.EdgeTolerance},
		{"min_tolerance", c.MinTolerance >= 0, c.MinTolerance},
		{"max_children", c.MaxChildren >= 2, c.MaxChildren},
		{"base_font_size", c.BaseFontSize > 0, c.BaseFontSize},
		{"precision", c.Precision >= 0 && c.Precision <= 6, c.Precision},
	}
	for _, chk := range checks {
		if !chk.ok {
			return errors.New(errors.ErrCodeInvalidConfig, "%s out of range: %v", chk.name, chk.val)
		}
	}
	return nil
}

// Hash returns a stable content hash of the configuration, used to key
// cached layouts.
func (c Config) Hash() string {
	data, _ := json.Marshal(c)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LoadFile reads a TOML configuration file. Keys absent from the file keep
// their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Default(), errors.New(errors.ErrCodeInvalidConfig, "unknown key %q in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// FromMap overlays a flat preference record on the defaults. Values may be
// strings ("0.02", "true") as hosts commonly persist them. Keys the layout
// core does not know about (framework choice, prefixes) are ignored.
func FromMap(prefs map[string]any) (Config, error) {
	return Default().With(prefs)
}

// With returns c overlaid with prefs, decoded as in [FromMap]. On error c is
// returned unchanged.
func (c Config) With(prefs map[string]any) (Config, error) {
	if len(prefs) == 0 {
		return c, nil
	}
	out := c
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return c, errors.Wrap(errors.ErrCodeInternal, err, "create preference decoder")
	}
	if err := dec.Decode(prefs); err != nil {
		return c, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode preferences")
	}
	if err := out.Validate(); err != nil {
		return c, err
	}
	return out, nil
}

// Encode renders the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
