// Package pipeline runs the conversion from a source selection to a layout.
//
// # Stages
//
//  1. Build: normalize the selection into a [tree.Tree]
//  2. Infer: guess auto-layouts for containers without one
//  3. Size: resolve width and height policies
//  4. Anchor: classify absolutely positioned children
//  5. Export: flatten everything into a [layout.Layout]
//
// [Convert] runs the stages as a pure function. [Runner] adds a cache keyed by
// the scene and configuration hashes, and renders artifacts through emitters.
// [Session] wraps a runner for interactive hosts where a newer selection
// supersedes the run in flight.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, doc, pipeline.Options{
//	    Config:  cfg,
//	    Formats: []string{pipeline.FormatJSON, pipeline.FormatSVG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := res.Artifacts[pipeline.FormatJSON]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autolayout/pkg/cache"
	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/infer"
	"github.com/matzehuels/autolayout/pkg/layout"
	"github.com/matzehuels/autolayout/pkg/scene"
	"github.com/matzehuels/autolayout/pkg/tree"
)

// =============================================================================
// Formats
// =============================================================================

// Output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options configures one run.
type Options struct {
	Config  config.Config `json:"config"`
	Formats []string      `json:"formats,omitempty"`
	Refresh bool          `json:"refresh,omitempty"` // skip cache reads

	// Runtime options (not serialized)
	Logger    *log.Logger         `json:"-"`
	Segmenter scene.TextSegmenter `json:"-"` // overrides a segmenting source
	NewID     func() string       `json:"-"` // ids of synthetic containers

	validated bool
}

// ValidateAndSetDefaults applies defaults and validates the configuration.
// A zero Config means config.Default(). It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Config == (config.Config{}) {
		o.Config = config.Default()
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{ConfigHash: o.Config.Hash(), Version: layout.Version}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format}
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a run.
type Result struct {
	// RunID identifies the run in logs and HTTP responses.
	RunID string

	// SceneHash is the content hash of the source selection.
	SceneHash string

	// Tree is the inferred tree. It is nil when the layout came from cache.
	Tree *tree.Tree

	// Inference lists the auto-layout decisions. Empty on cache hits.
	Inference infer.Report

	// Layout is the exported layout.
	Layout layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats summarizes a run.
type Stats struct {
	SourceNodes int
	Nodes       int
	Dropped     int
	Stacks      int
	Absorbed    int
	Policies    map[string]int // per axis, by sizing kind
	Anchors     map[string]int // by class, None excluded

	ReadTime   time.Duration
	BuildTime  time.Duration
	InferTime  time.Duration
	SizeTime   time.Duration
	AnchorTime time.Duration
	RenderTime time.Duration
}

// Total returns the summed stage durations.
func (s Stats) Total() time.Duration {
	return s.ReadTime + s.BuildTime + s.InferTime + s.SizeTime + s.AnchorTime + s.RenderTime
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool // every requested artifact came from cache
}
