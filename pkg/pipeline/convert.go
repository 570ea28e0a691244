package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/autolayout/pkg/anchor"
	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/infer"
	"github.com/matzehuels/autolayout/pkg/layout"
	"github.com/matzehuels/autolayout/pkg/observability"
	"github.com/matzehuels/autolayout/pkg/scene"
	"github.com/matzehuels/autolayout/pkg/sizing"
	"github.com/matzehuels/autolayout/pkg/tree"
)

// Convert runs build, infer, size, anchor and export over nodes. It reads no
// cache and renders nothing. nodes is not modified.
func Convert(ctx context.Context, nodes []scene.Node, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	cfg := opts.Config
	logger := opts.Logger
	hooks := observability.Pipeline()

	res := &Result{RunID: uuid.NewString()}
	res.Stats.SourceNodes = countNodes(nodes)

	// Stage 1: Build
	start := time.Now()
	var buildOpts []tree.Option
	if opts.Segmenter != nil {
		buildOpts = append(buildOpts, tree.WithSegmenter(opts.Segmenter))
	}
	if opts.NewID != nil {
		buildOpts = append(buildOpts, tree.WithIDGenerator(opts.NewID))
	}
	t, err := tree.Build(ctx, nodes, cfg, buildOpts...)
	res.Stats.BuildTime = time.Since(start)
	if err != nil {
		hooks.OnBuildComplete(ctx, 0, 0, res.Stats.BuildTime, err)
		return nil, err
	}
	res.Stats.Nodes = t.Count()
	res.Stats.Dropped = len(t.Dropped())
	hooks.OnBuildComplete(ctx, res.Stats.Nodes, res.Stats.Dropped, res.Stats.BuildTime, nil)
	for _, d := range t.Dropped() {
		logger.Debug("dropped node", "id", d.ID, "reason", d.Reason)
	}
	logger.Info("built tree",
		"nodes", res.Stats.Nodes,
		"dropped", res.Stats.Dropped,
		"duration", res.Stats.BuildTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Infer
	start = time.Now()
	t, report := infer.Apply(t, cfg)
	res.Stats.InferTime = time.Since(start)
	res.Tree, res.Inference = t, report
	res.Stats.Stacks, res.Stats.Absorbed = report.Stacks(), report.Absorbed()
	hooks.OnInferComplete(ctx, res.Stats.Stacks, res.Stats.Absorbed, res.Stats.InferTime)
	for _, d := range report.Decisions {
		logger.Debug("inference", "id", d.ID, "mode", d.Mode, "spacing", d.Spacing, "reason", d.Reason)
	}
	logger.Info("inferred layouts",
		"stacks", res.Stats.Stacks,
		"absorbed", res.Stats.Absorbed,
		"duration", res.Stats.InferTime)

	// Stage 3: Size
	start = time.Now()
	sizes := sizing.Resolve(t, cfg)
	res.Stats.SizeTime = time.Since(start)
	refs := t.PreOrder()
	res.Stats.Policies = map[string]int{}
	for k, n := range sizes.Counts(refs) {
		res.Stats.Policies[k.String()] = n
	}
	hooks.OnResolveComplete(ctx, res.Stats.Policies, res.Stats.SizeTime)

	// Stage 4: Anchor
	start = time.Now()
	anchors := anchor.Classify(t, cfg)
	res.Stats.AnchorTime = time.Since(start)
	res.Stats.Anchors = map[string]int{}
	for c, n := range anchors.Counts(refs) {
		if c != anchor.None {
			res.Stats.Anchors[c.String()] = n
		}
	}
	hooks.OnClassifyComplete(ctx, res.Stats.Anchors, res.Stats.AnchorTime)
	logger.Info("resolved sizing and anchors",
		"policies", res.Stats.Policies,
		"anchors", res.Stats.Anchors,
		"duration", res.Stats.SizeTime+res.Stats.AnchorTime)

	// Stage 5: Export
	res.Layout = layout.Export(t, sizes, anchors, cfg)
	res.Layout.RunID = res.RunID
	return res, nil
}

// ConvertSource reads src and converts its selection. A source that also
// segments text is used as the segmenter unless opts sets one.
func ConvertSource(ctx context.Context, src scene.Source, opts Options) (*Result, error) {
	nodes, err := readSource(ctx, src, &opts)
	if err != nil {
		return nil, err
	}
	return Convert(ctx, nodes, opts)
}

func readSource(ctx context.Context, src scene.Source, opts *Options) ([]scene.Node, error) {
	nodes, err := src.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeSourceUnreadable, err, "source unreadable")
	}
	if opts.Segmenter == nil {
		if seg, ok := src.(scene.TextSegmenter); ok {
			opts.Segmenter = seg
		}
	}
	return nodes, nil
}

func countNodes(nodes []scene.Node) int {
	n := 0
	for i := range nodes {
		n += 1 + countNodes(nodes[i].Children)
	}
	return n
}
