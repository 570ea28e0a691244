package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autolayout/pkg/cache"
	"github.com/matzehuels/autolayout/pkg/layout"
	"github.com/matzehuels/autolayout/pkg/observability"
	"github.com/matzehuels/autolayout/pkg/scene"
)

// Runner runs conversions with caching.
//
// The Runner keeps no per-run state; it is safe for concurrent use as long
// as its cache is.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer uses
// the default keyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Close releases the runner's cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

// Execute reads src, converts it (or loads the cached layout) and renders
// the requested formats.
func (r *Runner) Execute(ctx context.Context, src scene.Source, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	external := opts.Segmenter != nil
	nodes, err := readSource(ctx, src, &opts)
	if err != nil {
		return nil, err
	}
	readTime := time.Since(start)

	hash, err := sceneHash(src, nodes)
	if err != nil {
		return nil, fmt.Errorf("hash scene: %w", err)
	}

	// Runs from an external segmenter are not part of the hash.
	cacheable := !external
	res, err := r.convertWithCache(ctx, nodes, hash, cacheable, opts)
	if err != nil {
		return nil, err
	}
	res.SceneHash = hash
	res.Stats.ReadTime = readTime

	start = time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, res.Layout, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Artifacts = artifacts
	res.Stats.RenderTime = time.Since(start)
	res.CacheInfo.RenderHit = hit

	opts.Logger.Info("rendered outputs",
		"run", res.RunID,
		"formats", opts.Formats,
		"duration", res.Stats.RenderTime)
	return res, nil
}

func (r *Runner) convertWithCache(ctx context.Context, nodes []scene.Node, hash string, cacheable bool, opts Options) (*Result, error) {
	key := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts())
	hooks := observability.Cache()

	if cacheable && !opts.Refresh {
		var cached layout.Layout
		err := cache.GetJSON(ctx, r.Cache, key, &cached)
		switch {
		case err == nil:
			hooks.OnCacheHit(ctx, "layout")
			opts.Logger.Info("layout from cache", "scene", hash[:12])
			res := &Result{RunID: cached.RunID, Layout: cached, CacheInfo: CacheInfo{LayoutHit: true}}
			res.Stats.SourceNodes = countNodes(nodes)
			res.Stats.Nodes = len(cached.Nodes)
			return res, nil
		case err != cache.ErrCacheMiss:
			opts.Logger.Warn("cache read failed", "err", err)
		}
		hooks.OnCacheMiss(ctx, "layout")
	}

	res, err := Convert(ctx, nodes, opts)
	if err != nil {
		return nil, err
	}

	if cacheable {
		data, err := layout.Marshal(res.Layout)
		if err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.LayoutTTL); err != nil {
				opts.Logger.Warn("cache write failed", "err", err)
			} else {
				hooks.OnCacheSet(ctx, "layout", len(data))
			}
		}
	}
	return res, nil
}

// RenderWithCacheInfo emits opts.Formats for l and reports whether every
// artifact came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l layout.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	layoutData, err := layout.Marshal(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout: %w", err)
	}
	// Artifacts depend on the layout's content, not on the run that made it.
	keyed := l
	keyed.RunID = ""
	keyData, err := layout.Marshal(keyed)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(keyData)
	hooks := observability.Cache()

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		if format == FormatJSON {
			artifacts[format] = layoutData
			continue
		}
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			hooks.OnCacheHit(ctx, "artifact")
			artifacts[format] = data
			continue
		}
		hooks.OnCacheMiss(ctx, "artifact")
		allCached = false

		data, err := Render(ctx, l, format)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return artifacts, allCached, nil
}

// applyLogger uses the runner's logger if opts has none.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// sceneHash hashes the selection, plus pre-segmented runs when the source
// carries them.
func sceneHash(src scene.Source, nodes []scene.Node) (string, error) {
	var v any = nodes
	if doc, ok := src.(*scene.Document); ok && len(doc.TextRuns) > 0 {
		v = scene.Document{Nodes: nodes, TextRuns: doc.TextRuns}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}
