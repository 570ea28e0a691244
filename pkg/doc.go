// Package pkg provides the core libraries of autolayout.
//
// # Overview
//
// autolayout turns a selection of absolutely positioned design layers into a
// responsive layout description. A code emitter reads that description and
// never has to guess how a node sizes itself or where it sits in its parent.
// The pkg directory is organized into three areas:
//
//  1. Domain logic ([tree], [infer], [sizing], [anchor], [geom])
//  2. Formats and configuration ([scene], [layout], [config], [errors])
//  3. Orchestration and hosting ([pipeline], [cache], [server], [observability])
//
// # Architecture
//
// The data flow of one conversion:
//
//	Scene selection (design tool export)
//	         ↓
//	    [tree] package (normalize into a single-rooted tree)
//	         ↓
//	    [infer] package (detect stacks, absorb backgrounds)
//	         ↓
//	    [sizing] + [anchor] packages (width/height policies, anchors)
//	         ↓
//	    [layout] package (serialization handed to emitters)
//
// # Quick Start
//
//	nodes, _ := doc.Read(ctx)
//	cfg := config.Default()
//
//	t, _ := tree.Build(ctx, nodes, cfg)
//	t, report := infer.Apply(t, cfg)
//	sizes := sizing.Resolve(t, cfg)
//	anchors := anchor.Classify(t, cfg)
//	l := layout.Export(t, sizes, anchors, cfg)
//
// [pipeline.Runner] runs the same stages with caching, logging and metrics,
// and is what the CLI and the HTTP server use.
//
// # Main Packages
//
// [tree] - Arena-backed normalized tree. Hidden layers are dropped, groups
// get their bounding box, raw auto-layout settings are normalized and
// overlarge batches are chunked into synthetic groups.
//
// [infer] - Auto-layout inference. Children that line up with consistent
// gaps become horizontal or vertical stacks; a single covering rectangle is
// absorbed as the container background.
//
// [sizing] - Responsive size resolver. Every axis of every node gets one of
// fixed, fill, hug or a simple fraction of its parent.
//
// [anchor] - Anchor classifier for absolutely positioned children: centre,
// corners, edge centres or manual offsets.
//
// [layout] - The output format and the [layout.Emitter] interface.
//
// [render/dot] - Graphviz rendering of a layout for debugging.
//
// [cache] - Layout cache with file, Redis and MongoDB backends.
//
// [server] - HTTP host shell around the pipeline.
//
// [observability] - Hooks for metrics; [observability/prom] implements them
// with Prometheus.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -run Example ./pkg/...       # Examples only
//
// MongoDB cache tests run when AUTOLAYOUT_TEST_MONGO_URI is set.
//
// [tree]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/tree
// [infer]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/infer
// [sizing]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/sizing
// [anchor]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/anchor
// [geom]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/geom
// [scene]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/scene
// [layout]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/layout
// [layout.Emitter]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/layout#Emitter
// [config]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/errors
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/pipeline#Runner
// [cache]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/cache
// [server]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/observability
// [observability/prom]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/observability/prom
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/autolayout/pkg/render/dot
package pkg
