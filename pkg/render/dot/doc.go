// Package dot renders a layout as a Graphviz tree for debugging.
//
// Each node becomes a box labelled with its id, kind and resolved sizing
// policies; absolutely positioned children also show their anchor. Flow
// containers are tinted, inferred ones with a dashed outline, so a glance at
// the picture shows which stacks were declared and which were guessed.
//
//	src := dot.ToDOT(l, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(src)
//
// [Emitter] and [SVGEmitter] wrap both steps as [layout.Emitter]
// implementations.
//
// SVG output uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process; no system installation is needed.
package dot
