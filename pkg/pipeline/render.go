package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/layout"
	"github.com/matzehuels/autolayout/pkg/observability"
	"github.com/matzehuels/autolayout/pkg/render/dot"
)

// jsonEmitter emits the layout itself.
type jsonEmitter struct{}

func (jsonEmitter) Emit(l layout.Layout) ([]byte, error) { return layout.Marshal(l) }

// Emitters maps output formats to their emitters.
var Emitters = map[string]layout.Emitter{
	FormatJSON: jsonEmitter{},
	FormatDOT:  dot.Emitter{},
	FormatSVG:  dot.SVGEmitter{},
}

// Render emits l in one format.
func Render(ctx context.Context, l layout.Layout, format string) ([]byte, error) {
	e, ok := Emitters[format]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
	}
	start := time.Now()
	data, err := e.Emit(l)
	observability.Pipeline().OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return data, nil
}
