package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/layout"
	"github.com/matzehuels/autolayout/pkg/pipeline"
	"github.com/matzehuels/autolayout/pkg/render/dot"
)

// graphCommand renders the decision graph of a layout.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "graph [scene.json|name.layout.json]",
		Short: "Render the layout tree as a Graphviz diagram",
		Long: `Render the layout tree as a Graphviz diagram.

Nodes are labelled with their sizing policy and anchor; inferred stacks are
drawn dashed. Use --detailed to include padding, alignment and absorbed
backgrounds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var emitter layout.Emitter
			opts := dot.Options{Detailed: detailed}
			switch format {
			case pipeline.FormatDOT:
				emitter = dot.Emitter{Options: opts}
			case pipeline.FormatSVG:
				emitter = dot.SVGEmitter{Options: opts}
			default:
				return fmt.Errorf("invalid format: %q (must be dot or svg)", format)
			}

			l, err := c.loadLayout(cmd.Context(), args[0], noCache)
			if err != nil {
				return err
			}
			data, err := emitter.Emit(l)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}

			path := output
			if path == "" {
				path = outputBase(trimLayoutSuffix(args[0])) + "." + format
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			printSuccess("Graph rendered")
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatSVG, "output format: svg (default), dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show padding, alignment and backgrounds")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

// trimLayoutSuffix maps name.layout.json to name.json so outputBase strips
// the whole suffix.
func trimLayoutSuffix(path string) string {
	if strings.HasSuffix(path, layoutSuffix) {
		return strings.TrimSuffix(path, layoutSuffix) + ".json"
	}
	return path
}
