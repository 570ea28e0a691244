package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/layout"
	"github.com/matzehuels/autolayout/pkg/pipeline"
	"github.com/matzehuels/autolayout/pkg/scene"
)

// layoutSuffix marks files holding an already computed layout.
const layoutSuffix = ".layout.json"

// inspectCommand prints the sizing and anchoring decisions of a layout.
func (c *CLI) inspectCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "inspect [scene.json|name.layout.json]",
		Short: "Show the sizing and anchor decisions as a table",
		Long: `Show the sizing and anchor decisions as a table.

The input is either a layout written by 'convert' or a scene document, which
is converted on the fly with the current configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.loadLayout(cmd.Context(), args[0], noCache)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, StyleTitle.Render(args[0]))
			printKeyValue("root", l.Root)
			printKeyValue("frame", fmt.Sprintf("%g × %g", l.Width, l.Height))
			printKeyValue("nodes", fmt.Sprint(len(l.Nodes)))
			fmt.Fprintln(out, layoutTable(l))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

// loadLayout reads a layout file, or converts a scene document.
func (c *CLI) loadLayout(ctx context.Context, path string, noCache bool) (layout.Layout, error) {
	if strings.HasSuffix(path, layoutSuffix) {
		return layout.ReadFile(path)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return layout.Layout{}, err
	}
	doc, err := scene.ReadFile(path)
	if err != nil {
		return layout.Layout{}, err
	}
	runner, err := c.newRunner(noCache)
	if err != nil {
		return layout.Layout{}, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := runner.Execute(ctx, doc, pipeline.Options{Config: cfg, Logger: c.Logger})
	if err != nil {
		return layout.Layout{}, err
	}
	return res.Layout, nil
}

// layoutTable renders one row per node, indented by depth.
func layoutTable(l layout.Layout) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		rows = append(rows, []string{
			strings.Repeat("  ", n.Depth) + n.ID,
			n.Kind,
			dimensionLabel(n.Size.Width),
			dimensionLabel(n.Size.Height),
			anchorLabel(n),
			flowLabel(n.Flow),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Node", "Kind", "Width", "Height", "Anchor", "Flow").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			n := l.Nodes[row]
			switch col {
			case 2:
				return modeStyle(n.Size.Width.Mode)
			case 3:
				return modeStyle(n.Size.Height.Mode)
			case 0:
				if n.Placeholder || n.Synthetic {
					return StyleDim
				}
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

func dimensionLabel(d layout.Dimension) string {
	switch d.Mode {
	case "fixed":
		return fmt.Sprintf("fixed %g", d.Pixels)
	case "fraction":
		return d.Ratio
	default:
		return d.Mode
	}
}

func anchorLabel(n layout.Node) string {
	if n.Anchor == "" {
		return "-"
	}
	if n.Anchor == "manual" && n.Offset != nil {
		return fmt.Sprintf("manual (%g, %g)", n.Offset.Left, n.Offset.Top)
	}
	return n.Anchor
}

func flowLabel(f *layout.Flow) string {
	if f == nil {
		return "-"
	}
	s := fmt.Sprintf("%s gap %g", f.Mode, f.ItemSpacing)
	if f.Inferred {
		s += " *"
	}
	return s
}
