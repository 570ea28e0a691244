package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/layout"
)

var (
	browseSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	browsePanelStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// browseCommand opens an interactive tree view of a layout.
func (c *CLI) browseCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "browse [scene.json|name.layout.json]",
		Short: "Browse a layout interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.loadLayout(cmd.Context(), args[0], noCache)
			if err != nil {
				return err
			}
			if l.Empty() {
				printWarning("Layout is empty")
				return nil
			}
			_, err = tea.NewProgram(NewBrowseModel(l), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

// =============================================================================
// BrowseModel - Interactive layout tree
// =============================================================================

// BrowseModel is the bubbletea model of the layout browser. The left pane
// lists the visible nodes; the right pane details the one under the cursor.
type BrowseModel struct {
	Layout    layout.Layout
	Collapsed map[string]bool
	Cursor    int
	Offset    int
	Height    int
}

// NewBrowseModel creates a browser with every node expanded.
func NewBrowseModel(l layout.Layout) BrowseModel {
	return BrowseModel{Layout: l, Collapsed: map[string]bool{}, Height: 20}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	visible := m.visible()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(visible)-1 {
				m.Cursor++
			}
		case "enter", " ", "right", "left", "l", "h":
			if m.Cursor < len(visible) {
				n := visible[m.Cursor]
				if len(n.Children) > 0 {
					collapsed := m.copyCollapsed()
					collapsed[n.ID] = !collapsed[n.ID]
					m.Collapsed = collapsed
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}

	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m, nil
}

func (m BrowseModel) View() string {
	visible := m.visible()

	var list strings.Builder
	list.WriteString(StyleTitle.Render("Layout " + m.Layout.Root))
	list.WriteString("\n")
	list.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ expand/collapse  q quit"))
	list.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(visible))
	for i := m.Offset; i < end; i++ {
		n := visible[i]
		marker := "  "
		if len(n.Children) > 0 {
			marker = "▾ "
			if m.Collapsed[n.ID] {
				marker = "▸ "
			}
		}
		line := strings.Repeat("  ", n.Depth) + marker + n.ID
		if i == m.Cursor {
			list.WriteString(browseSelectedStyle.Render(line))
		} else {
			list.WriteString(browseNormalStyle.Render(line))
		}
		list.WriteString("\n")
	}
	list.WriteString("\n")
	list.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(visible)), len(visible))))

	if m.Cursor >= len(visible) {
		return list.String()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "  ", browsePanelStyle.Render(nodeDetail(visible[m.Cursor])))
}

// visible returns the nodes not hidden by a collapsed ancestor, in
// pre-order.
func (m BrowseModel) visible() []*layout.Node {
	out := make([]*layout.Node, 0, len(m.Layout.Nodes))
	hiddenBelow := -1
	for i := range m.Layout.Nodes {
		n := &m.Layout.Nodes[i]
		if hiddenBelow >= 0 {
			if n.Depth > hiddenBelow {
				continue
			}
			hiddenBelow = -1
		}
		out = append(out, n)
		if m.Collapsed[n.ID] {
			hiddenBelow = n.Depth
		}
	}
	return out
}

func (m BrowseModel) copyCollapsed() map[string]bool {
	out := make(map[string]bool, len(m.Collapsed)+1)
	for k, v := range m.Collapsed {
		out[k] = v
	}
	return out
}

// nodeDetail renders the decisions attached to one node.
func nodeDetail(n *layout.Node) string {
	var b strings.Builder
	kv := func(k, v string) {
		b.WriteString(styleKey.Render(k) + " " + v + "\n")
	}
	kv("id", n.ID)
	if n.Name != "" {
		kv("name", n.Name)
	}
	kv("kind", n.Kind)
	kv("box", fmt.Sprintf("%g,%g %g×%g", n.X, n.Y, n.Width, n.Height))
	kv("width", modeStyle(n.Size.Width.Mode).Render(dimensionLabel(n.Size.Width)))
	kv("height", modeStyle(n.Size.Height.Mode).Render(dimensionLabel(n.Size.Height)))
	kv("anchor", anchorLabel(*n))
	if f := n.Flow; f != nil {
		kv("flow", flowLabel(f))
		kv("align", f.PrimaryAlign+" / "+f.CounterAlign)
		kv("padding", fmt.Sprintf("%g %g %g %g", f.Padding.Top, f.Padding.Right, f.Padding.Bottom, f.Padding.Left))
	}
	if n.Background != nil {
		kv("background", "absorbed")
	}
	if n.Text != nil {
		kv("text", fmt.Sprintf("%q", truncate(n.Text.Characters, 24)))
		kv("font", fmt.Sprintf("%grem", n.Text.FontSizeRem))
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
