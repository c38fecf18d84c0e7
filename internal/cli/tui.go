package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/cellgraph/pkg/graph"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// nodeRow is one row of the interactive node list.
type nodeRow struct {
	ID        string
	InDegree  int
	OutDegree int
	Types     string
}

// NodeListModel is the bubbletea model for interactive node selection.
type NodeListModel struct {
	Nodes    []nodeRow
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewNodeListModel builds the node list for a graph, sorted by out-degree
// so the most depended-upon cells come first.
func NewNodeListModel(g *graph.Graph) NodeListModel {
	ids := g.Nodes()
	rows := make([]nodeRow, 0, len(ids))
	for _, id := range ids {
		types := map[string]struct{}{}
		for _, to := range g.Outgoing(id) {
			if e, ok := g.Edge(id, to); ok {
				types[e.Type] = struct{}{}
			}
		}
		for _, from := range g.Incoming(id) {
			if e, ok := g.Edge(from, id); ok {
				types[e.Type] = struct{}{}
			}
		}
		names := make([]string, 0, len(types))
		for name := range types {
			if name != "" {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		typeStr := strings.Join(names, ", ")
		if typeStr == "" {
			typeStr = "—"
		}
		rows = append(rows, nodeRow{
			ID:        id,
			InDegree:  len(g.Incoming(id)),
			OutDegree: len(g.Outgoing(id)),
			Types:     typeStr,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].OutDegree > rows[j].OutDegree
	})
	return NodeListModel{
		Nodes:  rows,
		Height: 15,
	}
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Nodes) > 0 {
				m.Selected = m.Nodes[m.Cursor].ID
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m NodeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Node"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Nodes) {
		end = len(m.Nodes)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			n.ID,
			fmt.Sprintf("%d", n.InDegree),
			fmt.Sprintf("%d", n.OutDegree),
			n.Types,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "In", "Out", "Types").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Nodes) {
				return lipgloss.NewStyle()
			}
			isCurrent := actualIdx == m.Cursor

			base := lipgloss.NewStyle()
			if col == 2 || col == 3 {
				base = base.Foreground(colorGray)
			}
			if isCurrent {
				if col == 1 {
					return base.Foreground(colorGreen).Bold(true)
				}
				return base.Bold(true)
			}
			if col == 4 {
				return base.Foreground(colorDim)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Nodes))))

	return b.String()
}
