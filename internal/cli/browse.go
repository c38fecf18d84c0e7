package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/graph"
)

// browseCommand creates the browse command for interactive graph inspection.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [graph.json]",
		Short: "Browse graph nodes interactively",
		Long: `Open an interactive node list for a graph document.

Nodes are sorted by out-degree so the most depended-upon cells come
first. Selecting a node prints its direct dependencies and dependents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(args[0])
		},
	}
}

func (c *CLI) runBrowse(input string) error {
	g, err := graph.ImportJSON(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	if g.NodeCount() == 0 {
		printDetail("Graph is empty")
		return nil
	}

	m := NewNodeListModel(g)
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	fm, ok := finalModel.(NodeListModel)
	if !ok || fm.Selected == "" {
		printDetail("No selection made")
		return nil
	}

	printNodeDetails(g, fm.Selected)
	return nil
}

// printNodeDetails prints the direct neighborhood of a node.
func printNodeDetails(g *graph.Graph, id string) {
	printNewline()
	printKeyValue("Node", id)
	printKeyValue("Depends on", formatNeighbors(g, g.Incoming(id), id, graph.DirectionIncoming))
	printKeyValue("Dependents", formatNeighbors(g, g.Outgoing(id), id, graph.DirectionOutgoing))
}

func formatNeighbors(g *graph.Graph, ids []string, self string, dir graph.Direction) string {
	if len(ids) == 0 {
		return "—"
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		label := id
		if e, ok := g.EdgeBetween(self, id, dir); ok && e.Type != "" {
			label = fmt.Sprintf("%s (%s)", id, e.Type)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}
