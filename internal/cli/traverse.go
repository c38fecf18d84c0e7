package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/graph"
)

// traversalFlags holds the shared flags of the traversal commands.
type traversalFlags struct {
	typesStr  string
	direction string
	strategy  string
}

func (f *traversalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.typesStr, "types", "t", "", "edge type filter (comma-separated)")
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "outgoing", "traversal direction: outgoing, incoming")
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "bfs", "traversal strategy: bfs, dfs")
}

func (f *traversalFlags) options() (graph.Options, error) {
	opts := graph.Options{EdgeTypes: parseTypes(f.typesStr)}
	switch f.direction {
	case "outgoing":
		opts.Direction = graph.DirectionOutgoing
	case "incoming":
		opts.Direction = graph.DirectionIncoming
	default:
		return opts, fmt.Errorf("invalid direction %q (want outgoing or incoming)", f.direction)
	}
	switch f.strategy {
	case "bfs":
		opts.Strategy = graph.StrategyBFS
	case "dfs":
		opts.Strategy = graph.StrategyDFS
	default:
		return opts, fmt.Errorf("invalid strategy %q (want bfs or dfs)", f.strategy)
	}
	return opts, nil
}

// traverseCommand creates the traverse command for walking a graph from a node.
func (c *CLI) traverseCommand() *cobra.Command {
	var (
		flags      traversalFlags
		dependents bool
	)

	cmd := &cobra.Command{
		Use:   "traverse [graph.json] [start]",
		Short: "Walk the graph from a start node",
		Long: `Walk the graph from a start node and print visited nodes in order.

By default the walk follows outgoing edges breadth-first. Use --direction
incoming to walk toward dependents instead, --strategy dfs for depth-first
order, and --types to follow only specific edge types.

With --dependents the start node itself is omitted and the walk follows
edges downstream, answering "what depends on this node".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return c.runTraverse(args[0], args[1], opts, dependents)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&dependents, "dependents", false, "list transitive dependents (start excluded)")

	return cmd
}

func (c *CLI) runTraverse(input, start string, opts graph.Options, dependents bool) error {
	g, err := graph.ImportJSON(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	if !g.HasNode(start) {
		return fmt.Errorf("node not found: %s", start)
	}

	var nodes []string
	if dependents {
		nodes = g.Dependents(start, opts)
	} else {
		nodes = g.Traverse(start, opts)
	}

	for _, id := range nodes {
		fmt.Println(id)
	}
	printDetail("%d nodes visited", len(nodes))
	return nil
}
