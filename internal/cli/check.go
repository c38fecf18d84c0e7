package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/graph"
	"github.com/matzehuels/cellgraph/pkg/pipeline"
)

// checkCommand creates the check command for graph analysis and cycle detection.
func (c *CLI) checkCommand() *cobra.Command {
	var typesStr string

	cmd := &cobra.Command{
		Use:   "check [graph.json]",
		Short: "Analyze a graph and report cycles",
		Long: `Analyze a graph and report cycles.

Loads a graph document, prints node and edge counts, sources and sinks,
and searches for cycles along outgoing edges. A found cycle is printed
as its node path; the command exits non-zero so check can gate CI.

Use --types to restrict the search to specific edge types.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(args[0], parseTypes(typesStr))
		},
	}

	cmd.Flags().StringVarP(&typesStr, "types", "t", "", "edge type filter (comma-separated)")

	return cmd
}

func (c *CLI) runCheck(input string, edgeTypes []string) error {
	g, err := graph.ImportJSON(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	analysis := pipeline.Analyze(g, edgeTypes)

	printKeyValue("nodes", fmt.Sprintf("%d", analysis.NodeCount))
	printKeyValue("edges", fmt.Sprintf("%d", analysis.EdgeCount))
	if len(analysis.Sources) > 0 {
		printKeyValue("sources", strings.Join(analysis.Sources, ", "))
	}
	if len(analysis.Sinks) > 0 {
		printKeyValue("sinks", strings.Join(analysis.Sinks, ", "))
	}

	if analysis.Cyclic {
		printNewline()
		printError("Cycle detected: %s", strings.Join(analysis.Cycle, " "+iconArrow+" "))
		return fmt.Errorf("graph contains a cycle")
	}

	printNewline()
	printSuccess("No cycles found")
	printNextStep("Render it", fmt.Sprintf("cellgraph render %s", input))
	return nil
}
