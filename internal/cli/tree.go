package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/graph"
)

// treeCommand creates the tree command for printing a dependency tree.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		flags  traversalFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "tree [graph.json] [start]",
		Short: "Print the dependency tree rooted at a node",
		Long: `Print the dependency tree rooted at a node.

Each node appears at most once; an edge that would revisit a node is
dropped, so cyclic graphs still produce a finite tree. The default
output is an indented text listing; --json emits the tree structure
as JSON for downstream tooling.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return c.runTree(args[0], args[1], opts, asJSON)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the tree as JSON")

	return cmd
}

func (c *CLI) runTree(input, start string, opts graph.Options, asJSON bool) error {
	g, err := graph.ImportJSON(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	tree := g.Tree(start, opts)
	if tree == nil {
		return fmt.Errorf("node not found: %s", start)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	}

	tree.Walk(func(node *graph.TreeNode, depth int) bool {
		fmt.Println(strings.Repeat("  ", depth) + node.Node)
		return true
	})
	printDetail("%d nodes", tree.Size())
	return nil
}
