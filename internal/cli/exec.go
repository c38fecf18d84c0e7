package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	osexec "os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/graph"
	"github.com/matzehuels/cellgraph/pkg/graph/exec"
)

// execCommand creates the exec command for running a shell command per node.
func (c *CLI) execCommand() *cobra.Command {
	var (
		typesStr       string
		direction      string
		onError        string
		maxConcurrency int64
		command        string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "exec [graph.json] [start]",
		Short: "Run a command for every node in dependency order",
		Long: `Run a command for every node reachable from start.

The command template runs once per node via "sh -c". A parent node's
command finishes before its children start; siblings run concurrently,
capped by --max-concurrency. Occurrences of {node} in the template are
replaced with the node ID, and the environment carries CELLGRAPH_NODE,
CELLGRAPH_DEPTH, CELLGRAPH_EDGE_TYPE, and CELLGRAPH_PARENT_OUTPUT.

Failure policy is set by --on-error:
  fail-fast      abort everything on the first failure (default)
  collect        record the failure, keep going, children still run
  skip-children  record the failure and prune that node's subtree

Nodes reached again through a cycle are marked circular and not re-run.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if command == "" {
				return fmt.Errorf("--command is required")
			}
			opts := exec.Options{
				EdgeTypes:      parseTypes(typesStr),
				MaxConcurrency: maxConcurrency,
			}
			switch direction {
			case "outgoing":
				opts.Direction = graph.DirectionOutgoing
			case "incoming":
				opts.Direction = graph.DirectionIncoming
			default:
				return fmt.Errorf("invalid direction %q (want outgoing or incoming)", direction)
			}
			switch onError {
			case "fail-fast":
				opts.ErrorStrategy = exec.FailFast
			case "collect":
				opts.ErrorStrategy = exec.Collect
			case "skip-children":
				opts.ErrorStrategy = exec.SkipChildren
			default:
				return fmt.Errorf("invalid on-error %q (want fail-fast, collect, or skip-children)", onError)
			}
			return c.runExec(cmd.Context(), args[0], args[1], command, opts, asJSON)
		},
	}

	cmd.Flags().StringVarP(&command, "command", "c", "", "command template to run per node (required)")
	cmd.Flags().StringVarP(&typesStr, "types", "t", "", "edge type filter (comma-separated)")
	cmd.Flags().StringVarP(&direction, "direction", "d", "outgoing", "traversal direction: outgoing, incoming")
	cmd.Flags().StringVar(&onError, "on-error", "fail-fast", "failure policy: fail-fast, collect, skip-children")
	cmd.Flags().Int64Var(&maxConcurrency, "max-concurrency", 0, "max concurrent commands (0 = unlimited)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the result tree as JSON")

	return cmd
}

func (c *CLI) runExec(ctx context.Context, input, start, command string, opts exec.Options, asJSON bool) error {
	g, err := graph.ImportJSON(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	logger := loggerFromContext(ctx)
	settled := 0
	opts.OnProgress = func(node string, result any) {
		settled++
		logger.Debug("node settled", "node", node)
	}

	prog := newProgress(logger)
	callback := func(ctx context.Context, node string, parent any, info exec.Info) (any, error) {
		line := strings.ReplaceAll(command, "{node}", node)
		cmd := osexec.CommandContext(ctx, "sh", "-c", line)
		cmd.Env = append(os.Environ(),
			"CELLGRAPH_NODE="+node,
			fmt.Sprintf("CELLGRAPH_DEPTH=%d", info.Depth),
			"CELLGRAPH_EDGE_TYPE="+info.EdgeType,
			fmt.Sprintf("CELLGRAPH_PARENT_OUTPUT=%v", parentOutput(parent)),
		)
		var stdout bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("node %s: %w", node, err)
		}
		return strings.TrimRight(stdout.String(), "\n"), nil
	}

	result, err := exec.Execute(ctx, g, start, callback, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Executed %d nodes", settled))

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResultTree(result, 0)
	return nil
}

func parentOutput(parent any) string {
	if parent == nil {
		return ""
	}
	if s, ok := parent.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", parent)
}

// printResultTree prints an execution result tree with status icons.
func printResultTree(node *exec.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch {
	case node.CircularRef:
		fmt.Println(indent + StyleDim.Render(node.Node+" (circular)"))
	case node.Err != nil:
		fmt.Println(indent + styleIconError.Render(iconError) + " " + node.Node + " " + StyleDim.Render(node.Err.Error()))
	default:
		fmt.Println(indent + styleIconSuccess.Render(iconSuccess) + " " + node.Node)
	}
	for _, child := range node.Children {
		printResultTree(child, depth+1)
	}
}
