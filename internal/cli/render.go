package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/pipeline"
)

// renderCommand creates the render command for generating visualizations.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
		refresh    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a graph to Mermaid, DOT, SVG, or PNG",
		Long: `Render a graph to one or more output formats.

Formats:
  mermaid  Mermaid flowchart source, suitable for markdown embedding
  dot      Graphviz DOT source
  svg      SVG image rendered via Graphviz
  png      PNG image rendered via Graphviz

Rendered artifacts are cached locally keyed by graph content, so
re-rendering an unchanged graph is instant. Use --refresh to force
recomputation and --no-cache to skip the cache entirely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			opts.Refresh = refresh
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), mermaid, dot, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "label edges with their types")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")

	return cmd
}

// runRender loads the graph document and renders the requested formats.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering graph...")
	spinner.Start()

	result, err := runner.Execute(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if result.Analysis.Cyclic {
		printWarning("Graph contains a cycle: %s", strings.Join(result.Analysis.Cycle, " "+iconArrow+" "))
	}

	if err := writeArtifacts(result.Artifacts, opts.Formats, input, output); err != nil {
		return err
	}
	printStats(result.Analysis.NodeCount, result.Analysis.EdgeCount, result.CacheInfo.RenderHit)
	return nil
}

// writeArtifacts writes each rendered artifact next to the input file,
// or to the --output path when given.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) error {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if output != "" {
		if len(formats) == 1 {
			return writeArtifact(output, artifacts[formats[0]])
		}
		base = strings.TrimSuffix(output, filepath.Ext(output))
	}

	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		if err := writeArtifact(base+"."+artifactExt(format), data); err != nil {
			return err
		}
	}
	return nil
}

func writeArtifact(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printFile(path)
	return nil
}

// artifactExt maps a format name to its file extension.
func artifactExt(format string) string {
	switch format {
	case pipeline.FormatMermaid:
		return "mmd"
	case pipeline.FormatDOT:
		return "dot"
	default:
		return format
	}
}
