package cli

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/formula"
)

// formulaCommand creates the formula command for extracting cell references.
func (c *CLI) formulaCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "formula [expression]",
		Short: "Extract cell and range references from a formula",
		Long: `Extract cell and range references from a spreadsheet formula.

Cells like A1 or $B$2 and ranges like A1:B10 are recognized; anchor
dollars are stripped and the endpoints of each range are reported as
cells too. Results are sorted and deduplicated.

Example:

  cellgraph formula "=SUM(A1:B2) + C3"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := formula.ExtractCellsAndRanges(args[0])
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(refs)
			}
			printKeyValue("cells", strings.Join(refs.Cells, ", "))
			printKeyValue("ranges", strings.Join(refs.Ranges, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit references as JSON")

	return cmd
}
