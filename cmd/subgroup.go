package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/statweave/assoctab-cli/internal/histogram"
	"github.com/statweave/assoctab-cli/internal/report"
)

var subgroupCmd = &cobra.Command{
	Use:   "subgroup <file> <field=value>...",
	Short: "Report every notable association within one subgroup",
	Long: `Report all associations discovered within a concrete subgroup, e.g.

  assoctab subgroup neiss.csv sex=M race=white

lists the value pairs that stand out among white males.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var subgroup []histogram.FieldValue
		for _, spec := range args[1:] {
			field, value, ok := strings.Cut(spec, "=")
			if !ok || field == "" || value == "" {
				return fmt.Errorf("subgroup spec %q must be field=value", spec)
			}
			subgroup = append(subgroup, histogram.FieldValue{Field: field, Value: value})
		}
		fields, err := effectiveFields()
		if err != nil {
			return err
		}
		table, _, err := buildTable(args[0], fields)
		if err != nil {
			return err
		}
		index, err := runSearch(table)
		if err != nil {
			return err
		}
		entries := index.SubgroupReport(subgroup...)
		if len(entries) == 0 {
			fmt.Printf("No notable associations within %s.\n", strings.Join(args[1:], ", "))
			return nil
		}
		fmt.Print(report.FormatEntries(entries))
		return nil
	},
}

func init() {
	registerPipelineFlags(subgroupCmd)
	rootCmd.AddCommand(subgroupCmd)
}
