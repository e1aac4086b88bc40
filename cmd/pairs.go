package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statweave/assoctab-cli/internal/report"
)

var pairsCmd = &cobra.Command{
	Use:   "pairs <file> <fieldA> <fieldB>",
	Short: "Report every notable association between two fields",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		entries := index.Report(args[1], args[2])
		if len(entries) == 0 {
			fmt.Printf("No notable associations between %s and %s.\n", args[1], args[2])
			return nil
		}
		fmt.Print(report.FormatEntries(entries))
		return nil
	},
}

func init() {
	registerPipelineFlags(pairsCmd)
	rootCmd.AddCommand(pairsCmd)
}
