package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/statweave/assoctab-cli/internal/report"
)

var countsTop int

var countsCmd = &cobra.Command{
	Use:   "counts <file>",
	Short: "Count field value combinations without the association search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := effectiveFields()
		if err != nil {
			return err
		}
		table, rows, err := buildTable(args[0], fields)
		if err != nil {
			return err
		}
		fmt.Printf("Rows: %d (counted %d)\n", rows, table.Total())

		for _, field := range fields {
			marginal, err := table.Reduce(field)
			if err != nil {
				return err
			}
			var tops []report.CategoryCount
			next := marginal.Nonzeros()
			for {
				coord, n, ok := next()
				if !ok {
					break
				}
				tops = append(tops, report.CategoryCount{Value: marginal.Values(coord)[0], Count: n})
			}
			sort.Slice(tops, func(i, j int) bool {
				if tops[i].Count != tops[j].Count {
					return tops[i].Count > tops[j].Count
				}
				return tops[i].Value < tops[j].Value
			})
			if countsTop > 0 && len(tops) > countsTop {
				tops = tops[:countsTop]
			}
			fmt.Printf("\n%s:\n", field)
			for _, t := range tops {
				fmt.Printf("  %s: %d\n", t.Value, t.Count)
			}
		}

		// Most frequent full combinations.
		type combo struct {
			values []string
			count  int64
		}
		var combos []combo
		next := table.Nonzeros()
		for {
			coord, n, ok := next()
			if !ok {
				break
			}
			combos = append(combos, combo{values: table.Values(coord), count: n})
		}
		sort.Slice(combos, func(i, j int) bool {
			if combos[i].count != combos[j].count {
				return combos[i].count > combos[j].count
			}
			return strings.Join(combos[i].values, "\x00") < strings.Join(combos[j].values, "\x00")
		})
		if countsTop > 0 && len(combos) > countsTop {
			combos = combos[:countsTop]
		}
		fmt.Printf("\nTop combinations (%s):\n", strings.Join(fields, ", "))
		for _, c := range combos {
			fmt.Printf("  %s: %d\n", strings.Join(c.values, " × "), c.count)
		}
		return nil
	},
}

func init() {
	registerPipelineFlags(countsCmd)
	countsCmd.Flags().IntVar(&countsTop, "top", 10, "number of entries to show per section")
	rootCmd.AddCommand(countsCmd)
}
