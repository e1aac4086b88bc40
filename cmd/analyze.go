package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/statweave/assoctab-cli/internal/report"
	"github.com/statweave/assoctab-cli/internal/utils"
)

var anaOutputPath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Count a CSV table and report every notable association",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		fields, err := effectiveFields()
		if err != nil {
			return err
		}
		sw := utils.NewStopwatch("count")
		table, rows, err := buildTable(path, fields)
		if err != nil {
			return err
		}
		sw.Lap("count", "search")
		index, err := runSearch(table)
		if err != nil {
			return err
		}
		sw.Stop("search")
		debugf("%s", sw)

		rep := report.New(table, index, filepath.Base(path), rows)
		md := rep.Markdown()
		if anaOutputPath == "" {
			fmt.Print(md)
			return nil
		}
		out := anaOutputPath
		if !filepath.IsAbs(out) && filepath.Dir(out) == "." {
			dir := effectiveConfig().ReportsDir
			if dir != "" {
				if err := utils.EnsureDir(dir); err != nil {
					return err
				}
				out = filepath.Join(dir, out)
			}
		}
		if err := utils.SafeWriteFile(out, []byte(md)); err != nil {
			return err
		}
		fmt.Printf("✓ Report %s written to %s\n", rep.RunID, out)
		return nil
	},
}

func init() {
	registerPipelineFlags(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "out", "o", "", "write report to file (bare names land in reports_dir)")
	rootCmd.AddCommand(analyzeCmd)
}
