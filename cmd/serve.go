package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statweave/assoctab-cli/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Analyze a CSV table and serve the results as a JSON API",
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
		index, err := runSearch(table)
		if err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" {
			addr = effectiveConfig().ServerAddr
		}
		fmt.Printf("✓ Counted %d of %d rows; serving on %s\n", table.Total(), rows, addr)
		e := server.NewHandler(table, index).NewEcho()
		return e.Start(addr)
	},
}

func init() {
	registerPipelineFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config server_addr)")
	rootCmd.AddCommand(serveCmd)
}
