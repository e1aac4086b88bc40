package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/statweave/assoctab-cli/internal/config"
	"github.com/statweave/assoctab-cli/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set assoctab configuration",
}

var configShowJSON bool

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		if configShowJSON {
			b, err := utils.PrettyJSON(cfg)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Printf("fields: %s\n", strings.Join(cfg.Fields, ", "))
		fmt.Printf("max_combo_size: %d\n", cfg.MaxComboSize)
		fmt.Printf("notable_threshold: %.3f\n", cfg.NotableThreshold)
		fmt.Printf("significance_threshold: %d\n", cfg.SignificanceThreshold)
		fmt.Printf("workers: %d\n", cfg.Workers)
		fmt.Printf("missing_values: %s\n", strings.Join(cfg.MissingValues, ", "))
		if cfg.Delimiter != "" {
			fmt.Printf("delimiter: %q\n", cfg.Delimiter)
		}
		fmt.Printf("server_addr: %s\n", cfg.ServerAddr)
		fmt.Printf("reports_dir: %s\n", cfg.ReportsDir)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "fields":
			cfg.Fields = splitList(val)
		case "max_combo_size":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid max_combo_size: %s", val)
			}
			cfg.MaxComboSize = n
		case "notable_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid notable_threshold: %s", val)
			}
			cfg.NotableThreshold = f
		case "significance_threshold":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid significance_threshold: %s", val)
			}
			cfg.SignificanceThreshold = n
		case "workers":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid workers: %s", val)
			}
			cfg.Workers = n
		case "missing_values":
			cfg.MissingValues = splitList(val)
		case "delimiter":
			if val == "tab" {
				val = "\t"
			}
			cfg.Delimiter = val
		case "server_addr":
			cfg.ServerAddr = val
		case "reports_dir":
			cfg.ReportsDir = val
		default:
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Printf("✓ Saved %s\n", key)
		return nil
	},
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "print configuration as JSON")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
