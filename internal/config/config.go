package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Fields lists the CSV columns to track, in axis order.
	Fields []string `mapstructure:"fields" yaml:"fields" json:"fields"`
	// MaxComboSize caps the field-name combination size (0 = all sizes).
	MaxComboSize int `mapstructure:"max_combo_size" yaml:"max_combo_size" json:"max_combo_size"`
	// NotableThreshold is the symmetric notability floor around 1.0.
	NotableThreshold float64 `mapstructure:"notable_threshold" yaml:"notable_threshold" json:"notable_threshold"`
	// SignificanceThreshold is the minimum supporting occurrence count.
	SignificanceThreshold int `mapstructure:"significance_threshold" yaml:"significance_threshold" json:"significance_threshold"`
	// Workers sizes the worker pool (0 = number of CPUs).
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`
	// MissingValues are treated as missing in addition to the empty string.
	MissingValues []string `mapstructure:"missing_values" yaml:"missing_values" json:"missing_values"`
	// Delimiter overrides CSV delimiter detection ("," ";" or "\t").
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter" json:"delimiter"`
	// ServerAddr is the listen address for the serve command.
	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr" json:"server_addr"`
	// ReportsDir is where analyze --out writes reports by default.
	ReportsDir string `mapstructure:"reports_dir" yaml:"reports_dir" json:"reports_dir"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.assoctab/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".assoctab")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("ASSOCTAB")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("fields", []string{})
	v.SetDefault("max_combo_size", 0)
	v.SetDefault("notable_threshold", 1.5)
	v.SetDefault("significance_threshold", 3)
	v.SetDefault("workers", 0)
	v.SetDefault("missing_values", []string{"NA", "Unknown", "None listed"})
	v.SetDefault("delimiter", "")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("reports_dir", "")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".assoctab")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ReportsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		c.ReportsDir = filepath.Join(home, ".assoctab", "reports")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects option values the association search cannot honor.
func (c *Global) Validate() error {
	if c.NotableThreshold != 0 && c.NotableThreshold < 1 {
		return fmt.Errorf("notable_threshold must be >= 1.0, got %v", c.NotableThreshold)
	}
	if c.SignificanceThreshold < 0 {
		return fmt.Errorf("significance_threshold must be non-negative, got %d", c.SignificanceThreshold)
	}
	switch c.Delimiter {
	case "", ",", ";", "\t":
	default:
		return fmt.Errorf("unsupported delimiter %q", c.Delimiter)
	}
	return nil
}

// DelimiterRune returns the configured delimiter, 0 when unset.
func (c *Global) DelimiterRune() rune {
	if c.Delimiter == "" {
		return 0
	}
	return rune(c.Delimiter[0])
}
