package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// Input parsing
	CSVDelimiter     string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	DecimalSeparator string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	DateColumn       string `mapstructure:"date_column" yaml:"date_column"`
	ValueColumn      string `mapstructure:"value_column" yaml:"value_column"`
	SheetName        string `mapstructure:"sheet_name" yaml:"sheet_name"`

	// Chart size in pixels
	ChartWidth  int `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int `mapstructure:"chart_height" yaml:"chart_height"`

	// Extra analysis presets, key -> label
	Presets map[string]string `mapstructure:"presets" yaml:"presets,omitempty"`
}

// Dir returns ~/.ctrlchart.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".ctrlchart"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.ctrlchart/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
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
	v.SetEnvPrefix("CTRLCHART")
	v.AutomaticEnv()

	v.SetDefault("output_dir", "")
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("max_upload_mb", 10)
	v.SetDefault("csv_delimiter", ",")
	v.SetDefault("decimal_separator", ",")
	v.SetDefault("date_column", "Data")
	v.SetDefault("value_column", "Valor")
	v.SetDefault("sheet_name", "")
	v.SetDefault("chart_width", 1000)
	v.SetDefault("chart_height", 600)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; a missing file is fine, a malformed one is not
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve output_dir default: ~/.ctrlchart/reports
	if c.OutputDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.OutputDir = filepath.Join(dir, "reports")
	}
	return &c, nil
}

// Rune returns the first rune of s, or def when s is empty. Escaped tab ("\t")
// is accepted for delimiters typed on the command line.
func Rune(s string, def rune) rune {
	switch s {
	case "":
		return def
	case `\t`, "tab":
		return '\t'
	}
	for _, r := range s {
		return r
	}
	return def
}
