package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/ctrlchart-cli/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "ctrlchart",
	Short: "ctrlchart: control charts (mean ± 3σ) from lab measurements",
	Long: `ctrlchart reads dated measurements from CSV, XLSX or pasted spreadsheet text,
computes the mean and the ±3 standard deviation control limits, and exports a
two-page PDF with the control chart and the data table.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.ctrlchart/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// loadedConfig returns the loaded configuration, loading it on first use.
func loadedConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// newLogger returns a development logger under --debug. Otherwise commands
// stay quiet unless production is set (used by serve).
func newLogger(production bool) (*zap.Logger, error) {
	switch {
	case debug:
		return zap.NewDevelopment()
	case production:
		return zap.NewProduction()
	default:
		return zap.NewNop(), nil
	}
}
