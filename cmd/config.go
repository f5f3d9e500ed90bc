package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/ctrlchart-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set ctrlchart configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "listen_addr: %s\n", c.ListenAddr)
		fmt.Fprintf(out, "max_upload_mb: %d\n", c.MaxUploadMB)
		fmt.Fprintf(out, "csv_delimiter: %q\n", c.CSVDelimiter)
		fmt.Fprintf(out, "decimal_separator: %q\n", c.DecimalSeparator)
		fmt.Fprintf(out, "date_column: %s\n", c.DateColumn)
		fmt.Fprintf(out, "value_column: %s\n", c.ValueColumn)
		if c.SheetName != "" {
			fmt.Fprintf(out, "sheet_name: %s\n", c.SheetName)
		}
		fmt.Fprintf(out, "chart_width: %d\n", c.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", c.ChartHeight)
		if len(c.Presets) > 0 {
			keys := make([]string, 0, len(c.Presets))
			for k := range c.Presets {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(out, "presets:")
			for _, k := range keys {
				fmt.Fprintf(out, "  %s: %s\n", k, c.Presets[k])
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. Presets are set with the key
"presets.<key>", e.g. 'ctrlchart config set presets.ph "pH da Água"'.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	if k, ok := strings.CutPrefix(key, "presets."); ok {
		if k == "" {
			return fmt.Errorf("missing preset key in %s", key)
		}
		if c.Presets == nil {
			c.Presets = map[string]string{}
		}
		if val == "" {
			delete(c.Presets, k)
		} else {
			c.Presets[k] = val
		}
		return nil
	}
	switch key {
	case "output_dir":
		c.OutputDir = val
	case "listen_addr":
		c.ListenAddr = val
	case "max_upload_mb":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for max_upload_mb: %v", val)
		}
		c.MaxUploadMB = i
	case "csv_delimiter":
		switch val {
		case ",", ";", `\t`, "tab":
			c.CSVDelimiter = val
		default:
			return fmt.Errorf("invalid csv_delimiter: %s (use ',', ';' or tab)", val)
		}
	case "decimal_separator":
		switch val {
		case ",", ".":
			c.DecimalSeparator = val
		default:
			return fmt.Errorf("invalid decimal_separator: %s (use ',' or '.')", val)
		}
	case "date_column":
		c.DateColumn = val
	case "value_column":
		c.ValueColumn = val
	case "sheet_name":
		c.SheetName = val
	case "chart_width", "chart_height":
		i, err := strconv.Atoi(val)
		if err != nil || i < 100 {
			return fmt.Errorf("invalid int for %s: %v (minimum 100)", key, val)
		}
		if key == "chart_width" {
			c.ChartWidth = i
		} else {
			c.ChartHeight = i
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
