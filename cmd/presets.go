package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List analysis presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		for _, p := range presetCatalog(c).List() {
			fmt.Fprintf(cmd.OutOrStdout(), "- %s: %s\n", p.Key, p.Label)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
