package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/KaramelBytes/ctrlchart-cli/internal/archive"
	"github.com/spf13/cobra"
)

var (
	historyDir    string
	historyRemove string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List reports recorded in the output directory archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		dir := historyDir
		if dir == "" {
			dir = c.OutputDir
		}
		a, err := archive.Load(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "(no reports)")
				return nil
			}
			return err
		}
		out := cmd.OutOrStdout()
		if historyRemove != "" {
			if err := a.Remove(historyRemove); err != nil {
				return err
			}
			if err := a.Save(); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Removed %s from archive\n", historyRemove)
			return nil
		}
		entries := a.Entries()
		if len(entries) == 0 {
			fmt.Fprintln(out, "(no reports)")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "- %s %s %s -> %s (n=%d, mean %.4g, LSC %.4g, LIC %.4g)\n",
				shortID(e.ID), e.CreatedAt.Format("2006-01-02 15:04"), e.Analysis, e.File, e.Rows, e.Mean, e.Upper, e.Lower)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVarP(&historyDir, "output-dir", "o", "", "archive directory (default from config output_dir)")
	historyCmd.Flags().StringVar(&historyRemove, "remove", "", "remove an entry by id (prefix allowed); the PDF is kept")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
