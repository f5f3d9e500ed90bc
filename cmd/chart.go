package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/ctrlchart-cli/internal/archive"
	"github.com/KaramelBytes/ctrlchart-cli/internal/export"
	"github.com/KaramelBytes/ctrlchart-cli/internal/pipeline"
	"github.com/KaramelBytes/ctrlchart-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	chartInput     inputFlags
	chartOutputDir string
	chartNoArchive bool
)

var chartCmd = &cobra.Command{
	Use:   "chart [file|-]",
	Short: "Compute control limits and export the chart + table as PDF",
	Long: `Reads a CSV, TSV or XLSX file with the columns Data and Valor (or pasted
tab-separated text via --paste or '-'), prints a summary and writes
<analysis>.pdf into the output directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		name, err := chartInput.analysisName(presetCatalog(c))
		if err != nil {
			return err
		}
		opt, err := chartInput.ingestOptions(c)
		if err != nil {
			return err
		}
		in, src, origin, closeIn, err := chartInput.openInput(args, opt)
		if err != nil {
			return err
		}
		defer closeIn()

		outDir := chartOutputDir
		if outDir == "" {
			outDir = c.OutputDir
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("ensure output dir: %w", err)
		}
		outPath := filepath.Join(outDir, export.FileName(name))

		logger, err := newLogger(false)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		res, err := newRunner(c, logger).Run(pipeline.Request{
			Input:      in,
			Source:     src,
			Analysis:   name,
			OutputPath: outPath,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), res.Summary.Markdown())
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", outPath)

		if chartNoArchive {
			return nil
		}
		a, err := archive.Open(outDir)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: archive not updated: %v\n", err)
			return nil
		}
		e := a.Add(name, filepath.Base(outPath), origin, res.Sample.Len(), res.Limits)
		if err := a.Save(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: archive not updated: %v\n", err)
			return nil
		}
		logger.Debug("archived", zap.String("id", e.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartInput.register(chartCmd)
	chartCmd.Flags().StringVarP(&chartOutputDir, "output-dir", "o", "", "directory for the PDF (default from config output_dir)")
	chartCmd.Flags().BoolVar(&chartNoArchive, "no-archive", false, "do not record the report in archive.json")
}
