package cmd

import (
	"fmt"

	"github.com/KaramelBytes/ctrlchart-cli/internal/pipeline"
	"github.com/KaramelBytes/ctrlchart-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	limitsInput inputFlags
	limitsJSON  bool
)

var limitsCmd = &cobra.Command{
	Use:   "limits [file|-]",
	Short: "Print the control limits and summary without exporting a PDF",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		// the analysis name is optional here; it only labels the summary
		name := ""
		if limitsInput.analysis != "" || limitsInput.preset != "" {
			if name, err = limitsInput.analysisName(presetCatalog(c)); err != nil {
				return err
			}
		}
		opt, err := limitsInput.ingestOptions(c)
		if err != nil {
			return err
		}
		in, src, _, closeIn, err := limitsInput.openInput(args, opt)
		if err != nil {
			return err
		}
		defer closeIn()

		logger, err := newLogger(false)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		res, err := newRunner(c, logger).Run(pipeline.Request{Input: in, Source: src, Analysis: name, SkipPDF: true})
		if err != nil {
			return err
		}
		if limitsJSON {
			b, err := utils.PrettyJSON(res.Summary)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), res.Summary.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(limitsCmd)
	limitsInput.register(limitsCmd)
	limitsCmd.Flags().BoolVar(&limitsJSON, "json", false, "print the summary as JSON")
}
