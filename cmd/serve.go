package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/ctrlchart-cli/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload/paste HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		logger, err := newLogger(true)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		h := &server.Handler{
			Runner:         newRunner(c, logger),
			Presets:        presetCatalog(c),
			Ingest:         ingestOptionsFromConfig(c),
			MaxUploadBytes: int64(c.MaxUploadMB) << 20,
			Logger:         logger.Named("http"),
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &server.Server{Addr: addr, Handler: h.Routes(), Logger: logger}
		if err := srv.ListenAndServe(ctx); err != nil {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config listen_addr)")
}
