package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/civicpulse/civicpulse/internal/api"
	"github.com/civicpulse/civicpulse/internal/metrics"
)

var serveAddress string

// serveCmd starts the HTTP adapter.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query API over HTTP",
	Long: `Start the HTTP adapter: POST /v1/query answers questions, /healthz
reports liveness and /metrics exposes Prometheus collectors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := loadConfig()
		if serveAddress != "" {
			cfg.Server.Address = serveAddress
		}

		orchestrator, source, logger, err := buildPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = source.Close(context.Background()) }()

		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return err
		}

		server := api.NewServer(orchestrator, logger)
		return server.Run(ctx, cfg.Server)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
