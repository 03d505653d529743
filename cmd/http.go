package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/a11y-lens/internal/httpapi"
)

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve the analysis REST API",
	Long: `Serve analyses over HTTP.

Endpoints:
  POST /v1/analyze          JSON result with a base64 annotated PNG
  POST /v1/analyze/stream   server-sent events: fragment..., then result or error
  GET  /healthz

Examples:
  a11y-lens http --addr :8080
  curl -s localhost:8080/v1/analyze -d '{"url": "https://example.com"}'`,
	RunE: runHTTP,
}

func init() {
	rootCmd.AddCommand(httpCmd)
	httpCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	addServiceFlags(httpCmd)
}

func runHTTP(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("addr") {
		cfg.Server.HTTPAddr, _ = cmd.Flags().GetString("addr")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newService(ctx, cmd)
	if err != nil {
		return err
	}
	logger.Info("result cache", zap.String("ttl", cacheTTLString(cfg.Server.CacheTTL)), zap.Int("size", cfg.Server.CacheSize))
	return httpapi.ListenAndServe(ctx, cfg.Server.HTTPAddr, httpapi.New(srv, logger), logger)
}
