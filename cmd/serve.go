package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/a11y-lens/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the analyze and screenshot tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes a11y-lens as
tools. AI agents can audit pages without shell overhead.

Supported transports:
  stdio             Standard I/O (default, for local MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  a11y-lens serve
  a11y-lens serve --transport streamable-http --port 8080
  a11y-lens serve --cache-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	addServiceFlags(serveCmd)
}

// addServiceFlags registers the cache and concurrency flags shared by the
// long-running servers.
func addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("cache-ttl", 0, "Result cache TTL (default from config, 0 to disable)")
	cmd.Flags().Int("max-concurrent", 0, "Maximum simultaneous analyses (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")

	srv, err := newService(cmd.Context(), cmd)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return srv.Serve(transport, fmt.Sprintf(":%d", port))
}

// newService builds the cached, bounded analysis service from config and
// the service flags.
func newService(ctx context.Context, cmd *cobra.Command) (*server.Server, error) {
	if cmd.Flags().Changed("cache-ttl") {
		cfg.Server.CacheTTL, _ = cmd.Flags().GetDuration("cache-ttl")
	}
	if cmd.Flags().Changed("max-concurrent") {
		cfg.Server.MaxConcurrent, _ = cmd.Flags().GetInt("max-concurrent")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	analyzer, err := newAnalyzer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	return server.New(analyzer, server.Config{
		Session:       cfg.SessionOptions(logger),
		CacheSize:     cfg.Server.CacheSize,
		CacheTTL:      cfg.Server.CacheTTL,
		MaxConcurrent: cfg.Server.MaxConcurrent,
		AIDisabled:    !cfg.AI.Enabled,
		Store:         store,
		Logger:        logger,
	}), nil
}

// cacheTTLString renders a TTL for log output.
func cacheTTLString(d time.Duration) string {
	if d == 0 {
		return "disabled"
	}
	return d.String()
}
