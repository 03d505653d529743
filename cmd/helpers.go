package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/a11y-lens/internal/artifact"
	"github.com/mj1618/a11y-lens/internal/config"
	"github.com/mj1618/a11y-lens/internal/pipeline"
	"github.com/mj1618/a11y-lens/internal/platform"
	"github.com/mj1618/a11y-lens/internal/summarize"
)

// addBrowserFlags registers the navigation and browser overrides shared by
// commands that load pages.
func addBrowserFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-retries", 0, "Navigation attempts before giving up (default 3)")
	cmd.Flags().Duration("timeout", 0, "Per-attempt navigation timeout (default 30s)")
	cmd.Flags().String("viewport", "", "Viewport as WIDTHxHEIGHT (default 1920x1080)")
	cmd.Flags().String("user-agent", "", "Override the browser user agent")
	cmd.Flags().String("remote-url", "", "Connect to a running Chrome DevTools endpoint instead of launching one")
	cmd.Flags().Bool("stealth", true, "Apply anti-bot-detection patches to pages")
	cmd.Flags().Bool("numbered", false, "Number screenshot badges to match the problem list")
}

// applyBrowserFlags layers explicitly set flags over c.
func applyBrowserFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("max-retries") {
		c.Navigation.MaxRetries, _ = flags.GetInt("max-retries")
	}
	if flags.Changed("timeout") {
		c.Navigation.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("viewport") {
		c.Navigation.Viewport, _ = flags.GetString("viewport")
	}
	if flags.Changed("user-agent") {
		c.Navigation.UserAgent, _ = flags.GetString("user-agent")
	}
	if flags.Changed("remote-url") {
		c.Browser.RemoteURL, _ = flags.GetString("remote-url")
	}
	if flags.Changed("stealth") {
		c.Browser.Stealth, _ = flags.GetBool("stealth")
	}
	return c.Validate()
}

// newAnalyzer wires the browser backend and, when configured, the Gemini
// summarizers.
func newAnalyzer(ctx context.Context, c *config.Config, log *zap.Logger) (*pipeline.Analyzer, error) {
	provider, err := platform.NewProvider(c.LaunchOptions())
	if err != nil {
		return nil, err
	}
	a := &pipeline.Analyzer{Launcher: provider.Launcher, Logger: log}

	if !c.AI.Enabled {
		return a, nil
	}
	if c.AI.APIKey == "" {
		log.Warn("GEMINI_API_KEY is not set; AI summaries are disabled")
		return a, nil
	}
	g, err := summarize.NewGemini(ctx, c.AI.APIKey, c.AI.Model)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	log.Debug("AI summaries enabled", zap.String("model", g.Name()))
	a.Batch = &summarize.Batch{Model: g, Logger: log}
	a.Streaming = &summarize.Streaming{Model: g, Logger: log}
	return a, nil
}

// newStore returns the configured artifact store, or nil when none is.
// An S3 endpoint takes precedence over a local directory.
func newStore(c *config.Config) (artifact.Store, error) {
	switch {
	case c.Artifact.Endpoint != "":
		return artifact.NewS3Store(artifact.S3Config{
			Endpoint:  c.Artifact.Endpoint,
			Region:    c.Artifact.Region,
			AccessKey: c.Artifact.AccessKey,
			SecretKey: c.Artifact.SecretKey,
			Bucket:    c.Artifact.Bucket,
			UseSSL:    c.Artifact.UseSSL,
		})
	case c.Artifact.Dir != "":
		return &artifact.FileStore{Dir: c.Artifact.Dir}, nil
	default:
		return nil, nil
	}
}
