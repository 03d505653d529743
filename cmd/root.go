package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/a11y-lens/internal/config"
	"github.com/mj1618/a11y-lens/internal/logging"
	"github.com/mj1618/a11y-lens/internal/output"
	"github.com/mj1618/a11y-lens/internal/pipeline"
	"github.com/mj1618/a11y-lens/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "a11y-lens",
	Short: "Audit web pages for accessibility problems",
	Long: `a11y-lens loads a web page in headless Chrome, extracts its accessibility
facts, flags problematic elements, annotates a full-page screenshot and asks
an AI model for a prioritized WCAG report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Loaded by the root PersistentPreRunE for every subcommand.
var (
	cfg    *config.Config
	logger *zap.Logger
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorMessage(err))
		os.Exit(1)
	}
}

// errorMessage prefers the end-user wording for pipeline failures.
func errorMessage(err error) string {
	if errors.Is(err, pipeline.ErrNavigation) || errors.Is(err, pipeline.ErrCancelled) || errors.Is(err, pipeline.ErrInvalidURL) {
		return pipeline.UserMessage(err)
	}
	return err.Error()
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml, json, text (default text on a terminal, yaml when piped)")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		// fatih/color disables itself when stdout is not a terminal.
		if format == "" {
			if color.NoColor {
				format = string(output.FormatYAML)
			} else {
				format = string(output.FormatText)
			}
		}
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")

		path, _ := rootCmd.PersistentFlags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if lvl, _ := rootCmd.PersistentFlags().GetString("log-level"); lvl != "" {
			c.Log.Level = lvl
		}
		if j, _ := rootCmd.PersistentFlags().GetBool("log-json"); j {
			c.Log.JSON = true
		}

		l, err := logging.New(logging.Options{Level: c.Log.Level, JSON: c.Log.JSON})
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	}
}
