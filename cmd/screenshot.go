package cmd

import (
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mj1618/a11y-lens/internal/pipeline"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot <url>",
	Short: "Capture an annotated screenshot",
	Long: `Capture a full-page screenshot with every problematic element outlined in
its priority color: red for high, amber for medium, green for low.
No AI call is made.`,
	Args: cobra.ExactArgs(1),
	RunE: runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	addBrowserFlags(screenshotCmd)
	screenshotCmd.Flags().String("output", "", "Output file path (default: stdout as base64)")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	if err := applyBrowserFlags(cmd, cfg); err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("output")
	numbered, _ := cmd.Flags().GetBool("numbered")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, err := newAnalyzer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	res, err := analyzer.Analyze(ctx, args[0], pipeline.Options{
		Session: cfg.SessionOptions(logger),
		SkipAI:  true,
		Labels:  labelMode(numbered),
	})
	if err != nil {
		return err
	}
	if len(res.Screenshot) == 0 {
		return fmt.Errorf("screenshot could not be captured")
	}
	for _, d := range res.Degradations {
		logger.Warn(d.Message)
	}

	if out != "" {
		return os.WriteFile(out, res.Screenshot, 0644)
	}

	// Default: write to stdout as base64 for easy agent consumption
	encoder := base64.NewEncoder(base64.StdEncoding, os.Stdout)
	if _, err := encoder.Write(res.Screenshot); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	fmt.Println()
	return nil
}
