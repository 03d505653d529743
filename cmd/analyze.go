package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/a11y-lens/internal/annotate"
	"github.com/mj1618/a11y-lens/internal/artifact"
	"github.com/mj1618/a11y-lens/internal/output"
	"github.com/mj1618/a11y-lens/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Run a full accessibility analysis of a web page",
	Long: `Load the page, extract its accessibility facts, flag problematic elements,
annotate a full-page screenshot and ask Gemini for a prioritized report.

The AI step needs GEMINI_API_KEY; without it the extracted facts are still
printed. Press Ctrl-C to cancel; nothing is printed for a cancelled run.

Examples:
  a11y-lens analyze https://example.com
  a11y-lens analyze https://example.com --stream --screenshot-out annotated.png
  a11y-lens analyze https://example.com --no-ai --format json --page`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addBrowserFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("stream", false, "Stream the AI reply to stderr as it arrives")
	analyzeCmd.Flags().Bool("no-ai", false, "Skip the AI report")
	analyzeCmd.Flags().Bool("page", false, "Include all extracted page facts in the output")
	analyzeCmd.Flags().String("screenshot-out", "", "Write the annotated screenshot to this file")
	analyzeCmd.Flags().Bool("upload", false, "Upload the annotated screenshot to the configured artifact store")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := applyBrowserFlags(cmd, cfg); err != nil {
		return err
	}
	stream, _ := cmd.Flags().GetBool("stream")
	noAI, _ := cmd.Flags().GetBool("no-ai")
	withPage, _ := cmd.Flags().GetBool("page")
	shotOut, _ := cmd.Flags().GetString("screenshot-out")
	upload, _ := cmd.Flags().GetBool("upload")
	numbered, _ := cmd.Flags().GetBool("numbered")
	if !cmd.Flags().Changed("stream") {
		stream = cfg.AI.Stream
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store artifact.Store
	if upload {
		s, err := newStore(cfg)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("--upload needs artifact.endpoint or artifact.dir in the config")
		}
		store = s
	}

	analyzer, err := newAnalyzer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Session: cfg.SessionOptions(logger),
		SkipAI:  noAI,
		Stream:  stream,
		Labels:  labelMode(numbered),
	}
	if stream {
		opts.OnFragment = func(s string) { fmt.Fprint(os.Stderr, s) }
	}

	res, err := analyzer.Analyze(ctx, args[0], opts)
	if stream {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	location, err := saveScreenshot(ctx, res, shotOut, store)
	if err != nil {
		logger.Warn("screenshot not saved", zap.Error(err))
	}
	return output.Print(output.NewAnalysisResult(res, withPage, location))
}

func labelMode(numbered bool) annotate.LabelMode {
	if numbered {
		return annotate.LabelIndex
	}
	return annotate.LabelMark
}

// saveScreenshot writes and uploads the screenshot as requested and
// returns where it can be found. Upload wins over the local path.
func saveScreenshot(ctx context.Context, res *pipeline.Result, path string, store artifact.Store) (string, error) {
	if len(res.Screenshot) == 0 {
		return "", nil
	}
	location := ""
	if path != "" {
		if err := os.WriteFile(path, res.Screenshot, 0644); err != nil {
			return "", err
		}
		location = path
	}
	if store != nil {
		loc, err := store.Put(ctx, artifact.NewRunID(), artifact.AnnotatedName, res.Screenshot)
		if err != nil {
			return location, fmt.Errorf("upload: %w", err)
		}
		location = loc
	}
	return location, nil
}
