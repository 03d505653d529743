// Package pipeline runs one accessibility analysis end to end: load the
// page, extract facts, detect problems, annotate the screenshot, assemble
// the payload and optionally summarize it.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mj1618/a11y-lens/internal/annotate"
	"github.com/mj1618/a11y-lens/internal/detect"
	"github.com/mj1618/a11y-lens/internal/extract"
	"github.com/mj1618/a11y-lens/internal/model"
	"github.com/mj1618/a11y-lens/internal/payload"
	"github.com/mj1618/a11y-lens/internal/platform"
	"github.com/mj1618/a11y-lens/internal/session"
	"github.com/mj1618/a11y-lens/internal/summarize"
)

// Options tunes one analysis.
type Options struct {
	Session session.Options

	// SkipAI stops after the payload is assembled.
	SkipAI bool
	// Stream selects the streaming summarizer when one is configured.
	Stream bool
	// OnFragment receives raw AI reply fragments in order.
	OnFragment func(string)

	Labels annotate.LabelMode
}

// Result is a completed analysis. Fields are never partially filled after
// cancellation; Analyze returns no Result at all in that case.
type Result struct {
	URL          string            `yaml:"url"                    json:"url"`
	AttemptsUsed int               `yaml:"attemptsUsed"           json:"attemptsUsed"`
	Payload      payload.Payload   `yaml:"payload"                json:"payload"`
	Prompt       string            `yaml:"-"                      json:"-"`
	Report       *summarize.Report `yaml:"report,omitempty"       json:"report,omitempty"`
	// Screenshot is a PNG, annotated when Annotated is set.
	Screenshot   []byte            `yaml:"-"                      json:"-"`
	Annotated    bool              `yaml:"annotated"              json:"annotated"`
	Degradations []Degradation     `yaml:"degradations,omitempty" json:"degradations,omitempty"`
	Duration     time.Duration     `yaml:"duration"               json:"duration"`
}

// Analyzer wires the pipeline's collaborators. The zero value is not
// usable; Launcher is required. Analyzer holds no per-run state, so one
// value may serve concurrent calls, each with its own browser.
type Analyzer struct {
	Launcher  platform.Launcher
	Batch     summarize.Summarizer // optional
	Streaming summarize.Summarizer // optional
	Logger    *zap.Logger
}

func (a *Analyzer) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *Analyzer) summarizer(opts Options) summarize.Summarizer {
	if opts.SkipAI {
		return nil
	}
	if opts.Stream && a.Streaming != nil {
		return a.Streaming
	}
	return a.Batch
}

// Analyze runs the pipeline against url. It returns an error matching
// ErrNavigation when the page never loaded, ErrCancelled when ctx ended
// first, and ErrInvalidURL for unusable input. Every other failure is
// absorbed into Result.Degradations.
func (a *Analyzer) Analyze(ctx context.Context, url string, opts Options) (*Result, error) {
	start := time.Now()
	log := a.logger().With(zap.String("url", url))

	if err := ValidateURL(url); err != nil {
		return nil, err
	}

	sopts := opts.Session
	if sopts.Logger == nil {
		sopts.Logger = log
	}
	sess, err := session.Acquire(ctx, a.Launcher, url, sopts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		log.Error("navigation failed", zap.Error(err))
		return nil, err
	}
	defer sess.Release()

	res := &Result{URL: url, AttemptsUsed: sess.AttemptsUsed}
	degrade := func(stage string, err error) {
		log.Warn("stage degraded", zap.String("stage", stage), zap.Error(err))
		res.Degradations = append(res.Degradations, Degradation{Stage: stage, Message: err.Error()})
	}

	data, problems, extractErr, detectErr := a.inspect(ctx, sess.Page, log)
	if ctx.Err() != nil {
		return nil, cancelled(ctx)
	}
	if extractErr != nil {
		degrade(StageExtract, extractErr)
	}
	if detectErr != nil {
		degrade(StageDetect, detectErr)
	}

	shot, err := sess.Page.Screenshot(ctx, true)
	switch {
	case ctx.Err() != nil:
		return nil, cancelled(ctx)
	case err != nil:
		degrade(StageScreenshot, errors.Join(ErrScreenshotDegraded, err))
	default:
		annotated, aerr := annotate.AnnotatePNG(shot, problems.Items, opts.Labels)
		if aerr != nil {
			degrade(StageAnnotate, aerr)
		}
		res.Screenshot = annotated
		res.Annotated = aerr == nil
	}

	res.Payload = payload.Assemble(data, problems)
	res.Prompt = payload.BuildPrompt(url, res.Payload)
	log.Debug("payload assembled",
		zap.Any("counts", payload.Counts(res.Payload)),
		zap.Bool("limited", res.Payload.LimitsInfo.AnyLimited))

	// The browser is not needed for summarizing.
	sess.Release()

	if s := a.summarizer(opts); s != nil {
		report, err := s.Summarize(ctx, res.Prompt, opts.OnFragment)
		switch {
		case ctx.Err() != nil:
			return nil, cancelled(ctx)
		case err != nil:
			degrade(StageSummarize, errors.Join(ErrAIUnavailable, err))
		default:
			if perr := summarize.ParseError(report); perr != nil {
				degrade(StageSummarize, perr)
			}
			res.Report = &report
		}
	}

	if ctx.Err() != nil {
		return nil, cancelled(ctx)
	}
	res.Duration = time.Since(start)
	log.Info("analysis complete",
		zap.Int("attempts", res.AttemptsUsed),
		zap.Int("problems", res.Payload.ProblematicElements.Len()),
		zap.Int("degradations", len(res.Degradations)),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// inspect runs extraction and detection concurrently on the same page.
// Both only read from it.
func (a *Analyzer) inspect(ctx context.Context, page platform.Page, log *zap.Logger) (
	data model.AccessibilityData,
	problems model.LimitedData[model.ProblematicElement],
	extractErr, detectErr error,
) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, extractErr = extract.FromPage(gctx, page)
		return gctx.Err()
	})
	g.Go(func() error {
		problems, detectErr = detect.Detect(gctx, page, detect.Options{Logger: log})
		return gctx.Err()
	})
	_ = g.Wait()
	return data, problems, extractErr, detectErr
}
