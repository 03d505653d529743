package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mj1618/a11y-lens/internal/annotate"
	"github.com/mj1618/a11y-lens/internal/detect"
	"github.com/mj1618/a11y-lens/internal/extract"
	"github.com/mj1618/a11y-lens/internal/session"
	"github.com/mj1618/a11y-lens/internal/summarize"
)

// Fatal outcomes. Only these abort a run.
var (
	ErrNavigation = session.ErrNavigation
	ErrCancelled  = errors.New("analysis cancelled")
	ErrInvalidURL = errors.New("invalid URL")
)

// Absorbed outcomes, recorded as degradations on the Result.
var (
	ErrExtractionDegraded = extract.ErrDegraded
	ErrDetectionDegraded  = detect.ErrDegraded
	ErrAnnotationDegraded = annotate.ErrDegraded
	ErrScreenshotDegraded = errors.New("screenshot degraded")
	ErrAIParse            = summarize.ErrParse
	ErrAIUnavailable      = errors.New("AI summary unavailable")
)

// Stage names used in Degradation.
const (
	StageExtract    = "extract"
	StageDetect     = "detect"
	StageScreenshot = "screenshot"
	StageAnnotate   = "annotate"
	StageSummarize  = "summarize"
)

// Degradation records a stage that fell back to a reduced result.
type Degradation struct {
	Stage   string `yaml:"stage"   json:"stage"`
	Message string `yaml:"message" json:"message"`
}

func cancelled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// UserMessage maps an Analyze error to short text suitable for end users.
func UserMessage(err error) string {
	var navErr *session.NavigationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return "The analysis was cancelled."
	case errors.As(err, &navErr):
		return fmt.Sprintf("Could not reach the site after %d attempts. Check that the URL is correct and publicly reachable, then try again.", navErr.Attempts)
	case errors.Is(err, ErrNavigation):
		return "Could not reach the site. Check that the URL is correct and publicly reachable, then try again."
	case errors.Is(err, ErrInvalidURL):
		return "Enter a full web address starting with http:// or https://."
	default:
		return "The analysis failed unexpectedly. Please try again."
	}
}
