package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/mj1618/a11y-lens/internal/model"
	"github.com/mj1618/a11y-lens/internal/pipeline"
	"github.com/mj1618/a11y-lens/internal/summarize"
)

// AnalysisResult is the top-level output of the `analyze` command.
type AnalysisResult struct {
	URL          string                                       `yaml:"url"                    json:"url"`
	Title        string                                       `yaml:"title"                  json:"title"`
	Attempts     int                                          `yaml:"attempts"               json:"attempts"`
	Duration     string                                       `yaml:"duration"               json:"duration"`
	Report       *summarize.Report                            `yaml:"report,omitempty"       json:"report,omitempty"`
	Problems     model.LimitedData[model.ProblematicElement] `yaml:"problems"               json:"problems"`
	Limits       model.LimitsInfo                             `yaml:"limits"                 json:"limits"`
	Page         *model.AccessibilityData                     `yaml:"page,omitempty"         json:"page,omitempty"`
	Screenshot   string                                       `yaml:"screenshot,omitempty"   json:"screenshot,omitempty"`
	Degradations []pipeline.Degradation                       `yaml:"degradations,omitempty" json:"degradations,omitempty"`
}

// NewAnalysisResult projects a pipeline result. withPage includes the full
// extracted facts; location is where the annotated screenshot was stored.
func NewAnalysisResult(res *pipeline.Result, withPage bool, location string) AnalysisResult {
	out := AnalysisResult{
		URL:          res.URL,
		Title:        res.Payload.AccessibilityData.Title,
		Attempts:     res.AttemptsUsed,
		Duration:     res.Duration.Round(time.Millisecond).String(),
		Report:       res.Report,
		Problems:     res.Payload.ProblematicElements,
		Limits:       res.Payload.LimitsInfo,
		Screenshot:   location,
		Degradations: res.Degradations,
	}
	if withPage {
		data := res.Payload.AccessibilityData
		out.Page = &data
	}
	return out
}

// PriorityColor returns the terminal color for p.
func PriorityColor(p model.Priority) *color.Color {
	switch p {
	case model.PriorityHigh:
		return color.New(color.FgRed, color.Bold)
	case model.PriorityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func scoreColor(score int) *color.Color {
	switch {
	case score >= 80:
		return color.New(color.FgGreen, color.Bold)
	case score >= 50:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

// WriteText implements Texter.
func (r AnalysisResult) WriteText(w io.Writer) error {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	bold.Fprintf(w, "%s\n", r.Title)
	faint.Fprintf(w, "%s  (%d attempt(s), %s)\n\n", r.URL, r.Attempts, r.Duration)

	if r.Report != nil {
		fmt.Fprint(w, "Score: ")
		scoreColor(r.Report.OverallScore).Fprintf(w, "%d/100\n", r.Report.OverallScore)
		if r.Report.Summary != "" {
			fmt.Fprintf(w, "%s\n", r.Report.Summary)
		}
		fmt.Fprintln(w)
		for _, is := range r.Report.Issues {
			PriorityColor(is.Priority).Fprintf(w, "[%s] ", strings.ToUpper(string(is.Priority)))
			bold.Fprint(w, is.Title)
			if is.WCAGCriterion != "" {
				faint.Fprintf(w, " (WCAG %s)", is.WCAGCriterion)
			}
			fmt.Fprintln(w)
			if is.Description != "" {
				fmt.Fprintf(w, "    %s\n", is.Description)
			}
			if is.Recommendation != "" {
				fmt.Fprintf(w, "    Fix: %s\n", is.Recommendation)
			}
		}
		if len(r.Report.Issues) > 0 {
			fmt.Fprintln(w)
		}
	}

	bold.Fprintf(w, "Problematic elements (%d", r.Problems.Len())
	if r.Problems.Limited {
		bold.Fprint(w, ", limited")
	}
	bold.Fprintln(w, ")")
	for i, p := range r.Problems.Items {
		fmt.Fprintf(w, "%3d. ", i+1)
		PriorityColor(p.Priority).Fprintf(w, "%-6s ", p.Priority)
		fmt.Fprintf(w, "%s  %s", p.Selector, p.Issue)
		if p.Text != "" {
			faint.Fprintf(w, "  %q", model.TruncateTo(p.Text, 60))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	faint.Fprintln(w, r.Limits.Summary)
	for _, d := range r.Degradations {
		color.New(color.FgYellow).Fprintf(w, "warning: %s: %s\n", d.Stage, d.Message)
	}
	if r.Screenshot != "" {
		fmt.Fprintf(w, "Annotated screenshot: %s\n", r.Screenshot)
	}
	return nil
}
