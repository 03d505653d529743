// Package summarize turns an assembled prompt into a structured report via
// a generative model.
package summarize

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mj1618/a11y-lens/internal/model"
)

// ErrParse wraps any failure to decode the model's reply.
var ErrParse = errors.New("failed to parse AI response")

// FallbackScore is used when the reply cannot be parsed.
const FallbackScore = 50

// FallbackSummary is the summary of the fallback report.
const FallbackSummary = "Failed to parse AI response"

// Report is the parsed summarizer output.
type Report struct {
	OverallScore int     `yaml:"overallScore" json:"overallScore"`
	Issues       []Issue `yaml:"issues"       json:"issues"`
	Summary      string  `yaml:"summary"      json:"summary"`
	// ParseFailed marks a fallback report.
	ParseFailed bool `yaml:"parseFailed,omitempty" json:"parseFailed,omitempty"`
}

// Issue is one finding reported by the model.
type Issue struct {
	Type           string         `yaml:"type"                    json:"type"`
	Priority       model.Priority `yaml:"priority"                json:"priority"`
	Title          string         `yaml:"title"                   json:"title"`
	Description    string         `yaml:"description"             json:"description"`
	Recommendation string         `yaml:"recommendation"          json:"recommendation"`
	WCAGCriterion  string         `yaml:"wcagCriterion,omitempty" json:"wcagCriterion,omitempty"`
}

// Fallback is the report used when the reply is unusable.
func Fallback() Report {
	return Report{
		OverallScore: FallbackScore,
		Issues:       []Issue{},
		Summary:      FallbackSummary,
		ParseFailed:  true,
	}
}

var policy = bluemonday.StrictPolicy()

// ParseReport decodes a model reply. Markdown fences and prose around the
// outermost JSON object are tolerated. All text is stripped of markup. On
// failure it returns Fallback and an error wrapping ErrParse.
func ParseReport(text string) (Report, error) {
	raw, ok := outermostObject(stripFences(text))
	if !ok {
		return Fallback(), fmt.Errorf("%w: no JSON object in reply", ErrParse)
	}

	var wire struct {
		OverallScore *float64 `json:"overallScore"`
		Issues       []struct {
			Type           string `json:"type"`
			Priority       string `json:"priority"`
			Title          string `json:"title"`
			Description    string `json:"description"`
			Recommendation string `json:"recommendation"`
			WCAGCriterion  string `json:"wcagCriterion"`
		} `json:"issues"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Fallback(), fmt.Errorf("%w: %w", ErrParse, err)
	}
	// A well-formed reply without a score keeps its findings.
	score := float64(FallbackScore)
	if wire.OverallScore != nil {
		score = *wire.OverallScore
	}

	r := Report{
		OverallScore: clampScore(score),
		Issues:       make([]Issue, 0, len(wire.Issues)),
		Summary:      clean(wire.Summary),
	}
	for _, in := range wire.Issues {
		p, err := model.ParsePriority(in.Priority)
		if err != nil {
			p = model.PriorityMedium
		}
		r.Issues = append(r.Issues, Issue{
			Type:           clean(in.Type),
			Priority:       p,
			Title:          clean(in.Title),
			Description:    clean(in.Description),
			Recommendation: clean(in.Recommendation),
			WCAGCriterion:  clean(in.WCAGCriterion),
		})
	}
	return r, nil
}

// clean strips markup and undoes the entity escaping the policy applies,
// so reports stay plain text.
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

func clampScore(f float64) int {
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	default:
		return int(f + 0.5)
	}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, "```")
}

func outermostObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
