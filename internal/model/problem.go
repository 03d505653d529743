package model

import (
	"fmt"
	"strings"
)

// Priority ranks a problematic element.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority converts a string to a Priority (case-insensitive).
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return "", fmt.Errorf("unknown priority: %q (expected high, medium, or low)", s)
	}
}

// ProblematicElement is a DOM element flagged by a heuristic rule.
type ProblematicElement struct {
	Selector    string      `yaml:"selector"    json:"selector"` // best-effort label, not unique
	Text        string      `yaml:"text"        json:"text"`
	Issue       string      `yaml:"issue"       json:"issue"`
	Priority    Priority    `yaml:"priority"    json:"priority"`
	BoundingBox BoundingBox `yaml:"boundingBox" json:"boundingBox"`
}

// Issue descriptions emitted by the detector.
const (
	IssueMissingAlt       = "Missing alt text for image"
	IssueUnlabeledInput   = "Form input lacks proper labeling"
	IssueUndescribedLink  = "Link lacks descriptive text"
	issueHeadingSkippedFm = "Heading level skipped (H%d to H%d)"
)

// HeadingSkippedIssue formats the heading-skip issue text.
func HeadingSkippedIssue(from, to int) string {
	return fmt.Sprintf(issueHeadingSkippedFm, from, to)
}
