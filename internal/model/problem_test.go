package model

import "testing"

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input string
		want  Priority
	}{
		{"high", PriorityHigh},
		{"HIGH", PriorityHigh},
		{" Medium ", PriorityMedium},
		{"low", PriorityLow},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.input)
		if err != nil {
			t.Errorf("ParsePriority(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParsePriority(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
	if _, err := ParsePriority("critical"); err == nil {
		t.Error("ParsePriority(\"critical\") should fail")
	}
}

func TestHeadingSkippedIssue(t *testing.T) {
	if got := HeadingSkippedIssue(1, 3); got != "Heading level skipped (H1 to H3)" {
		t.Errorf("got %q", got)
	}
}
