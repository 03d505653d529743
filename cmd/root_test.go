package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mj1618/a11y-lens/internal/config"
	"github.com/mj1618/a11y-lens/internal/pipeline"
	"github.com/mj1618/a11y-lens/internal/session"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"analyze", "screenshot", "serve", "http"}
	commands := rootCmd.Commands()

	found := make(map[string]bool)
	for _, c := range commands {
		found[c.Name()] = true
	}

	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestBrowserFlags_Registered(t *testing.T) {
	for _, c := range []string{"analyze", "screenshot"} {
		cmd, _, err := rootCmd.Find([]string{c})
		if err != nil {
			t.Fatal(err)
		}
		for _, f := range []string{"max-retries", "timeout", "viewport", "user-agent", "remote-url", "stealth", "numbered"} {
			if cmd.Flags().Lookup(f) == nil {
				t.Errorf("%s: missing --%s", c, f)
			}
		}
	}
	for _, f := range []string{"stream", "no-ai", "screenshot-out", "upload", "page"} {
		if analyzeCmd.Flags().Lookup(f) == nil {
			t.Errorf("analyze: missing --%s", f)
		}
	}
}

func TestScreenshotHelp_NamesDrawnColors(t *testing.T) {
	if !strings.Contains(screenshotCmd.Long, "red for high, amber for medium, green for low") {
		t.Errorf("screenshot help does not match annotate.PriorityColor: %q", screenshotCmd.Long)
	}
}

func TestApplyBrowserFlags(t *testing.T) {
	c := config.Default()
	if err := analyzeCmd.Flags().Parse([]string{"--max-retries", "5", "--viewport", "1280x720", "--stealth=false"}); err != nil {
		t.Fatal(err)
	}
	defer func() {
		for _, name := range []string{"max-retries", "viewport", "stealth"} {
			analyzeCmd.Flags().Lookup(name).Changed = false
		}
	}()

	if err := applyBrowserFlags(analyzeCmd, c); err != nil {
		t.Fatal(err)
	}
	if c.Navigation.MaxRetries != 5 {
		t.Errorf("max retries: got %d", c.Navigation.MaxRetries)
	}
	if c.Navigation.Viewport != "1280x720" {
		t.Errorf("viewport: got %q", c.Navigation.Viewport)
	}
	if c.Browser.Stealth {
		t.Error("stealth should be disabled")
	}
	if c.Navigation.Timeout != session.DefaultTimeout {
		t.Errorf("unset timeout should keep the default, got %s", c.Navigation.Timeout)
	}
}

func TestNewStore(t *testing.T) {
	c := config.Default()
	s, err := newStore(c)
	if err != nil || s != nil {
		t.Errorf("no store configured: got %v, %v", s, err)
	}

	c.Artifact.Dir = t.TempDir()
	s, err = newStore(c)
	if err != nil || s == nil {
		t.Errorf("dir store: got %v, %v", s, err)
	}
}

func TestErrorMessage(t *testing.T) {
	navErr := &session.NavigationError{URL: "https://x.example", Attempts: 3, Err: errors.New("timeout")}
	tests := []struct {
		err  error
		want string
	}{
		{navErr, pipeline.UserMessage(navErr)},
		{fmt.Errorf("%w: %w", pipeline.ErrCancelled, errors.New("signal")), "The analysis was cancelled."},
		{errors.New("load config: bad yaml"), "load config: bad yaml"},
	}
	for _, tt := range tests {
		if got := errorMessage(tt.err); got != tt.want {
			t.Errorf("errorMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
