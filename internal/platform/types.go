package platform

import (
	"fmt"
	"strconv"
	"strings"
)

// WaitStrategy names the lifecycle event navigation waits for.
type WaitStrategy int

const (
	WaitNetworkIdle WaitStrategy = iota
	WaitDOMContentLoaded
	WaitLoad
)

func (w WaitStrategy) String() string {
	switch w {
	case WaitNetworkIdle:
		return "networkidle"
	case WaitDOMContentLoaded:
		return "domcontentloaded"
	case WaitLoad:
		return "load"
	default:
		return fmt.Sprintf("WaitStrategy(%d)", int(w))
	}
}

// WaitStrategyForAttempt escalates from a fully settled page to the bare
// load event. attempt is 1-based.
func WaitStrategyForAttempt(attempt int) WaitStrategy {
	switch {
	case attempt <= 1:
		return WaitNetworkIdle
	case attempt == 2:
		return WaitDOMContentLoaded
	default:
		return WaitLoad
	}
}

// Viewport is the emulated window size in CSS pixels.
type Viewport struct {
	Width, Height int
}

// DefaultViewport is a common desktop resolution.
var DefaultViewport = Viewport{Width: 1920, Height: 1080}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// IsZero reports whether the viewport is unset.
func (v Viewport) IsZero() bool {
	return v.Width <= 0 || v.Height <= 0
}

// ParseViewport parses a "WIDTHxHEIGHT" string.
func ParseViewport(s string) (Viewport, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return Viewport{}, fmt.Errorf("invalid viewport %q: expected WIDTHxHEIGHT", s)
	}
	vals := make([]int, 2)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Viewport{}, fmt.Errorf("invalid viewport %q: %w", s, err)
		}
		if v <= 0 {
			return Viewport{}, fmt.Errorf("invalid viewport %q: dimensions must be positive", s)
		}
		vals[i] = v
	}
	return Viewport{Width: vals[0], Height: vals[1]}, nil
}

// DefaultUserAgent is a realistic desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// PageOptions configures a new page.
type PageOptions struct {
	UserAgent string
	Viewport  Viewport
}
