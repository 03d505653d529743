// Package session acquires a navigated browser page with bounded retries.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/a11y-lens/internal/platform"
)

// Defaults applied by Options.withDefaults.
const (
	DefaultMaxRetries   = 3
	DefaultTimeout      = 30 * time.Second
	DefaultSettleDelay  = 2 * time.Second
	DefaultRetryBackoff = 1 * time.Second
)

// ErrNavigation is matched by every *NavigationError.
var ErrNavigation = errors.New("navigation failed")

// NavigationError reports that every attempt to load URL failed.
type NavigationError struct {
	URL      string
	Attempts int
	Err      error // last attempt's error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to load %s after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *NavigationError) Unwrap() []error { return []error{ErrNavigation, e.Err} }

// Options tunes Acquire. Zero values take the package defaults.
type Options struct {
	MaxRetries   int
	Timeout      time.Duration // per attempt
	Viewport     platform.Viewport
	UserAgent    string
	SettleDelay  time.Duration // negative disables the pause
	RetryBackoff time.Duration // negative disables the pause
	Logger       *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Viewport.IsZero() {
		o.Viewport = platform.DefaultViewport
	}
	if o.UserAgent == "" {
		o.UserAgent = platform.DefaultUserAgent
	}
	if o.SettleDelay == 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.RetryBackoff == 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Session is a live page that finished loading. Callers must Release it.
type Session struct {
	Page         platform.Page
	AttemptsUsed int
	URL          string

	browser platform.Browser
	once    sync.Once
}

// Release closes the page and then the browser. Safe to call more than once.
func (s *Session) Release() {
	s.once.Do(func() {
		if s.Page != nil {
			_ = s.Page.Close()
		}
		if s.browser != nil {
			_ = s.browser.Close()
		}
	})
}

// Acquire launches a browser and navigates to url, escalating the wait
// strategy on each attempt. Attempts are strictly sequential.
func Acquire(ctx context.Context, l platform.Launcher, url string, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With(zap.String("url", url))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := l.Launch(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NavigationError{URL: url, Attempts: 0, Err: fmt.Errorf("launch browser: %w", err)}
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			_ = browser.Close()
			return nil, err
		}

		wait := platform.WaitStrategyForAttempt(attempt)
		log.Debug("navigation attempt",
			zap.Int("attempt", attempt),
			zap.Int("max", opts.MaxRetries),
			zap.Stringer("wait", wait))

		page, err := tryAttempt(ctx, browser, url, wait, opts)
		if err == nil {
			log.Info("page loaded", zap.Int("attempts", attempt))
			return &Session{Page: page, AttemptsUsed: attempt, URL: url, browser: browser}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			_ = browser.Close()
			return nil, ctxErr
		}

		lastErr = err
		log.Warn("navigation attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		if attempt < opts.MaxRetries {
			if err := sleep(ctx, opts.RetryBackoff); err != nil {
				_ = browser.Close()
				return nil, err
			}
		}
	}

	_ = browser.Close()
	return nil, &NavigationError{URL: url, Attempts: opts.MaxRetries, Err: lastErr}
}

// tryAttempt runs one navigation on a fresh page. The page is closed on
// any failure.
func tryAttempt(ctx context.Context, b platform.Browser, url string, wait platform.WaitStrategy, opts Options) (platform.Page, error) {
	page, err := b.NewPage(ctx, platform.PageOptions{UserAgent: opts.UserAgent, Viewport: opts.Viewport})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	err = page.Navigate(navCtx, url, wait)
	cancel()
	if err != nil {
		_ = page.Close()
		return nil, err
	}

	// Give late scripts a moment to render.
	if err := sleep(ctx, opts.SettleDelay); err != nil {
		_ = page.Close()
		return nil, err
	}
	return page, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
