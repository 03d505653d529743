package platform

import (
	"context"

	"github.com/mj1618/a11y-lens/internal/model"
)

// Launcher starts (or connects to) a headless browser process.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser owns a browser process. Each analysis gets its own Browser.
type Browser interface {
	// NewPage opens a blank page with the user agent and viewport applied.
	NewPage(ctx context.Context, opts PageOptions) (Page, error)

	// Close terminates the browser and releases its OS resources.
	Close() error
}

// Page is a live, rendered browser page.
type Page interface {
	// Navigate loads url and blocks until the wait strategy's lifecycle
	// event fires or ctx is done.
	Navigate(ctx context.Context, url string, wait WaitStrategy) error

	// HTML returns the serialized rendered DOM.
	HTML(ctx context.Context) (string, error)

	// QueryAll returns every element matching selector in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// ScrollOffset returns the current document scroll position.
	ScrollOffset(ctx context.Context) (model.ScrollOffset, error)

	// Screenshot captures a PNG of the viewport or the whole page.
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)

	Close() error
}

// Element is a snapshot of one DOM element with live geometry access.
type Element interface {
	// Tag returns the lower-case tag name.
	Tag() string

	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool)

	// Text returns the trimmed text content.
	Text() string

	// Rect returns the viewport-relative bounding client rect.
	Rect(ctx context.Context) (model.Rect, error)
}
