package platform

import "errors"

// Provider bundles the browser backend for the current build.
type Provider struct {
	Launcher Launcher
}

// ErrUnsupported is returned when no browser backend is registered.
var ErrUnsupported = errors.New("a11y-lens: no browser backend registered")

// LaunchOptions configures how the backend starts Chrome.
type LaunchOptions struct {
	RemoteURL string // connect to an existing DevTools endpoint instead of launching
	Bin       string // explicit Chrome binary
	Stealth   bool   // open pages with anti-detection patches
	Headful   bool
}

// NewProviderFunc is set by backend packages via init().
// See internal/platform/chrome/init.go for the Chrome registration.
var NewProviderFunc func(opts LaunchOptions) (*Provider, error)

// NewProvider returns a Provider for the registered backend.
func NewProvider(opts LaunchOptions) (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc(opts)
}
