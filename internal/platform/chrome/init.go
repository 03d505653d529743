package chrome

import "github.com/mj1618/a11y-lens/internal/platform"

func init() {
	platform.NewProviderFunc = func(opts platform.LaunchOptions) (*platform.Provider, error) {
		return &platform.Provider{
			Launcher: NewLauncher(opts),
		}, nil
	}
}
