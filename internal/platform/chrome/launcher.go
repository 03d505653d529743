package chrome

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/mj1618/a11y-lens/internal/platform"
)

// Launcher starts a fresh Chrome per Launch call, or connects to a remote
// DevTools endpoint when RemoteURL is set.
type Launcher struct {
	opts platform.LaunchOptions
	log  *zap.Logger
}

// NewLauncher creates a Launcher. It logs through the global zap logger.
func NewLauncher(opts platform.LaunchOptions) *Launcher {
	return &Launcher{opts: opts, log: zap.L().Named("chrome")}
}

// Launch implements platform.Launcher.
func (l *Launcher) Launch(ctx context.Context) (platform.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lnch *launcher.Launcher
	controlURL := l.opts.RemoteURL

	if controlURL != "" {
		l.log.Debug("connecting to remote chrome", zap.String("url", controlURL))
	} else {
		lnch = launcher.New().
			Headless(!l.opts.Headful).
			Set("no-sandbox").
			Set("disable-gpu").
			Set("disable-dev-shm-usage").
			Set("disable-blink-features", "AutomationControlled")
		if l.opts.Bin != "" {
			lnch = lnch.Bin(l.opts.Bin)
		}

		u, err := lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("chrome: launch: %w", err)
		}
		controlURL = u
		l.log.Debug("launched local chrome", zap.String("url", controlURL), zap.Int("pid", lnch.PID()))
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Kill()
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("chrome: connect: %w", err)
	}

	// Third-party pages with broken certificates are still worth auditing.
	if err := b.IgnoreCertErrors(true); err != nil {
		l.log.Warn("ignore cert errors failed", zap.Error(err))
	}

	return &browser{b: b, lnch: lnch, stealth: l.opts.Stealth, log: l.log}, nil
}

type browser struct {
	b       *rod.Browser
	lnch    *launcher.Launcher
	stealth bool
	log     *zap.Logger
}

// NewPage implements platform.Browser.
func (b *browser) NewPage(ctx context.Context, opts platform.PageOptions) (platform.Page, error) {
	var p *rod.Page
	var err error
	if b.stealth {
		p, err = stealth.Page(b.b)
	} else {
		p, err = b.b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("chrome: create page: %w", err)
	}

	pg := p.Context(ctx)
	if opts.UserAgent != "" {
		if err := pg.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("chrome: set user agent: %w", err)
		}
	}

	vp := opts.Viewport
	if vp.IsZero() {
		vp = platform.DefaultViewport
	}
	// Scale factor 1 keeps screenshot pixels equal to CSS pixels.
	if err := pg.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("chrome: set viewport: %w", err)
	}

	return &page{p: p}, nil
}

// Close implements platform.Browser. It never uses a request context so a
// cancelled analysis still tears the process down.
func (b *browser) Close() error {
	var err error
	if b.b != nil {
		err = b.b.Close()
	}
	if b.lnch != nil {
		b.lnch.Kill()
		b.lnch.Cleanup()
	}
	return err
}
