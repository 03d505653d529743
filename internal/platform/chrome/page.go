package chrome

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/mj1618/a11y-lens/internal/model"
	"github.com/mj1618/a11y-lens/internal/platform"
)

type page struct {
	p *rod.Page
}

func lifecycleEvent(w platform.WaitStrategy) proto.PageLifecycleEventName {
	switch w {
	case platform.WaitNetworkIdle:
		return proto.PageLifecycleEventNameNetworkIdle
	case platform.WaitDOMContentLoaded:
		return proto.PageLifecycleEventNameDOMContentLoaded
	default:
		return proto.PageLifecycleEventNameLoad
	}
}

// Navigate implements platform.Page.
func (p *page) Navigate(ctx context.Context, url string, wait platform.WaitStrategy) error {
	pg := p.p.Context(ctx)

	// Subscribe before navigating so a fast page cannot fire the event first.
	waitFn := pg.WaitNavigation(lifecycleEvent(wait))
	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("chrome: navigate %s: %w", url, err)
	}
	waitFn()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("chrome: wait %s: %w", wait, err)
	}
	return nil
}

// HTML implements platform.Page.
func (p *page) HTML(ctx context.Context) (string, error) {
	html, err := p.p.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("chrome: get DOM: %w", err)
	}
	return html, nil
}

// QueryAll implements platform.Page.
func (p *page) QueryAll(ctx context.Context, selector string) ([]platform.Element, error) {
	els, err := p.p.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("chrome: query %q: %w", selector, err)
	}
	out := make([]platform.Element, 0, len(els))
	for _, el := range els {
		out = append(out, newElement(ctx, el))
	}
	return out, nil
}

// ScrollOffset implements platform.Page.
func (p *page) ScrollOffset(ctx context.Context) (model.ScrollOffset, error) {
	res, err := p.p.Context(ctx).Eval(`() => JSON.stringify({
		x: window.scrollX || window.pageXOffset || 0,
		y: window.scrollY || window.pageYOffset || 0
	})`)
	if err != nil {
		return model.ScrollOffset{}, fmt.Errorf("chrome: scroll offset: %w", err)
	}
	var off struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), &off); err != nil {
		return model.ScrollOffset{}, fmt.Errorf("chrome: decode scroll offset: %w", err)
	}
	return model.ScrollOffset{X: off.X, Y: off.Y}, nil
}

// Screenshot implements platform.Page.
func (p *page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	data, err := p.p.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("chrome: screenshot: %w", err)
	}
	return data, nil
}

// Close implements platform.Page.
func (p *page) Close() error {
	return p.p.Close()
}
