// Package platformtest provides an in-memory browser backend for tests.
//
// Pages are backed by goquery over a fixed HTML document. Element geometry
// comes from a data-box="x,y,w,h" attribute; an element without one has a
// zero rect, the same as an element that is not rendered.
package platformtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mj1618/a11y-lens/internal/model"
	"github.com/mj1618/a11y-lens/internal/platform"
)

// ErrClosed is returned by page operations after Close.
var ErrClosed = errors.New("platformtest: page closed")

// Attempt scripts the outcome of one navigation.
type Attempt struct {
	Err  error // returned from Navigate
	Hang bool  // block until the context is done
}

// Launcher is a scripted platform.Launcher. Configure it before use; the
// recorded counters are safe to read concurrently.
type Launcher struct {
	HTML      string
	Attempts  []Attempt // navigation n uses Attempts[n-1]; missing entries succeed
	Scroll    model.ScrollOffset
	PageSize  image.Point // screenshot dimensions, default 800x600
	LaunchErr error

	// Failure injection for the loaded page.
	HTMLErr       error
	QueryErr      error
	ScrollErr     error
	ScreenshotErr error
	Screenshot    []byte // overrides the generated PNG

	mu             sync.Mutex
	launches       int
	navigations    int
	waits          []platform.WaitStrategy
	userAgents     []string
	pagesOpened    int
	pagesClosed    int
	browsersClosed int
}

// Launch implements platform.Launcher.
func (l *Launcher) Launch(ctx context.Context) (platform.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	l.mu.Lock()
	l.launches++
	l.mu.Unlock()
	return &Browser{l: l}, nil
}

// Launches returns how many browsers were started.
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

// Navigations returns how many navigations were attempted.
func (l *Launcher) Navigations() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.navigations
}

// Waits returns the wait strategy of each navigation, in order.
func (l *Launcher) Waits() []platform.WaitStrategy {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]platform.WaitStrategy(nil), l.waits...)
}

// UserAgents returns the user agent applied to each opened page.
func (l *Launcher) UserAgents() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.userAgents...)
}

// Pages returns opened and closed page counts.
func (l *Launcher) Pages() (opened, closed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pagesOpened, l.pagesClosed
}

// BrowsersClosed returns how many Browser.Close calls were made.
func (l *Launcher) BrowsersClosed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.browsersClosed
}

// Browser is the fake platform.Browser.
type Browser struct {
	l *Launcher
}

// NewPage implements platform.Browser.
func (b *Browser) NewPage(ctx context.Context, opts platform.PageOptions) (platform.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.l.mu.Lock()
	b.l.pagesOpened++
	b.l.userAgents = append(b.l.userAgents, opts.UserAgent)
	b.l.mu.Unlock()
	return &Page{l: b.l, viewport: opts.Viewport}, nil
}

// Close implements platform.Browser.
func (b *Browser) Close() error {
	b.l.mu.Lock()
	b.l.browsersClosed++
	b.l.mu.Unlock()
	return nil
}

// Page is the fake platform.Page.
type Page struct {
	l        *Launcher
	viewport platform.Viewport

	mu     sync.Mutex
	doc    *goquery.Document
	closed bool
}

// Navigate implements platform.Page.
func (p *Page) Navigate(ctx context.Context, url string, wait platform.WaitStrategy) error {
	p.l.mu.Lock()
	p.l.navigations++
	n := p.l.navigations
	p.l.waits = append(p.l.waits, wait)
	var att Attempt
	if n <= len(p.l.Attempts) {
		att = p.l.Attempts[n-1]
	}
	p.l.mu.Unlock()

	if att.Hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if att.Err != nil {
		return att.Err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.l.HTML))
	if err != nil {
		return fmt.Errorf("platformtest: parse %s: %w", url, err)
	}
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
	return nil
}

func (p *Page) document() (*goquery.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.doc == nil {
		return nil, errors.New("platformtest: page not navigated")
	}
	return p.doc, nil
}

// HTML implements platform.Page.
func (p *Page) HTML(ctx context.Context) (string, error) {
	if p.l.HTMLErr != nil {
		return "", p.l.HTMLErr
	}
	doc, err := p.document()
	if err != nil {
		return "", err
	}
	return goquery.OuterHtml(doc.Selection)
}

// QueryAll implements platform.Page.
func (p *Page) QueryAll(ctx context.Context, selector string) ([]platform.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.l.QueryErr != nil {
		return nil, p.l.QueryErr
	}
	doc, err := p.document()
	if err != nil {
		return nil, err
	}
	var out []platform.Element
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s})
	})
	return out, nil
}

// ScrollOffset implements platform.Page.
func (p *Page) ScrollOffset(ctx context.Context) (model.ScrollOffset, error) {
	if p.l.ScrollErr != nil {
		return model.ScrollOffset{}, p.l.ScrollErr
	}
	if _, err := p.document(); err != nil {
		return model.ScrollOffset{}, err
	}
	return p.l.Scroll, nil
}

// Screenshot implements platform.Page. Without a configured image it renders
// a white PNG of PageSize.
func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.l.ScreenshotErr != nil {
		return nil, p.l.ScreenshotErr
	}
	if _, err := p.document(); err != nil {
		return nil, err
	}
	if p.l.Screenshot != nil {
		return p.l.Screenshot, nil
	}
	size := p.l.PageSize
	if size.X <= 0 || size.Y <= 0 {
		size = image.Pt(800, 600)
	}
	if !fullPage && !p.viewport.IsZero() {
		size = image.Pt(min(size.X, p.viewport.Width), min(size.Y, p.viewport.Height))
	}
	return WhitePNG(size.X, size.Y), nil
}

// Close implements platform.Page.
func (p *Page) Close() error {
	p.mu.Lock()
	wasClosed := p.closed
	p.closed = true
	p.mu.Unlock()
	if !wasClosed {
		p.l.mu.Lock()
		p.l.pagesClosed++
		p.l.mu.Unlock()
	}
	return nil
}

// Element is the fake platform.Element.
type Element struct {
	sel *goquery.Selection
}

func (e *Element) Tag() string { return goquery.NodeName(e.sel) }

func (e *Element) Attr(name string) (string, bool) { return e.sel.Attr(name) }

func (e *Element) Text() string { return strings.TrimSpace(e.sel.Text()) }

// Rect parses data-box. data-box="error" simulates a detached element.
func (e *Element) Rect(ctx context.Context) (model.Rect, error) {
	raw, ok := e.sel.Attr("data-box")
	if !ok {
		return model.Rect{}, nil
	}
	if raw == "error" {
		return model.Rect{}, errors.New("platformtest: element detached")
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return model.Rect{}, fmt.Errorf("platformtest: bad data-box %q", raw)
	}
	var vals [4]float64
	for i, s := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return model.Rect{}, fmt.Errorf("platformtest: bad data-box %q: %w", raw, err)
		}
		vals[i] = v
	}
	return model.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// WhitePNG encodes a white w x h PNG.
func WhitePNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// Slow wraps a launcher so each Launch sleeps first. Used to test
// cancellation during browser start.
type Slow struct {
	platform.Launcher
	Delay time.Duration
}

// Launch implements platform.Launcher.
func (s Slow) Launch(ctx context.Context) (platform.Browser, error) {
	select {
	case <-time.After(s.Delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Launcher.Launch(ctx)
}
