// Package detect flags elements that break common accessibility rules and
// measures where they are on the page.
package detect

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mj1618/a11y-lens/internal/model"
	"github.com/mj1618/a11y-lens/internal/platform"
)

// ErrDegraded wraps failures that emptied the result.
var ErrDegraded = errors.New("detection degraded")

const (
	fieldSelector   = "input, textarea, select"
	headingSelector = "h1, h2, h3, h4, h5, h6"
)

// genericLinkText is text that says nothing about the destination.
var genericLinkText = map[string]bool{
	"click here": true,
	"read more":  true,
	"here":       true,
	"more":       true,
	"learn more": true,
	"link":       true,
}

// Options tunes Detect.
type Options struct {
	Logger *zap.Logger
	Limit  int // defaults to model.MaxProblematicElements
}

// Detect runs the rules in order until the shared cap is reached. Elements
// whose geometry cannot be read or whose box has no area are skipped.
func Detect(ctx context.Context, page platform.Page, opts Options) (model.LimitedData[model.ProblematicElement], error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Limit <= 0 {
		opts.Limit = model.MaxProblematicElements
	}

	d := &detector{page: page, log: opts.Logger, limit: opts.Limit}
	if err := d.run(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.EmptyLimited[model.ProblematicElement](), ctxErr
		}
		return model.EmptyLimited[model.ProblematicElement](), fmt.Errorf("%w: %w", ErrDegraded, err)
	}

	return model.LimitedData[model.ProblematicElement]{
		Items:      d.found,
		TotalCount: max(d.scanned, len(d.found)),
		Limited:    d.truncated,
		Shown:      len(d.found),
	}, nil
}

type detector struct {
	page      platform.Page
	log       *zap.Logger
	limit     int
	scroll    model.ScrollOffset
	labels    map[string]bool
	found     []model.ProblematicElement
	scanned   int
	truncated bool // the cap left an element unchecked
}

// full reports whether the cap is reached. It is called before checking an
// element, so a true result means that element is skipped.
func (d *detector) full() bool {
	if len(d.found) >= d.limit {
		d.truncated = true
		return true
	}
	return false
}

func (d *detector) run(ctx context.Context) error {
	scroll, err := d.page.ScrollOffset(ctx)
	if err != nil {
		return fmt.Errorf("scroll offset: %w", err)
	}
	d.scroll = scroll

	if d.labels, err = d.labelTargets(ctx); err != nil {
		return err
	}

	imgs, err := d.page.QueryAll(ctx, "img")
	if err != nil {
		return fmt.Errorf("query images: %w", err)
	}
	fields, err := d.page.QueryAll(ctx, fieldSelector)
	if err != nil {
		return fmt.Errorf("query form fields: %w", err)
	}
	anchors, err := d.page.QueryAll(ctx, "a")
	if err != nil {
		return fmt.Errorf("query links: %w", err)
	}
	headings, err := d.page.QueryAll(ctx, headingSelector)
	if err != nil {
		return fmt.Errorf("query headings: %w", err)
	}
	d.scanned = len(imgs) + len(fields) + len(anchors) + len(headings)

	d.checkImages(ctx, imgs)
	d.checkFields(ctx, fields)
	d.checkLinks(ctx, anchors)
	d.checkHeadings(ctx, headings)
	return ctx.Err()
}

func (d *detector) labelTargets(ctx context.Context) (map[string]bool, error) {
	els, err := d.page.QueryAll(ctx, "label[for]")
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	out := make(map[string]bool, len(els))
	for _, el := range els {
		if v, _ := el.Attr("for"); v != "" {
			out[v] = true
		}
	}
	return out, nil
}

func (d *detector) checkImages(ctx context.Context, els []platform.Element) {
	for i, el := range els {
		if d.full() {
			return
		}
		if alt, _ := el.Attr("alt"); strings.TrimSpace(alt) != "" {
			continue
		}
		src, _ := el.Attr("src")
		d.add(ctx, el, i, src, model.IssueMissingAlt, model.PriorityHigh)
	}
}

func (d *detector) checkFields(ctx context.Context, els []platform.Element) {
	for i, el := range els {
		if d.full() {
			return
		}
		if el.Tag() == "input" {
			switch t, _ := el.Attr("type"); strings.ToLower(strings.TrimSpace(t)) {
			case "button", "submit", "hidden":
				continue
			}
		}
		if d.isLabelled(el) {
			continue
		}
		placeholder, _ := el.Attr("placeholder")
		d.add(ctx, el, i, placeholder, model.IssueUnlabeledInput, model.PriorityHigh)
	}
}

func (d *detector) isLabelled(el platform.Element) bool {
	if id, _ := el.Attr("id"); id != "" && d.labels[id] {
		return true
	}
	if v, _ := el.Attr("aria-label"); strings.TrimSpace(v) != "" {
		return true
	}
	if v, _ := el.Attr("aria-labelledby"); strings.TrimSpace(v) != "" {
		return true
	}
	return false
}

func (d *detector) checkLinks(ctx context.Context, els []platform.Element) {
	for i, el := range els {
		if d.full() {
			return
		}
		if hasAny(el, "aria-label", "title") {
			continue
		}
		text := strings.TrimSpace(el.Text())
		if text != "" && !genericLinkText[strings.ToLower(text)] {
			continue
		}
		d.add(ctx, el, i, text, model.IssueUndescribedLink, model.PriorityMedium)
	}
}

// checkHeadings flags each jump of more than one level relative to the
// previous heading. The cursor advances on every heading, flagged or not.
func (d *detector) checkHeadings(ctx context.Context, els []platform.Element) {
	last := 0
	for i, el := range els {
		if d.full() {
			return
		}
		level := headingLevel(el.Tag())
		if level == 0 {
			continue
		}
		if last > 0 && level > last+1 {
			d.add(ctx, el, i, el.Text(), model.HeadingSkippedIssue(last, level), model.PriorityMedium)
		}
		last = level
	}
}

func headingLevel(tag string) int {
	if len(tag) != 2 || tag[0] != 'h' {
		return 0
	}
	n, err := strconv.Atoi(tag[1:])
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

func hasAny(el platform.Element, names ...string) bool {
	for _, n := range names {
		if v, _ := el.Attr(n); strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// add measures el and records it when the box is drawable.
func (d *detector) add(ctx context.Context, el platform.Element, index int, text, issue string, p model.Priority) {
	rect, err := el.Rect(ctx)
	if err != nil {
		d.log.Debug("element geometry unavailable",
			zap.String("tag", el.Tag()),
			zap.String("issue", issue),
			zap.Error(err))
		rect = model.Rect{}
	}
	box := model.ToPageBox(rect, d.scroll)
	if box.IsZero() {
		return
	}
	d.found = append(d.found, model.ProblematicElement{
		Selector:    Selector(el, index),
		Text:        model.Truncate(strings.TrimSpace(text)),
		Issue:       issue,
		Priority:    p,
		BoundingBox: box,
	})
}

// Selector builds a human-readable label for el. It is not guaranteed to
// be unique or to resolve back to el.
func Selector(el platform.Element, index int) string {
	tag := el.Tag()
	if id, _ := el.Attr("id"); id != "" {
		return "#" + id
	}
	if name, _ := el.Attr("name"); name != "" {
		return fmt.Sprintf("%s[name=%q]", tag, name)
	}
	if typ, _ := el.Attr("type"); typ != "" {
		return fmt.Sprintf("%s[type=%q]", tag, typ)
	}
	return fmt.Sprintf("%s:nth-of-type(%d)", tag, index+1)
}
