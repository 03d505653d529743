package chrome

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/mj1618/a11y-lens/internal/model"
)

// snapshotJS reads everything the rules need in one round trip.
const snapshotJS = `function() {
	const attrs = {};
	for (const a of Array.from(this.attributes)) attrs[a.name] = a.value;
	return JSON.stringify({
		tag: this.tagName.toLowerCase(),
		attrs: attrs,
		text: (this.textContent || '').trim()
	});
}`

const rectJS = `function() {
	const r = this.getBoundingClientRect();
	return JSON.stringify({x: r.left, y: r.top, width: r.width, height: r.height});
}`

type snapshot struct {
	Tag   string            `json:"tag"`
	Attrs map[string]string `json:"attrs"`
	Text  string            `json:"text"`
}

type element struct {
	el   *rod.Element
	snap snapshot
}

// newElement snapshots el. A failed snapshot leaves the element blank; its
// geometry lookup will fail too and the detector drops it.
func newElement(ctx context.Context, el *rod.Element) *element {
	e := &element{el: el}
	res, err := el.Context(ctx).Eval(snapshotJS)
	if err != nil {
		return e
	}
	_ = json.Unmarshal([]byte(res.Value.Str()), &e.snap)
	return e
}

func (e *element) Tag() string { return e.snap.Tag }

func (e *element) Attr(name string) (string, bool) {
	v, ok := e.snap.Attrs[name]
	return v, ok
}

func (e *element) Text() string { return e.snap.Text }

func (e *element) Rect(ctx context.Context) (model.Rect, error) {
	res, err := e.el.Context(ctx).Eval(rectJS)
	if err != nil {
		return model.Rect{}, fmt.Errorf("chrome: bounding rect: %w", err)
	}
	var r struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), &r); err != nil {
		return model.Rect{}, fmt.Errorf("chrome: decode bounding rect: %w", err)
	}
	return model.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}, nil
}
