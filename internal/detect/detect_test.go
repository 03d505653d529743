package detect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/a11y-lens/internal/model"
	"github.com/mj1618/a11y-lens/internal/platform"
	"github.com/mj1618/a11y-lens/internal/platform/platformtest"
)

func loadPage(t *testing.T, l *platformtest.Launcher) platform.Page {
	t.Helper()
	ctx := context.Background()
	b, err := l.Launch(ctx)
	require.NoError(t, err)
	p, err := b.NewPage(ctx, platform.PageOptions{})
	require.NoError(t, err)
	require.NoError(t, p.Navigate(ctx, "https://example.com", platform.WaitLoad))
	return p
}

func detect(t *testing.T, html string) model.LimitedData[model.ProblematicElement] {
	t.Helper()
	p := loadPage(t, &platformtest.Launcher{HTML: html})
	got, err := Detect(context.Background(), p, Options{})
	require.NoError(t, err)
	return got
}

const box = `data-box="10,10,50,20"`

func TestDetect_Images(t *testing.T) {
	got := detect(t, `
		<img id="logo" src="logo.png" `+box+`>
		<img src="b.png" alt="" `+box+`>
		<img src="c.png" alt="   " `+box+`>
		<img src="ok.png" alt="fine" `+box+`>`)

	require.Len(t, got.Items, 3)
	for _, p := range got.Items {
		assert.Equal(t, model.IssueMissingAlt, p.Issue)
		assert.Equal(t, model.PriorityHigh, p.Priority)
	}
	assert.Equal(t, "#logo", got.Items[0].Selector)
	assert.Equal(t, "img:nth-of-type(2)", got.Items[1].Selector)
	assert.Equal(t, "logo.png", got.Items[0].Text)
}

func TestDetect_FormFields(t *testing.T) {
	got := detect(t, `
		<label for="email">Email</label>
		<input id="email" `+box+`>
		<input name="q" `+box+`>
		<input type="submit" `+box+`>
		<input type="hidden" `+box+`>
		<input type="button" `+box+`>
		<input aria-label="Search" `+box+`>
		<input aria-labelledby="lbl" `+box+`>
		<textarea `+box+`></textarea>
		<select type="x" `+box+`></select>`)

	require.Len(t, got.Items, 3)
	assert.Equal(t, `input[name="q"]`, got.Items[0].Selector)
	assert.Equal(t, "textarea:nth-of-type(8)", got.Items[1].Selector)
	assert.Equal(t, `select[type="x"]`, got.Items[2].Selector)
	for _, p := range got.Items {
		assert.Equal(t, model.IssueUnlabeledInput, p.Issue)
	}
}

func TestDetect_Links(t *testing.T) {
	got := detect(t, `
		<a href="/a" `+box+`></a>
		<a href="/b" `+box+`>Click Here</a>
		<a href="/c" title="Pricing" `+box+`>more</a>
		<a href="/d" aria-label="Docs" `+box+`></a>
		<a href="/e" `+box+`>Pricing plans</a>`)

	require.Len(t, got.Items, 2)
	assert.Equal(t, model.PriorityMedium, got.Items[0].Priority)
	assert.Equal(t, model.IssueUndescribedLink, got.Items[0].Issue)
	assert.Equal(t, "Click Here", got.Items[1].Text)
}

func TestDetect_HeadingSkip(t *testing.T) {
	got := detect(t, `<h1 `+box+`>A</h1><h3 `+box+`>B</h3><h4 `+box+`>C</h4>`)

	require.Len(t, got.Items, 1)
	assert.Equal(t, "Heading level skipped (H1 to H3)", got.Items[0].Issue)
	assert.Equal(t, "B", got.Items[0].Text)
}

func TestDetect_HeadingSkipCursorAlwaysAdvances(t *testing.T) {
	got := detect(t, `<h2 `+box+`>a</h2><h5 `+box+`>b</h5><h1 `+box+`>c</h1><h3 `+box+`>d</h3>`)

	require.Len(t, got.Items, 2)
	assert.Equal(t, model.HeadingSkippedIssue(2, 5), got.Items[0].Issue)
	assert.Equal(t, model.HeadingSkippedIssue(1, 3), got.Items[1].Issue)
}

func TestDetect_ZeroSizeExcluded(t *testing.T) {
	got := detect(t, `
		<img src="hidden.png" data-box="0,0,0,0">
		<img src="unrendered.png">
		<img src="detached.png" data-box="error">
		<img src="thin.png" data-box="5,5,0,10">
		<img src="visible.png" `+box+`>`)

	require.Len(t, got.Items, 1)
	assert.Equal(t, "visible.png", got.Items[0].Text)
	assert.Equal(t, 5, got.TotalCount)
}

func TestDetect_ScrollOffsetApplied(t *testing.T) {
	p := loadPage(t, &platformtest.Launcher{
		HTML:   `<img src="x" data-box="10,20,30,40">`,
		Scroll: model.ScrollOffset{X: 5, Y: 1000},
	})
	got, err := Detect(context.Background(), p, Options{})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, model.BoundingBox{X: 15, Y: 1020, Width: 30, Height: 40}, got.Items[0].BoundingBox)
}

func TestDetect_GlobalCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, `<img src="%d.png" %s>`, i, box)
	}
	b.WriteString(`<input ` + box + `><a ` + box + `></a>`)

	got := detect(t, b.String())
	assert.Len(t, got.Items, model.MaxProblematicElements)
	assert.True(t, got.Limited)
	assert.Equal(t, 52, got.TotalCount)
	for _, p := range got.Items {
		assert.Equal(t, model.IssueMissingAlt, p.Issue, "later rules never run once the cap is hit")
	}
}

func TestDetect_ExactlyAtCapIsNotLimited(t *testing.T) {
	var b strings.Builder
	for i := 0; i < model.MaxProblematicElements; i++ {
		fmt.Fprintf(&b, `<img src="%d.png" %s>`, i, box)
	}

	got := detect(t, b.String())
	assert.Len(t, got.Items, model.MaxProblematicElements)
	assert.Equal(t, model.MaxProblematicElements, got.TotalCount)
	assert.False(t, got.Limited)
}

func TestDetect_CapWithOneUncheckedElement(t *testing.T) {
	var b strings.Builder
	for i := 0; i < model.MaxProblematicElements; i++ {
		fmt.Fprintf(&b, `<img src="%d.png" %s>`, i, box)
	}
	b.WriteString(`<h1 ` + box + `>Title</h1>`)

	got := detect(t, b.String())
	assert.Len(t, got.Items, model.MaxProblematicElements)
	assert.True(t, got.Limited)
	assert.Greater(t, got.TotalCount, len(got.Items))
}

func TestDetect_RulesRunInOrder(t *testing.T) {
	got := detect(t, `<h1 `+box+`>t</h1><a `+box+`></a><h3 `+box+`>x</h3><input `+box+`><img `+box+`>`)

	require.Len(t, got.Items, 4)
	assert.Equal(t, model.IssueMissingAlt, got.Items[0].Issue)
	assert.Equal(t, model.IssueUnlabeledInput, got.Items[1].Issue)
	assert.Equal(t, model.IssueUndescribedLink, got.Items[2].Issue)
	assert.Equal(t, model.HeadingSkippedIssue(1, 3), got.Items[3].Issue)
	assert.False(t, got.Limited)
}

func TestDetect_Degraded(t *testing.T) {
	p := loadPage(t, &platformtest.Launcher{HTML: `<img>`, QueryErr: errors.New("session closed")})

	got, err := Detect(context.Background(), p, Options{})
	assert.ErrorIs(t, err, ErrDegraded)
	assert.Empty(t, got.Items)
	assert.NotNil(t, got.Items)
}

func TestDetect_Cancelled(t *testing.T) {
	p := loadPage(t, &platformtest.Launcher{HTML: `<img ` + box + `>`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := Detect(ctx, p, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrDegraded)
	assert.Empty(t, got.Items)
}

func TestHeadingLevel(t *testing.T) {
	tests := map[string]int{"h1": 1, "h6": 6, "h7": 0, "hr": 0, "div": 0, "h": 0}
	for tag, want := range tests {
		assert.Equal(t, want, headingLevel(tag), tag)
	}
}
