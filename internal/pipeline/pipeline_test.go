package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mj1618/a11y-lens/internal/model"
	"github.com/mj1618/a11y-lens/internal/platform/platformtest"
	"github.com/mj1618/a11y-lens/internal/session"
	"github.com/mj1618/a11y-lens/internal/summarize"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const page = `<html><head><title>Store</title></head><body>
<main>
<h1 data-box="0,0,300,40">Store</h1>
<h3 data-box="0,50,300,30">Deals</h3>
<img src="hero.png" data-box="10,100,200,100">
<img src="logo.png" alt="Logo" data-box="10,220,50,50">
<form><input id="q" data-box="10,300,120,24"></form>
<a href="/more" data-box="10,340,60,16">read more</a>
</main></body></html>`

type stubSummarizer struct {
	reply string
	err   error
	block bool

	mu      sync.Mutex
	prompts []string
}

func (s *stubSummarizer) Summarize(ctx context.Context, prompt string, onFragment func(string)) (summarize.Report, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return summarize.Report{}, ctx.Err()
	}
	if s.err != nil {
		return summarize.Report{}, s.err
	}
	if onFragment != nil {
		onFragment(s.reply)
	}
	r, _ := summarize.ParseReport(s.reply)
	return r, nil
}

func fastSession() session.Options {
	return session.Options{SettleDelay: -1, RetryBackoff: -1}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	l := &platformtest.Launcher{HTML: page}
	ai := &stubSummarizer{reply: `{"overallScore": 64, "issues": [], "summary": "ok"}`}
	a := &Analyzer{Launcher: l, Batch: ai}

	res, err := a.Analyze(context.Background(), "https://store.example", Options{Session: fastSession()})
	require.NoError(t, err)

	assert.Equal(t, "https://store.example", res.URL)
	assert.Equal(t, 1, res.AttemptsUsed)
	assert.Equal(t, "Store", res.Payload.AccessibilityData.Title)
	assert.Empty(t, res.Degradations)

	issues := make([]string, 0)
	for _, p := range res.Payload.ProblematicElements.Items {
		issues = append(issues, p.Issue)
	}
	assert.Equal(t, []string{
		model.IssueMissingAlt,
		model.IssueUnlabeledInput,
		model.IssueUndescribedLink,
		model.HeadingSkippedIssue(1, 3),
	}, issues)

	require.True(t, res.Annotated)
	img, err := png.Decode(bytes.NewReader(res.Screenshot))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())

	require.NotNil(t, res.Report)
	assert.Equal(t, 64, res.Report.OverallScore)
	require.Len(t, ai.prompts, 1)
	assert.Equal(t, res.Prompt, ai.prompts[0])
	assert.Contains(t, res.Prompt, "URL: https://store.example")

	assert.Equal(t, 1, l.BrowsersClosed())
	opened, closed := l.Pages()
	assert.Equal(t, opened, closed)
}

func TestAnalyze_RetryScenario(t *testing.T) {
	l := &platformtest.Launcher{
		HTML: page,
		Attempts: []platformtest.Attempt{
			{Err: errors.New("timeout")},
			{Err: errors.New("timeout")},
		},
	}
	a := &Analyzer{Launcher: l}

	res, err := a.Analyze(context.Background(), "https://store.example", Options{Session: fastSession(), SkipAI: true})
	require.NoError(t, err)
	assert.Equal(t, 3, res.AttemptsUsed)
	assert.Nil(t, res.Report)
}

func TestAnalyze_NavigationFailure(t *testing.T) {
	fail := platformtest.Attempt{Err: errors.New("net::ERR_CONNECTION_REFUSED")}
	l := &platformtest.Launcher{Attempts: []platformtest.Attempt{fail, fail, fail}}
	a := &Analyzer{Launcher: l}

	res, err := a.Analyze(context.Background(), "https://down.example", Options{Session: fastSession()})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNavigation)
	assert.NotErrorIs(t, err, ErrCancelled)

	var navErr *session.NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, 3, navErr.Attempts)
	assert.Contains(t, UserMessage(err), "Could not reach the site after 3 attempts")
	assert.Equal(t, 1, l.BrowsersClosed())
}

func TestAnalyze_InvalidURL(t *testing.T) {
	l := &platformtest.Launcher{}
	a := &Analyzer{Launcher: l}

	_, err := a.Analyze(context.Background(), "ftp://example.com", Options{})
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Equal(t, 0, l.Launches())
}

func TestAnalyze_DegradedStagesAreAbsorbed(t *testing.T) {
	l := &platformtest.Launcher{
		HTML:          page,
		HTMLErr:       errors.New("target closed"),
		ScrollErr:     errors.New("target closed"),
		ScreenshotErr: errors.New("capture failed"),
	}
	a := &Analyzer{Launcher: l, Batch: &stubSummarizer{reply: "not json"}}

	res, err := a.Analyze(context.Background(), "https://store.example", Options{Session: fastSession()})
	require.NoError(t, err)

	assert.Equal(t, model.ExtractionFailedTitle, res.Payload.AccessibilityData.Title)
	assert.Empty(t, res.Payload.ProblematicElements.Items)
	assert.Nil(t, res.Screenshot)
	assert.False(t, res.Annotated)
	require.NotNil(t, res.Report)
	assert.Equal(t, summarize.Fallback(), *res.Report)

	stages := make([]string, 0, len(res.Degradations))
	for _, d := range res.Degradations {
		stages = append(stages, d.Stage)
	}
	assert.Equal(t, []string{StageExtract, StageDetect, StageScreenshot, StageSummarize}, stages)
}

func TestAnalyze_AnnotationDegraded(t *testing.T) {
	l := &platformtest.Launcher{HTML: page, Screenshot: []byte("garbage")}
	a := &Analyzer{Launcher: l}

	res, err := a.Analyze(context.Background(), "https://store.example", Options{Session: fastSession(), SkipAI: true})
	require.NoError(t, err)
	assert.False(t, res.Annotated)
	assert.Equal(t, []byte("garbage"), res.Screenshot, "original screenshot kept")
	require.Len(t, res.Degradations, 1)
	assert.Equal(t, StageAnnotate, res.Degradations[0].Stage)
}

func TestAnalyze_AITransportErrorIsAbsorbed(t *testing.T) {
	l := &platformtest.Launcher{HTML: page}
	a := &Analyzer{Launcher: l, Batch: &stubSummarizer{err: errors.New("503")}}

	res, err := a.Analyze(context.Background(), "https://store.example", Options{Session: fastSession()})
	require.NoError(t, err)
	assert.Nil(t, res.Report)
	require.Len(t, res.Degradations, 1)
	assert.Contains(t, res.Degradations[0].Message, ErrAIUnavailable.Error())
}

func TestAnalyze_StreamingSelection(t *testing.T) {
	l := &platformtest.Launcher{HTML: page}
	batch := &stubSummarizer{reply: `{"overallScore": 1, "issues": [], "summary": "batch"}`}
	stream := &stubSummarizer{reply: `{"overallScore": 2, "issues": [], "summary": "stream"}`}
	a := &Analyzer{Launcher: l, Batch: batch, Streaming: stream}

	var frags []string
	res, err := a.Analyze(context.Background(), "https://store.example", Options{
		Session:    fastSession(),
		Stream:     true,
		OnFragment: func(f string) { frags = append(frags, f) },
	})
	require.NoError(t, err)
	assert.Equal(t, "stream", res.Report.Summary)
	assert.Len(t, frags, 1)
	assert.Empty(t, batch.prompts)
}

func TestAnalyze_CancelledDuringNavigation(t *testing.T) {
	l := &platformtest.Launcher{Attempts: []platformtest.Attempt{{Hang: true}}}
	a := &Analyzer{Launcher: l}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	res, err := a.Analyze(ctx, "https://store.example", Options{Session: fastSession()})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNavigation)
	assert.Equal(t, "The analysis was cancelled.", UserMessage(err))
	assert.Equal(t, 1, l.BrowsersClosed())
}

func TestAnalyze_CancelledDuringSummary(t *testing.T) {
	l := &platformtest.Launcher{HTML: page}
	a := &Analyzer{Launcher: l, Batch: &stubSummarizer{block: true}}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	res, err := a.Analyze(ctx, "https://store.example", Options{Session: fastSession()})
	assert.Nil(t, res, "partial data is discarded")
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, l.BrowsersClosed())
}

func TestAnalyze_ConcurrentRunsUseOwnBrowsers(t *testing.T) {
	l := &platformtest.Launcher{HTML: page}
	a := &Analyzer{Launcher: l}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = a.Analyze(context.Background(), fmt.Sprintf("https://site%d.example", i), Options{Session: fastSession(), SkipAI: true})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 4, l.Launches())
	assert.Equal(t, 4, l.BrowsersClosed())
}

func TestAnalyze_GlobalCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<title>Gallery</title>")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, `<img src="%d.png" data-box="0,%d,10,10">`, i, i*12)
	}
	l := &platformtest.Launcher{HTML: b.String(), PageSize: image.Pt(400, 700)}
	a := &Analyzer{Launcher: l}

	res, err := a.Analyze(context.Background(), "https://gallery.example", Options{Session: fastSession(), SkipAI: true})
	require.NoError(t, err)

	problems := res.Payload.ProblematicElements
	assert.Len(t, problems.Items, model.MaxProblematicElements)
	assert.True(t, problems.Limited)
	assert.Contains(t, res.Payload.LimitsInfo.LimitedCategories, "Problematic elements")
	assert.True(t, res.Payload.LimitsInfo.AnyLimited)
	images := res.Payload.AccessibilityData.Images
	assert.True(t, images.Limited)
	assert.Len(t, images.Items, model.MaxImages)
	assert.Equal(t, 50, images.TotalCount)
}

func TestValidateURL(t *testing.T) {
	valid := []string{"https://example.com", "http://localhost:8080/path?q=1"}
	invalid := []string{"", "example.com", "ftp://example.com", "https://", "javascript:alert(1)"}
	for _, u := range valid {
		assert.NoError(t, ValidateURL(u), u)
	}
	for _, u := range invalid {
		assert.ErrorIs(t, ValidateURL(u), ErrInvalidURL, u)
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Contains(t, UserMessage(ErrNavigation), "Could not reach the site")
	assert.Contains(t, UserMessage(errors.New("x")), "unexpectedly")
}
