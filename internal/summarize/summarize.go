package summarize

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"
)

// Generator returns a complete reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StreamGenerator yields reply fragments as they arrive.
type StreamGenerator interface {
	GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// Summarizer produces a report for a prompt. onFragment, when non-nil, is
// called with each piece of the raw reply in order. Unparsable replies yield
// a fallback report and a nil error; transport failures and cancellation
// are returned.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string, onFragment func(string)) (Report, error)
}

// Batch makes one request and parses the complete reply.
type Batch struct {
	Model  Generator
	Logger *zap.Logger
}

// Summarize implements Summarizer.
func (b *Batch) Summarize(ctx context.Context, prompt string, onFragment func(string)) (Report, error) {
	text, err := b.Model.Generate(ctx, prompt)
	if err != nil {
		return Report{}, fmt.Errorf("generate: %w", err)
	}
	if onFragment != nil && text != "" {
		onFragment(text)
	}
	return parse(logger(b.Logger), text), nil
}

// Streaming forwards fragments as they arrive and parses the concatenation.
type Streaming struct {
	Model  StreamGenerator
	Logger *zap.Logger
}

// Summarize implements Summarizer.
func (s *Streaming) Summarize(ctx context.Context, prompt string, onFragment func(string)) (Report, error) {
	var buf strings.Builder
	for frag, err := range s.Model.GenerateStream(ctx, prompt) {
		if err != nil {
			return Report{}, fmt.Errorf("stream: %w", err)
		}
		if frag == "" {
			continue
		}
		buf.WriteString(frag)
		if onFragment != nil {
			onFragment(frag)
		}
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	return parse(logger(s.Logger), buf.String()), nil
}

func parse(log *zap.Logger, text string) Report {
	r, err := ParseReport(text)
	if err != nil {
		log.Warn("AI reply unparsable, using fallback report",
			zap.Int("length", len(text)),
			zap.Error(err))
	}
	return r
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// ParseError returns ErrParse for a fallback report and nil otherwise.
func ParseError(r Report) error {
	if r.ParseFailed {
		return ErrParse
	}
	return nil
}
