package summarize

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply string
	err   error
}

func (f fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

type fakeStream struct {
	frags []string
	err   error // yielded after frags
}

func (f fakeStream) GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, fr := range f.frags {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			if !yield(fr, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func TestBatch(t *testing.T) {
	var got []string
	s := &Batch{Model: fakeGenerator{reply: validReply}}

	r, err := s.Summarize(context.Background(), "p", func(f string) { got = append(got, f) })
	require.NoError(t, err)
	assert.Equal(t, 72, r.OverallScore)
	assert.Equal(t, []string{validReply}, got)
}

func TestBatch_ParseFailureIsAbsorbed(t *testing.T) {
	s := &Batch{Model: fakeGenerator{reply: "sorry"}}
	r, err := s.Summarize(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, Fallback(), r)
}

func TestBatch_TransportError(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := &Batch{Model: fakeGenerator{err: boom}}
	_, err := s.Summarize(context.Background(), "p", nil)
	assert.ErrorIs(t, err, boom)
}

func TestStreaming(t *testing.T) {
	frags := []string{`{"overallScore": 8`, `1, "issues": [], `, `"summary": "ok"}`}
	var got []string
	s := &Streaming{Model: fakeStream{frags: frags}}

	r, err := s.Summarize(context.Background(), "p", func(f string) { got = append(got, f) })
	require.NoError(t, err)
	assert.Equal(t, frags, got, "fragments forwarded in order")
	assert.Equal(t, 81, r.OverallScore)
	assert.Equal(t, "ok", r.Summary)
}

func TestStreaming_ParseFailureIsAbsorbed(t *testing.T) {
	s := &Streaming{Model: fakeStream{frags: []string{"not ", "json"}}}
	r, err := s.Summarize(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.True(t, r.ParseFailed)
}

func TestStreaming_MidStreamError(t *testing.T) {
	boom := errors.New("connection reset")
	s := &Streaming{Model: fakeStream{frags: []string{"{"}, err: boom}}
	_, err := s.Summarize(context.Background(), "p", nil)
	assert.ErrorIs(t, err, boom)
}

func TestStreaming_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Streaming{Model: fakeStream{frags: []string{"{", "}"}}}
	_, err := s.Summarize(ctx, "p", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
