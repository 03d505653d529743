package summarize

import (
	"context"
	"errors"
	"iter"

	genai "google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrNoAPIKey is returned by NewGemini without credentials.
var ErrNoAPIKey = errors.New("gemini: API key not set (GEMINI_API_KEY)")

// Gemini adapts the genai client to Generator and StreamGenerator. Both
// request application/json output.
type Gemini struct {
	cli   *genai.Client
	model string
}

// NewGemini creates a Gemini API client.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{cli: cli, model: model}, nil
}

// Name identifies the backing model.
func (g *Gemini) Name() string { return "Gemini:" + g.model }

func (g *Gemini) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config())
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// GenerateStream implements StreamGenerator.
func (g *Gemini) GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range g.cli.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), g.config()) {
			if err != nil {
				yield("", err)
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}
