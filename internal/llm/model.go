package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Completer is the minimal language-model capability the review pipeline
// consumes: one prompt in, one raw completion out. The implementation is
// expected to constrain the output to the review JSON schema.
//
//go:generate mockgen -destination=../../mocks/mock_completer.go -package=mocks . Completer
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// reviewSchema constrains the model output to the structured review shape.
// changeType is an enum so the model cannot invent a third diff side.
var reviewSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"reviews": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"lineNumber":    {Type: genai.TypeInteger},
					"changeType":    {Type: genai.TypeString, Enum: []string{"+", "-"}},
					"reviewComment": {Type: genai.TypeString},
				},
				Required: []string{"lineNumber", "changeType", "reviewComment"},
			},
		},
	},
	Required: []string{"reviews"},
}

// GeminiCompleter generates schema-constrained review completions with the
// Gemini API.
type GeminiCompleter struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
}

// NewGeminiCompleter connects to the Gemini API with the given key and model.
func NewGeminiCompleter(ctx context.Context, apiKey, model string, maxOutputTokens int32) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiCompleter{
		client:          client,
		model:           model,
		maxOutputTokens: maxOutputTokens,
	}, nil
}

// Complete runs one schema-constrained completion. Decoding leans
// deterministic so repeated runs over the same diff produce stable reviews.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		TopP:             genai.Ptr[float32](0.95),
		MaxOutputTokens:  g.maxOutputTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema:   reviewSchema,
	})
	if err != nil {
		return "", fmt.Errorf("model completion failed: %w", err)
	}
	return resp.Text(), nil
}
