package correct

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiProvider runs corrections through Google's Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini correction backend.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, wrapError(KindConfig, err, "failed to create gemini client")
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Close releases the underlying API client.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Generate sends the prompt to Gemini and returns the model output.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	model := p.client.GenerativeModel(p.model)
	// Low temperature for deterministic corrections.
	model.SetTemperature(0.1)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(ctx, err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}
	return text, nil
}

func classifyGeminiError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return wrapError(KindTimeout, err, "gemini request timed out")
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return wrapError(statusKind(apiErr.Code), err, "gemini request failed")
	}

	// No HTTP status means the request never completed: DNS, TLS,
	// connection reset. All retryable.
	return wrapError(KindNetwork, err, "gemini request failed")
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", newError(KindEmptyResponse, "no candidates in gemini response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", newError(KindEmptyResponse, "no content in gemini response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", newError(KindEmptyResponse, "no text parts in gemini response")
	}

	return strings.Join(parts, ""), nil
}
