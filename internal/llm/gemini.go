package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiClient sends prompts to Gemini through the Gen AI SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a Gemini backend using the Gemini Developer API.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClient: create genai client: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GeminiClient{client: client, model: model, timeout: timeout}, nil
}

// Generate returns the concatenated text parts of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: req.Prompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", &CallError{Page: req.Page, Label: req.Label, Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &UnknownReplyFormatError{Page: req.Page, Label: req.Label, Excerpt: "no text candidate in Gemini reply"}
	}
	return text, nil
}
