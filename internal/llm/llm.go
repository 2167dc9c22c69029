// Package llm sends extraction prompts to a language-model service and returns
// the raw reply text. Recovering JSON from that text is the caller's job.
package llm

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-extractor/internal/config"
)

// Request is one prompt sent on behalf of a page. Page and Label only travel
// into error values and logs.
type Request struct {
	Page   int
	Label  string
	Prompt string
}

// Client is implemented by every extraction backend.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ServiceUnavailableError means the service refused the connection, which in
// practice means it is not running.
type ServiceUnavailableError struct {
	Endpoint string
	Err      error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("extraction service unavailable at %s (connection refused): make sure the model server is running, e.g. `ollama serve`: %v", e.Endpoint, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// CallError is any other failed call, tagged with the page and prompt label.
type CallError struct {
	Page  int
	Label string
	Err   error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("extraction call failed (page %d, %s): %v", e.Page, e.Label, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// UnknownReplyFormatError means the service answered but carried neither a
// "response" field nor choices[0].text.
type UnknownReplyFormatError struct {
	Page    int
	Label   string
	Excerpt string
}

func (e *UnknownReplyFormatError) Error() string {
	return fmt.Sprintf("unknown reply format from extraction service (page %d, %s): %s", e.Page, e.Label, e.Excerpt)
}

// New builds the backend selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case config.ProviderHTTP, "":
		return NewHTTPClient(cfg.Endpoint, cfg.Model, cfg.Timeout), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Timeout)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("llm.New: unknown provider %q", cfg.Provider)
	}
}
