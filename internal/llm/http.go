package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall"
	"time"

	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/textutil"
)

const defaultTimeout = 2 * time.Minute

// HTTPClient talks to a local or remote completion endpoint such as Ollama's
// /api/generate or an OpenAI-compatible /v1/completions.
type HTTPClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewHTTPClient creates a client for endpoint. A non-positive timeout selects
// two minutes.
func NewHTTPClient(endpoint, model string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		endpoint:   endpoint,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateReply accepts both reply shapes; pointers tell absent from empty.
type generateReply struct {
	Response *string `json:"response"`
	Choices  []struct {
		Text *string `json:"text"`
	} `json:"choices"`
}

// Generate posts the prompt and returns the reply text.
func (c *HTTPClient) Generate(ctx context.Context, req Request) (string, error) {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(generateRequest{Model: c.model, Prompt: req.Prompt, Stream: false})
	if err != nil {
		return "", &CallError{Page: req.Page, Label: req.Label, Err: fmt.Errorf("encoding request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &CallError{Page: req.Page, Label: req.Label, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return "", &ServiceUnavailableError{Endpoint: c.endpoint, Err: err}
		}
		return "", &CallError{Page: req.Page, Label: req.Label, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CallError{Page: req.Page, Label: req.Label, Err: fmt.Errorf("reading body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &CallError{Page: req.Page, Label: req.Label, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, textutil.Excerpt(string(body), 200))}
	}

	var reply generateReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", &UnknownReplyFormatError{Page: req.Page, Label: req.Label, Excerpt: textutil.Excerpt(string(body), 200)}
	}

	text, ok := reply.text()
	if !ok {
		return "", &UnknownReplyFormatError{Page: req.Page, Label: req.Label, Excerpt: textutil.Excerpt(string(body), 200)}
	}

	log.Debug().
		Int("page", req.Page).
		Str("label", req.Label).
		Int("reply_chars", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Extraction call completed")

	return text, nil
}

func (r generateReply) text() (string, bool) {
	if r.Response != nil {
		return *r.Response, true
	}
	if len(r.Choices) > 0 && r.Choices[0].Text != nil {
		return *r.Choices[0].Text, true
	}
	return "", false
}
