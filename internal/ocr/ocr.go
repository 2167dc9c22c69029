// Package ocr sends single-page PDFs to an OCR.space-compatible service and
// returns the recognized text.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/segment"
	"github.com/dvloznov/statement-extractor/internal/textutil"
)

const (
	// DefaultEndpoint is the public OCR.space parse endpoint.
	DefaultEndpoint = "https://api.ocr.space/parse/image"

	defaultTimeout = 60 * time.Second
)

// ProcessingError is an explicit failure reported by the OCR service.
type ProcessingError struct {
	Page    int
	Message string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("ocr: page %d: service reported failure: %s", e.Page, e.Message)
}

// TransportError covers network failures, timeouts, non-2xx replies and
// undecodable bodies.
type TransportError struct {
	Page int
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ocr: page %d: transport: %v", e.Page, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Endpoint          string
	Language          string
	Engine            string
	Timeout           time.Duration
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// Client is the OCR adapter. It never retries.
type Client struct {
	apiKey     string
	endpoint   string
	language   string
	engine     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates an OCR client for the given API key.
func NewClient(apiKey string, opts Options) *Client {
	c := &Client{
		apiKey:     apiKey,
		endpoint:   opts.Endpoint,
		language:   opts.Language,
		engine:     opts.Engine,
		httpClient: opts.HTTPClient,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.language == "" {
		c.language = "eng"
	}
	if c.engine == "" {
		c.engine = "2"
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return c
}

// parseResponse mirrors the subset of the OCR.space reply we read.
type parseResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
	OCRExitCode           int             `json:"OCRExitCode"`
}

// Recognize returns the text of every recognized region of the page joined with
// newlines and trimmed. An empty string means OCR produced nothing usable.
func (c *Client) Recognize(ctx context.Context, page segment.Page) (string, error) {
	log := logger.FromContext(ctx)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &TransportError{Page: page.Index, Err: fmt.Errorf("rate limiter wait: %w", err)}
		}
	}

	body, contentType, err := c.buildForm(page)
	if err != nil {
		return "", &TransportError{Page: page.Index, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", &TransportError{Page: page.Index, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Page: page.Index, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Page: page.Index, Err: fmt.Errorf("reading body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{Page: page.Index, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, textutil.Excerpt(string(raw), 200))}
	}

	var parsed parseResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &TransportError{Page: page.Index, Err: fmt.Errorf("decoding reply: %w", err)}
	}

	if parsed.IsErroredOnProcessing {
		return "", &ProcessingError{Page: page.Index, Message: errorMessage(parsed.ErrorMessage)}
	}

	parts := make([]string, 0, len(parsed.ParsedResults))
	for _, r := range parsed.ParsedResults {
		parts = append(parts, r.ParsedText)
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))

	log.Debug().
		Int("page", page.Index).
		Int("regions", len(parsed.ParsedResults)).
		Int("chars", len(text)).
		Dur("duration", time.Since(start)).
		Msg("OCR completed")

	return text, nil
}

func (c *Client) buildForm(page segment.Page) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"apikey", c.apiKey},
		{"language", c.language},
		{"OCREngine", c.engine},
		{"filetype", "PDF"},
		{"isOverlayRequired", "false"},
		{"scale", "true"},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}

	fw, err := w.CreateFormFile("file", fmt.Sprintf("page-%d.pdf", page.Index))
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := fw.Write(page.Data); err != nil {
		return nil, "", fmt.Errorf("writing file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// errorMessage flattens ErrorMessage, which the service sends either as a
// string or as an array of strings.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "unknown error"
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && one != "" {
		return one
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return strings.Join(many, "; ")
	}
	return string(raw)
}
