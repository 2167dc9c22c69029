package ocr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dvloznov/statement-extractor/internal/segment"
)

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("apikey"); got != "test-key" {
			t.Errorf("apikey = %q, want test-key", got)
		}
		if got := r.FormValue("language"); got != "eng" {
			t.Errorf("language = %q, want eng", got)
		}
		if got := r.FormValue("OCREngine"); got != "2" {
			t.Errorf("OCREngine = %q, want 2", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRecognize_JoinsRegions(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{
		"ParsedResults": [
			{"ParsedText": "  Alpha Bank\r\nAccount No: 1234567890 "},
			{"ParsedText": "Transactions\n01/02 Coffee 3.50  "}
		],
		"OCRExitCode": 1,
		"IsErroredOnProcessing": false
	}`)

	c := NewClient("test-key", Options{Endpoint: srv.URL})
	text, err := c.Recognize(context.Background(), segment.Page{Index: 1, Data: []byte("%PDF")})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	want := "Alpha Bank\r\nAccount No: 1234567890 \nTransactions\n01/02 Coffee 3.50"
	if text != want {
		t.Errorf("Recognize() = %q, want %q", text, want)
	}
}

func TestRecognize_EmptyResult(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"ParsedResults": [{"ParsedText": " \n "}], "IsErroredOnProcessing": false}`)

	c := NewClient("test-key", Options{Endpoint: srv.URL})
	text, err := c.Recognize(context.Background(), segment.Page{Index: 3})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestRecognize_ProcessingError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "array message",
			body:    `{"IsErroredOnProcessing": true, "ErrorMessage": ["File failed validation", "Page limit"]}`,
			message: "File failed validation; Page limit",
		},
		{
			name:    "string message",
			body:    `{"IsErroredOnProcessing": true, "ErrorMessage": "Timed out waiting for results"}`,
			message: "Timed out waiting for results",
		},
		{
			name:    "missing message",
			body:    `{"IsErroredOnProcessing": true}`,
			message: "unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, http.StatusOK, tt.body)
			c := NewClient("test-key", Options{Endpoint: srv.URL})

			_, err := c.Recognize(context.Background(), segment.Page{Index: 2})
			var procErr *ProcessingError
			if !errors.As(err, &procErr) {
				t.Fatalf("expected ProcessingError, got %T: %v", err, err)
			}
			if procErr.Page != 2 {
				t.Errorf("Page = %d, want 2", procErr.Page)
			}
			if procErr.Message != tt.message {
				t.Errorf("Message = %q, want %q", procErr.Message, tt.message)
			}
		})
	}
}

func TestRecognize_TransportErrors(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		srv := newTestServer(t, http.StatusForbidden, `The API key is invalid`)
		c := NewClient("test-key", Options{Endpoint: srv.URL})

		_, err := c.Recognize(context.Background(), segment.Page{Index: 1})
		var trErr *TransportError
		if !errors.As(err, &trErr) {
			t.Fatalf("expected TransportError, got %T: %v", err, err)
		}
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv := newTestServer(t, http.StatusOK, `<html>maintenance</html>`)
		c := NewClient("test-key", Options{Endpoint: srv.URL})

		_, err := c.Recognize(context.Background(), segment.Page{Index: 1})
		var trErr *TransportError
		if !errors.As(err, &trErr) {
			t.Fatalf("expected TransportError, got %T: %v", err, err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewClient("test-key", Options{Endpoint: srv.URL, Timeout: 20 * time.Millisecond})
		_, err := c.Recognize(context.Background(), segment.Page{Index: 5})
		var trErr *TransportError
		if !errors.As(err, &trErr) {
			t.Fatalf("expected TransportError, got %T: %v", err, err)
		}
		if trErr.Page != 5 {
			t.Errorf("Page = %d, want 5", trErr.Page)
		}
	})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("k", Options{RequestsPerMinute: 30})
	if c.endpoint != DefaultEndpoint {
		t.Errorf("endpoint = %q", c.endpoint)
	}
	if c.httpClient.Timeout != defaultTimeout {
		t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, defaultTimeout)
	}
	if c.limiter == nil {
		t.Error("expected a rate limiter")
	}
}
