package pipeline

import (
	"context"

	"github.com/dvloznov/statement-extractor/internal/llm"
	"github.com/dvloznov/statement-extractor/internal/segment"
)

// Splitter breaks a document into single-page payloads.
type Splitter interface {
	Split(data []byte) ([]segment.Page, error)
}

// SplitterFunc adapts a function to Splitter.
type SplitterFunc func(data []byte) ([]segment.Page, error)

// Split calls f(data).
func (f SplitterFunc) Split(data []byte) ([]segment.Page, error) {
	return f(data)
}

// TextRecognizer returns the OCR text of one page. *ocr.Client implements it.
type TextRecognizer interface {
	Recognize(ctx context.Context, page segment.Page) (string, error)
}

// Extractor sends a prompt to the structured-extraction service. Every
// llm.Client implements it.
type Extractor interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}
