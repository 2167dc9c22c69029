package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-extractor/internal/config"
	"github.com/dvloznov/statement-extractor/internal/llm"
	"github.com/dvloznov/statement-extractor/internal/ocr"
)

// NewFromConfig wires the OCR and extraction adapters named in cfg into an
// Orchestrator. Extra options are applied after the configured ones.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	ocrClient := ocr.NewClient(cfg.OCR.APIKey, ocr.Options{
		Endpoint:          cfg.OCR.Endpoint,
		Language:          cfg.OCR.Language,
		Engine:            cfg.OCR.Engine,
		Timeout:           cfg.OCR.Timeout,
		RequestsPerMinute: cfg.OCR.RequestsPerMinute,
	})

	extractor, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("NewFromConfig: creating extraction client: %w", err)
	}

	all := append([]Option{WithPageFaultIsolation(cfg.Pipeline.IsolatePageFailures)}, opts...)
	return NewOrchestrator(ocrClient, extractor, all...), nil
}
