package pipeline

import (
	"context"
	"testing"

	"github.com/dvloznov/statement-extractor/internal/config"
)

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		OCR:      config.OCRConfig{APIKey: "k"},
		LLM:      config.LLMConfig{Provider: config.ProviderHTTP, Endpoint: "http://localhost:11434/api/generate", Model: "llama3"},
		Pipeline: config.PipelineConfig{IsolatePageFailures: true},
	}

	o, err := NewFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	if !o.isolate {
		t.Error("expected page fault isolation from config")
	}

	o, err = NewFromConfig(context.Background(), cfg, WithPageFaultIsolation(false))
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	if o.isolate {
		t.Error("explicit option should override config")
	}
}

func TestNewFromConfig_UnknownProvider(t *testing.T) {
	cfg := &config.Config{
		OCR: config.OCRConfig{APIKey: "k"},
		LLM: config.LLMConfig{Provider: "bard"},
	}
	if _, err := NewFromConfig(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
