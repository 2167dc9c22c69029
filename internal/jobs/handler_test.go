package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dvloznov/statement-extractor/internal/pipeline"
	"github.com/dvloznov/statement-extractor/internal/segment"
)

type mockFetcher struct {
	FetchFunc func(ctx context.Context, uri string) ([]byte, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return m.FetchFunc(ctx, uri)
}

type mockRunner struct {
	RunFunc func(ctx context.Context, data []byte, fileName string) (*pipeline.Result, error)
}

func (m *mockRunner) Run(ctx context.Context, data []byte, fileName string) (*pipeline.Result, error) {
	return m.RunFunc(ctx, data, fileName)
}

type mockSaver struct {
	saved    []*pipeline.Result
	failures []error
}

func (m *mockSaver) SaveResult(ctx context.Context, result *pipeline.Result, sourceURI string) error {
	m.saved = append(m.saved, result)
	return nil
}

func (m *mockSaver) RecordFailure(ctx context.Context, fileName, sourceURI string, runErr error) (string, error) {
	m.failures = append(m.failures, runErr)
	return "failed-run", nil
}

func TestExtractHandler_Success(t *testing.T) {
	fetcher := &mockFetcher{FetchFunc: func(ctx context.Context, uri string) ([]byte, error) {
		if uri != "gs://b/2024/jan.pdf" {
			t.Errorf("Fetch uri = %q", uri)
		}
		return []byte("%PDF"), nil
	}}
	runner := &mockRunner{RunFunc: func(ctx context.Context, data []byte, fileName string) (*pipeline.Result, error) {
		if fileName != "jan.pdf" {
			t.Errorf("fileName = %q, want jan.pdf", fileName)
		}
		return &pipeline.Result{
			RunID:     "run-1",
			FileName:  fileName,
			PageCount: 2,
			Accounts: []pipeline.Account{{
				ID:           "999",
				Transactions: []pipeline.TransactionRow{{Description: "a"}, {Description: "b"}},
			}},
		}, nil
	}}
	saver := &mockSaver{}

	job := &ExtractStatementJob{JobID: "job-1", GCSURI: "gs://b/2024/jan.pdf"}
	if err := NewExtractHandler(fetcher, runner, saver)(context.Background(), job); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if job.RunID != "run-1" || job.PageCount != 2 || job.AccountCount != 1 || job.TransactionCount != 2 {
		t.Errorf("job summary not filled: %+v", job)
	}
	if job.Result == nil || len(saver.saved) != 1 {
		t.Errorf("result should be kept on the job and saved once")
	}
}

func TestExtractHandler_RunFailure(t *testing.T) {
	runErr := &pipeline.PageError{Page: 2, Stage: pipeline.StageOCR, Err: errors.New("timeout")}
	fetcher := &mockFetcher{FetchFunc: func(ctx context.Context, uri string) ([]byte, error) { return []byte("x"), nil }}
	runner := &mockRunner{RunFunc: func(ctx context.Context, data []byte, fileName string) (*pipeline.Result, error) {
		return nil, runErr
	}}
	saver := &mockSaver{}

	job := &ExtractStatementJob{JobID: "job-2", GCSURI: "gs://b/feb.pdf"}
	err := NewExtractHandler(fetcher, runner, saver)(context.Background(), job)

	if !errors.Is(err, runErr) {
		t.Fatalf("handler error = %v, want run error", err)
	}
	if len(saver.failures) != 1 || job.RunID != "failed-run" {
		t.Errorf("failure should be recorded: failures=%d run_id=%q", len(saver.failures), job.RunID)
	}
}

func TestExtractHandler_FetchFailureWithoutSaver(t *testing.T) {
	fetcher := &mockFetcher{FetchFunc: func(ctx context.Context, uri string) ([]byte, error) {
		return nil, errors.New("object not found")
	}}
	runner := &mockRunner{RunFunc: func(ctx context.Context, data []byte, fileName string) (*pipeline.Result, error) {
		t.Error("runner should not be called when fetch fails")
		return nil, nil
	}}

	err := NewExtractHandler(fetcher, runner, nil)(context.Background(), &ExtractStatementJob{GCSURI: "gs://b/x.pdf"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unreadable document", &segment.DocumentLoadError{Page: 2, Err: errors.New("corrupt")}, false},
		{"wrapped unreadable document", fmt.Errorf("run: %w", &segment.DocumentLoadError{Err: errors.New("empty payload")}), false},
		{"cancelled", context.Canceled, false},
		{"page failure", &pipeline.PageError{Page: 1, Stage: pipeline.StageOCR, Err: errors.New("timeout")}, true},
		{"fetch failure", errors.New("fetching statement: 503"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
