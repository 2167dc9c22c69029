package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/statement-extractor/internal/jobs"
	"github.com/dvloznov/statement-extractor/internal/pipeline"
)

func TestStore_SaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ExtractStatementJob{JobID: "job-1", GCSURI: "gs://b/jan.pdf", Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	job.Status = jobs.JobStatusFailed

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != jobs.JobStatusPending {
		t.Errorf("Status = %q, want %q", got.Status, jobs.JobStatusPending)
	}
}

func TestStore_Errors(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.SaveJob(ctx, &jobs.ExtractStatementJob{}); err == nil {
		t.Error("expected error for job without ID")
	}
	if _, err := store.GetJob(ctx, "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetJob() error = %v, want ErrJobNotFound", err)
	}
	if err := store.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, "boom"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("UpdateJobStatus() error = %v, want ErrJobNotFound", err)
	}
}

func TestStore_ListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, status := range []jobs.JobStatus{jobs.JobStatusCompleted, jobs.JobStatusFailed, jobs.JobStatusCompleted} {
		job := &jobs.ExtractStatementJob{
			JobID:     string(rune('a' + i)),
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"c", "b", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusCompleted}, []string{"c", "a"}},
		{"limit", jobs.JobFilter{Limit: 1}, []string{"c"}},
		{"offset", jobs.JobFilter{Offset: 1}, []string{"b", "a"}},
		{"offset past end", jobs.JobFilter{Offset: 5}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListJobs() returned %d jobs, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].JobID != id {
					t.Errorf("job[%d] = %q, want %q", i, got[i].JobID, id)
				}
			}
		})
	}
}

func TestStore_ListJobsOmitsResults(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	job := &jobs.ExtractStatementJob{
		JobID:            "with-result",
		Status:           jobs.JobStatusCompleted,
		TransactionCount: 2,
		Result:           &pipeline.Result{RunID: "run-1"},
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	listed, _ := store.ListJobs(ctx, jobs.JobFilter{})
	if len(listed) != 1 || listed[0].Result != nil || listed[0].TransactionCount != 2 {
		t.Errorf("unexpected listing: %+v", listed)
	}

	full, _ := store.GetJob(ctx, "with-result")
	if full.Result == nil || full.Result.RunID != "run-1" {
		t.Errorf("GetJob should keep the result: %+v", full)
	}
}

func TestStore_UpdateJobStatus(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_ = store.SaveJob(ctx, &jobs.ExtractStatementJob{JobID: "j", Status: jobs.JobStatusRunning})

	if err := store.UpdateJobStatus(ctx, "j", jobs.JobStatusFailed, "page 2 (ocr): timeout"); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}
	got, _ := store.GetJob(ctx, "j")
	if got.Status != jobs.JobStatusFailed || got.Error != "page 2 (ocr): timeout" {
		t.Errorf("unexpected job: %+v", got)
	}
}
