package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/statement-extractor/internal/gcs"
	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/pipeline"
	"github.com/dvloznov/statement-extractor/internal/segment"
)

// Fetcher downloads a statement by URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Runner runs the extraction pipeline.
type Runner interface {
	Run(ctx context.Context, data []byte, fileName string) (*pipeline.Result, error)
}

// ResultSaver records run outcomes. It may be nil in NewExtractHandler.
type ResultSaver interface {
	SaveResult(ctx context.Context, result *pipeline.Result, sourceURI string) error
	RecordFailure(ctx context.Context, fileName, sourceURI string, runErr error) (string, error)
}

// NewExtractHandler returns the JobHandler that fetches a statement, runs the
// pipeline on it and saves the outcome.
func NewExtractHandler(fetcher Fetcher, runner Runner, saver ResultSaver) JobHandler {
	return func(ctx context.Context, job *ExtractStatementJob) error {
		log := logger.FromContext(ctx).With().
			Str("job_id", job.JobID).
			Str("gcs_uri", job.GCSURI).
			Logger()
		ctx = logger.WithContext(ctx, log)

		if job.FileName == "" {
			job.FileName = gcs.FilenameFromURI(job.GCSURI)
		}

		data, err := fetcher.Fetch(ctx, job.GCSURI)
		if err != nil {
			return fmt.Errorf("fetching statement: %w", err)
		}

		result, err := runner.Run(ctx, data, job.FileName)
		if err != nil {
			if saver != nil {
				if runID, saveErr := saver.RecordFailure(ctx, job.FileName, job.GCSURI, err); saveErr != nil {
					log.Error().Err(saveErr).Msg("Failed to record failed run")
				} else {
					job.RunID = runID
				}
			}
			return err
		}

		job.RunID = result.RunID
		job.PageCount = result.PageCount
		job.AccountCount = len(result.Accounts)
		job.TransactionCount = result.TransactionCount()
		job.Result = result

		if saver != nil {
			if err := saver.SaveResult(ctx, result, job.GCSURI); err != nil {
				return fmt.Errorf("saving result: %w", err)
			}
		}

		log.Info().
			Str("run_id", result.RunID).
			Int("accounts", job.AccountCount).
			Int("transactions", job.TransactionCount).
			Msg("Statement job completed")
		return nil
	}
}

// IsRetryable reports whether a failed extraction may succeed on another
// attempt. A document that cannot be split fails the same way every time.
func IsRetryable(err error) bool {
	var loadErr *segment.DocumentLoadError
	if errors.As(err, &loadErr) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
