package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/segment"
)

// Orchestrator turns a statement document into per-account results. Pages are
// processed strictly in order because identity resolution depends on the
// previous page.
type Orchestrator struct {
	splitter  Splitter
	ocr       TextRecognizer
	extractor Extractor
	now       func() time.Time
	newRunID  func() string
	isolate   bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the time source used for synthetic account identifiers.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSplitter replaces the PDF page splitter.
func WithSplitter(s Splitter) Option {
	return func(o *Orchestrator) { o.splitter = s }
}

// WithRunIDs sets the generator for run identifiers.
func WithRunIDs(newID func() string) Option {
	return func(o *Orchestrator) { o.newRunID = newID }
}

// WithPageFaultIsolation makes page failures non-fatal. A failed page is
// recorded as a warning and contributes nothing to the result.
func WithPageFaultIsolation(enabled bool) Option {
	return func(o *Orchestrator) { o.isolate = enabled }
}

// NewOrchestrator creates an Orchestrator using ocr for page text and
// extractor for structured extraction.
func NewOrchestrator(ocr TextRecognizer, extractor Extractor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		splitter:  SplitterFunc(segment.Split),
		ocr:       ocr,
		extractor: extractor,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes data, the bytes of one statement, and returns its accounts.
// A document that cannot be split fails the run. Any other failure fails it
// too unless page fault isolation is on; the returned error is then a
// *PageError naming the page and stage.
func (o *Orchestrator) Run(ctx context.Context, data []byte, fileName string) (*Result, error) {
	runID := o.newRunID()
	log := logger.FromContext(ctx).With().
		Str("run_id", runID).
		Str("file_name", fileName).
		Logger()
	ctx = logger.WithContext(ctx, log)

	start := time.Now()

	pages, err := o.splitter.Split(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to split document")
		return nil, err
	}
	log.Info().Int("pages", len(pages)).Msg("Document split into pages")

	ledger := NewLedger()
	resolver := NewResolver(o.now)
	steps := NewPageProcessingPipeline(o.ocr, o.extractor, resolver, ledger)

	result := &Result{
		RunID:        runID,
		FileName:     fileName,
		PageCount:    len(pages),
		SkippedPages: []int{},
		Warnings:     []Warning{},
	}

	for _, page := range pages {
		state := &PipelineState{Page: page}
		pageLog := log.With().Int("page", page.Index).Logger()

		if err := steps.Execute(ctx, state); err != nil {
			if !o.isolate || ctx.Err() != nil {
				pageLog.Error().Err(err).Msg("Page processing failed")
				return nil, err
			}
			pageLog.Warn().Err(err).Msg("Page processing failed, continuing")
			result.Warnings = append(result.Warnings, pageWarning(page.Index, err))
			continue
		}

		result.Warnings = append(result.Warnings, state.Notes...)
		for _, n := range state.Notes {
			pageLog.Warn().Str("stage", string(n.Stage)).Msg(n.Message)
		}

		if state.Skipped {
			pageLog.Info().Msg("OCR returned no text, page skipped")
			result.SkippedPages = append(result.SkippedPages, page.Index)
			continue
		}

		pageLog.Info().
			Str("account_id", state.AccountID).
			Str("id_source", string(state.IDSource)).
			Int("transactions", len(state.Transactions)).
			Msg("Page processed")
	}

	result.Accounts = ledger.Accounts()

	log.Info().
		Int("accounts", len(result.Accounts)).
		Int("transactions", result.TransactionCount()).
		Int("skipped_pages", len(result.SkippedPages)).
		Int("warnings", len(result.Warnings)).
		Dur("duration", time.Since(start)).
		Msg("Statement processed")

	return result, nil
}

func pageWarning(page int, err error) Warning {
	w := Warning{Page: page, Message: err.Error()}
	var pe *PageError
	if errors.As(err, &pe) {
		w.Stage = pe.Stage
	}
	return w
}
