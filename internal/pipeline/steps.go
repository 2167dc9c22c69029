package pipeline

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/statement-extractor/internal/llm"
	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/segment"
)

// PipelineStep represents a single step in the processing of one page.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds what the steps learn about one page.
type PipelineState struct {
	Page         segment.Page
	Text         string
	Metadata     AccountMetadata
	Transactions []TransactionRow
	Notes        []Warning
	AccountID    string
	IDSource     IDSource
	Created      bool

	// Skipped is set when OCR produced no text; later steps do not run.
	Skipped bool
}

// Step 1: RecognizeStep obtains the page text from OCR.
type RecognizeStep struct {
	OCR TextRecognizer
}

func (s *RecognizeStep) Execute(ctx context.Context, state *PipelineState) error {
	text, err := s.OCR.Recognize(ctx, state.Page)
	if err != nil {
		return &PageError{Page: state.Page.Index, Stage: StageOCR, Err: err}
	}
	state.Text = text
	if strings.TrimSpace(text) == "" {
		state.Skipped = true
	}
	return nil
}

// Step 2: ExtractStep runs metadata and transaction extraction for the page
// concurrently. Both must succeed.
type ExtractStep struct {
	Extractor Extractor
}

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	g, gctx := errgroup.WithContext(ctx)

	var (
		meta  AccountMetadata
		rows  []TransactionRow
		notes []string
	)

	g.Go(func() error {
		raw, err := s.extract(gctx, state.Page.Index, StageMetadata, BuildMetadataPrompt(state.Text))
		if err != nil {
			return err
		}
		meta = transformMetadata(raw)
		return nil
	})

	g.Go(func() error {
		raw, err := s.extract(gctx, state.Page.Index, StageTransactions, BuildTransactionPrompt(TransactionWindow(state.Text)))
		if err != nil {
			return err
		}
		rows, notes = transformTransactions(raw)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	state.Metadata = meta
	state.Transactions = rows
	for _, n := range notes {
		state.Notes = append(state.Notes, Warning{Page: state.Page.Index, Stage: StageTransactions, Message: n})
	}
	return nil
}

func (s *ExtractStep) extract(ctx context.Context, page int, stage Stage, prompt string) (map[string]interface{}, error) {
	reply, err := s.Extractor.Generate(ctx, llm.Request{Page: page, Label: string(stage), Prompt: prompt})
	if err != nil {
		return nil, &PageError{Page: page, Stage: stage, Err: err}
	}
	raw, err := ExtractJSON(reply, string(stage))
	if err != nil {
		return nil, &PageError{Page: page, Stage: stage, Err: err}
	}
	return raw, nil
}

// Step 3: ResolveStep picks the account the page belongs to.
type ResolveStep struct {
	Resolver *Resolver
}

func (s *ResolveStep) Execute(ctx context.Context, state *PipelineState) error {
	state.AccountID, state.IDSource = s.Resolver.Resolve(state.Metadata, state.Text)
	return nil
}

// Step 4: AggregateStep appends the page's rows to its account.
type AggregateStep struct {
	Ledger *Ledger
}

func (s *AggregateStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Created = s.Ledger.Record(state.AccountID, state.Metadata, state.Transactions)

	log := logger.FromContext(ctx)
	log.Debug().
		Int("page", state.Page.Index).
		Str("account_id", state.AccountID).
		Str("id_source", string(state.IDSource)).
		Bool("new_account", state.Created).
		Int("transactions", len(state.Transactions)).
		Msg("Page aggregated")
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs the steps sequentially, stopping early once the page is
// marked skipped.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for _, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return err
		}
		if state.Skipped {
			return nil
		}
	}
	return nil
}

// NewPageProcessingPipeline creates the standard four-step pipeline applied
// to every page of a run.
func NewPageProcessingPipeline(ocr TextRecognizer, extractor Extractor, resolver *Resolver, ledger *Ledger) *Pipeline {
	return NewPipeline(
		&RecognizeStep{OCR: ocr},
		&ExtractStep{Extractor: extractor},
		&ResolveStep{Resolver: resolver},
		&AggregateStep{Ledger: ledger},
	)
}
