package pipeline

import "fmt"

// Stage names the part of page processing that produced an error.
type Stage string

const (
	StageOCR          Stage = "ocr"
	StageMetadata     Stage = "metadata"
	StageTransactions Stage = "transactions"
)

// EmptyOrMalformedReplyError means a reply contained no JSON object at all.
type EmptyOrMalformedReplyError struct {
	Label string
}

func (e *EmptyOrMalformedReplyError) Error() string {
	return fmt.Sprintf("%s: reply contains no JSON object", e.Label)
}

// JSONRepairFailedError means the object candidate still failed to parse after
// repair. Excerpt is a bounded prefix of the repaired text.
type JSONRepairFailedError struct {
	Label   string
	Err     error
	Excerpt string
}

func (e *JSONRepairFailedError) Error() string {
	return fmt.Sprintf("%s: JSON repair failed: %v (repaired text: %q)", e.Label, e.Err, e.Excerpt)
}

func (e *JSONRepairFailedError) Unwrap() error { return e.Err }

// PageError annotates a failure with the page and stage that produced it.
type PageError struct {
	Page  int
	Stage Stage
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d (%s): %v", e.Page, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }
