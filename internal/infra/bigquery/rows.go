package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// Run statuses stored in statement_runs.status.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

type RunRow struct {
	RunID        string `bigquery:"run_id"`    // REQUIRED
	FileName     string `bigquery:"file_name"` // REQUIRED
	SourceURI    string `bigquery:"source_uri"`
	Status       string `bigquery:"status"` // REQUIRED
	ErrorMessage string `bigquery:"error_message"`

	FailedPage  bigquery.NullInt64  `bigquery:"failed_page"`
	FailedStage bigquery.NullString `bigquery:"failed_stage"`

	PageCount        int64   `bigquery:"page_count"`
	AccountCount     int64   `bigquery:"account_count"`
	TransactionCount int64   `bigquery:"transaction_count"`
	SkippedPages     []int64 `bigquery:"skipped_pages"` // REPEATED INT64

	Warnings  bigquery.NullJSON `bigquery:"warnings"`
	CreatedTS time.Time         `bigquery:"created_ts"` // REQUIRED
}

type AccountRow struct {
	RunID              string    `bigquery:"run_id"`     // REQUIRED
	AccountID          string    `bigquery:"account_id"` // REQUIRED, resolved identifier
	Position           int64     `bigquery:"position"`
	BankName           string    `bigquery:"bank_name"`
	AccountHolderName  string    `bigquery:"account_holder_name"`
	AccountNumber      string    `bigquery:"account_number"`
	AccountType        string    `bigquery:"account_type"`
	Currency           string    `bigquery:"currency"`
	StatementStartDate string    `bigquery:"statement_start_date"` // as printed, not parsed
	StatementEndDate   string    `bigquery:"statement_end_date"`
	TransactionCount   int64     `bigquery:"transaction_count"`
	CreatedTS          time.Time `bigquery:"created_ts"`
}

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	RunID         string `bigquery:"run_id"`         // REQUIRED
	AccountID     string `bigquery:"account_id"`     // REQUIRED
	LineNo        int64  `bigquery:"line_no"`        // 1-based within the account

	TransactionDate string `bigquery:"transaction_date"`
	Description     string `bigquery:"description"`
	Debit           string `bigquery:"debit"`
	Credit          string `bigquery:"credit"`
	Balance         string `bigquery:"balance"`

	CreatedTS time.Time `bigquery:"created_ts"`
}
