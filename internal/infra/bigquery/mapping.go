package bigquery

import (
	"encoding/json"
	"errors"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/statement-extractor/internal/pipeline"
)

const maxErrorMessage = 2000

// RowsFromResult flattens a pipeline result into the rows SaveResult writes.
func RowsFromResult(result *pipeline.Result, sourceURI string, now time.Time) (*RunRow, []*AccountRow, []*TransactionRow, error) {
	run := &RunRow{
		RunID:            result.RunID,
		FileName:         result.FileName,
		SourceURI:        sourceURI,
		Status:           StatusSuccess,
		PageCount:        int64(result.PageCount),
		AccountCount:     int64(len(result.Accounts)),
		TransactionCount: int64(result.TransactionCount()),
		SkippedPages:     make([]int64, 0, len(result.SkippedPages)),
		CreatedTS:        now,
	}
	for _, p := range result.SkippedPages {
		run.SkippedPages = append(run.SkippedPages, int64(p))
	}
	if len(result.Warnings) > 0 {
		b, err := json.Marshal(result.Warnings)
		if err != nil {
			return nil, nil, nil, err
		}
		run.Warnings = bigquery.NullJSON{JSONVal: string(b), Valid: true}
	}

	accounts := make([]*AccountRow, 0, len(result.Accounts))
	var txs []*TransactionRow

	for i, acc := range result.Accounts {
		accounts = append(accounts, &AccountRow{
			RunID:              result.RunID,
			AccountID:          acc.ID,
			Position:           int64(i + 1),
			BankName:           acc.Metadata.BankName,
			AccountHolderName:  acc.Metadata.AccountHolderName,
			AccountNumber:      acc.Metadata.AccountNumber,
			AccountType:        acc.Metadata.AccountType,
			Currency:           acc.Metadata.Currency,
			StatementStartDate: acc.Metadata.StatementStartDate,
			StatementEndDate:   acc.Metadata.StatementEndDate,
			TransactionCount:   int64(len(acc.Transactions)),
			CreatedTS:          now,
		})

		for j, tx := range acc.Transactions {
			txs = append(txs, &TransactionRow{
				TransactionID:   uuid.NewString(),
				RunID:           result.RunID,
				AccountID:       acc.ID,
				LineNo:          int64(j + 1),
				TransactionDate: tx.Date,
				Description:     tx.Description,
				Debit:           tx.Debit,
				Credit:          tx.Credit,
				Balance:         tx.Balance,
				CreatedTS:       now,
			})
		}
	}

	return run, accounts, txs, nil
}

// FailedRunRow describes a run that did not produce a result.
func FailedRunRow(runID, fileName, sourceURI string, runErr error, now time.Time) *RunRow {
	row := &RunRow{
		RunID:        runID,
		FileName:     fileName,
		SourceURI:    sourceURI,
		Status:       StatusFailed,
		SkippedPages: []int64{},
		CreatedTS:    now,
	}

	if runErr != nil {
		row.ErrorMessage = runErr.Error()
		if len(row.ErrorMessage) > maxErrorMessage {
			row.ErrorMessage = row.ErrorMessage[:maxErrorMessage]
		}

		var pageErr *pipeline.PageError
		if errors.As(runErr, &pageErr) {
			row.FailedPage = bigquery.NullInt64{Int64: int64(pageErr.Page), Valid: true}
			row.FailedStage = bigquery.NullString{StringVal: string(pageErr.Stage), Valid: true}
		}
	}

	return row
}
