package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/pipeline"
)

const (
	runsTable         = "statement_runs"
	accountsTable     = "accounts"
	transactionsTable = "transactions"
)

// ResultRepository persists pipeline results.
// This interface enables mocking and testing of storage functionality.
type ResultRepository interface {
	SaveResult(ctx context.Context, result *pipeline.Result, sourceURI string) error
	RecordFailure(ctx context.Context, fileName, sourceURI string, runErr error) (string, error)
	ListRuns(ctx context.Context, limit int) ([]*RunRow, error)
	ListTransactions(ctx context.Context, runID string) ([]*TransactionRow, error)
	Close() error
}

// ResultStore is the BigQuery implementation of ResultRepository. It holds a
// shared client to avoid creating a new connection for each operation.
type ResultStore struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewResultStore creates a ResultStore writing to projectID.datasetID.
func NewResultStore(ctx context.Context, projectID, datasetID string) (*ResultStore, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewResultStore: creating client: %w", err)
	}
	return &ResultStore{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// Close closes the BigQuery client connection.
func (s *ResultStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// SaveResult writes the run, its accounts and their transactions.
func (s *ResultStore) SaveResult(ctx context.Context, result *pipeline.Result, sourceURI string) error {
	run, accounts, txs, err := RowsFromResult(result, sourceURI, time.Now())
	if err != nil {
		return fmt.Errorf("SaveResult: mapping rows: %w", err)
	}

	if err := InsertRunWithClient(ctx, s.client, s.datasetID, run); err != nil {
		return err
	}
	if err := InsertAccountsWithClient(ctx, s.client, s.datasetID, accounts); err != nil {
		return err
	}
	if err := InsertTransactionsWithClient(ctx, s.client, s.datasetID, txs); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("run_id", run.RunID).
		Int("accounts", len(accounts)).
		Int("transactions", len(txs)).
		Msg("Saved statement run to BigQuery")
	return nil
}

// RecordFailure stores a FAILED run row and returns its generated run ID.
func (s *ResultStore) RecordFailure(ctx context.Context, fileName, sourceURI string, runErr error) (string, error) {
	row := FailedRunRow(uuid.NewString(), fileName, sourceURI, runErr, time.Now())
	if err := InsertRunWithClient(ctx, s.client, s.datasetID, row); err != nil {
		return "", err
	}
	return row.RunID, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *ResultStore) ListRuns(ctx context.Context, limit int) ([]*RunRow, error) {
	return ListRunsWithClient(ctx, s.client, s.projectID, s.datasetID, limit)
}

// ListTransactions returns the transactions of one run in account and line order.
func (s *ResultStore) ListTransactions(ctx context.Context, runID string) ([]*TransactionRow, error) {
	return ListTransactionsWithClient(ctx, s.client, s.projectID, s.datasetID, runID)
}

// InsertRunWithClient inserts one statement_runs row.
func InsertRunWithClient(ctx context.Context, client *bigquery.Client, datasetID string, row *RunRow) error {
	inserter := client.Dataset(datasetID).Table(runsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertRun: inserting row: %w", err)
	}
	return nil
}

// InsertAccountsWithClient inserts a batch of accounts rows.
func InsertAccountsWithClient(ctx context.Context, client *bigquery.Client, datasetID string, rows []*AccountRow) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := client.Dataset(datasetID).Table(accountsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertAccounts: inserting rows: %w", err)
	}
	return nil
}

// InsertTransactionsWithClient inserts a batch of transactions rows.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, datasetID string, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := client.Dataset(datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// ListRunsWithClient retrieves the latest runs using the provided BigQuery client.
func ListRunsWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, limit int) ([]*RunRow, error) {
	if limit <= 0 {
		limit = 20
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			run_id,
			file_name,
			source_uri,
			status,
			error_message,
			failed_page,
			failed_stage,
			page_count,
			account_count,
			transaction_count,
			skipped_pages,
			warnings,
			created_ts
		FROM `+"`%s.%s.%s`"+`
		ORDER BY created_ts DESC
		LIMIT @limit
	`, projectID, datasetID, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: query read: %w", err)
	}

	var rows []*RunRow
	for {
		var r RunRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRuns: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// ListTransactionsWithClient retrieves one run's transactions using the
// provided BigQuery client.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID, runID string) ([]*TransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			t.transaction_id,
			t.run_id,
			t.account_id,
			t.line_no,
			t.transaction_date,
			t.description,
			t.debit,
			t.credit,
			t.balance,
			t.created_ts
		FROM `+"`%[1]s.%[2]s.%[3]s`"+` t
		INNER JOIN `+"`%[1]s.%[2]s.%[4]s`"+` a
		  ON t.run_id = a.run_id AND t.account_id = a.account_id
		WHERE t.run_id = @run_id
		ORDER BY a.position, t.line_no
	`, projectID, datasetID, transactionsTable, accountsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
