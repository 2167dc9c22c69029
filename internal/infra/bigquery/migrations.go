package bigquery

import (
	"context"
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/statement-extractor/internal/logger"
)

const migrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// EmbeddedMigrations returns the schema for the tables written by ResultStore.
func EmbeddedMigrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// migrationPattern matches migration files: 0001_name.sql
var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration is one versioned DDL file.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// ReadMigrations loads every NNNN_name.sql file at the root of fsys, sorted by
// version, with {{PROJECT_ID}} and {{DATASET_ID}} substituted. Checksums are
// taken before substitution so the same file hashes identically in every
// project.
func ReadMigrations(fsys fs.FS, projectID, datasetID string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("ReadMigrations: reading directory: %w", err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matches := migrationPattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}

		version, _ := strconv.Atoi(matches[1])
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("ReadMigrations: version %04d used by both %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("ReadMigrations: reading %s: %w", entry.Name(), err)
		}

		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", projectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: entry.Name(),
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// PendingMigrations returns the migrations whose version is not in applied.
// It fails when an applied migration's checksum no longer matches its file.
func PendingMigrations(all []Migration, applied []AppliedMigration) ([]Migration, error) {
	appliedByVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		appliedByVersion[am.Version] = am
	}

	var pending []Migration
	for _, m := range all {
		am, ok := appliedByVersion[m.Version]
		if !ok {
			pending = append(pending, m)
			continue
		}
		if am.Checksum != "" && am.Checksum != m.Checksum {
			return nil, fmt.Errorf("PendingMigrations: %s changed after it was applied", m.Filename)
		}
	}
	return pending, nil
}

// MigrateWithClient applies pending migrations in version order and records
// each one in schema_migrations. It returns the number applied.
func MigrateWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID, appliedBy string, migrations []Migration) (int, error) {
	log := logger.FromContext(ctx)

	if err := ensureMigrationsTable(ctx, client, projectID, datasetID); err != nil {
		return 0, err
	}

	applied, err := appliedMigrationsWithClient(ctx, client, projectID, datasetID)
	if err != nil {
		return 0, err
	}

	pending, err := PendingMigrations(migrations, applied)
	if err != nil {
		return 0, err
	}

	for _, m := range pending {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applying migration")

		if err := runStatement(ctx, client, m.SQL, nil); err != nil {
			return 0, fmt.Errorf("MigrateWithClient: applying %s: %w", m.Filename, err)
		}

		record := fmt.Sprintf(`
			INSERT INTO `+"`%s.%s.%s`"+`
			(version, name, applied_at, checksum, applied_by)
			VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
		`, projectID, datasetID, migrationsTable)
		params := []bigquery.QueryParameter{
			{Name: "version", Value: m.Version},
			{Name: "name", Value: m.Name},
			{Name: "checksum", Value: m.Checksum},
			{Name: "applied_by", Value: appliedBy},
		}
		if err := runStatement(ctx, client, record, params); err != nil {
			return 0, fmt.Errorf("MigrateWithClient: recording %s: %w", m.Filename, err)
		}
	}

	return len(pending), nil
}

func ensureMigrationsTable(ctx context.Context, client *bigquery.Client, projectID, datasetID string) error {
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS `+"`%s.%s.%s`"+` (
			version    INT64 NOT NULL,
			name       STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum   STRING,
			applied_by STRING
		)
	`, projectID, datasetID, migrationsTable)

	if err := runStatement(ctx, client, sql, nil); err != nil {
		return fmt.Errorf("ensureMigrationsTable: %w", err)
	}
	return nil
}

func appliedMigrationsWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string) ([]AppliedMigration, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM `+"`%s.%s.%s`"+`
		ORDER BY version ASC
	`, projectID, datasetID, migrationsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("appliedMigrations: query read: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("appliedMigrations: iter next: %w", err)
		}

		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}

	return applied, nil
}

// runStatement runs a DDL or DML statement and waits for it to finish.
func runStatement(ctx context.Context, client *bigquery.Client, sql string, params []bigquery.QueryParameter) error {
	q := client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
