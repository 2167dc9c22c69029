package main

import (
	"context"
	"flag"
	"io/fs"
	"os"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/statement-extractor/internal/config"
	infraBQ "github.com/dvloznov/statement-extractor/internal/infra/bigquery"
	"github.com/dvloznov/statement-extractor/internal/logger"
)

func main() {
	log := logger.New()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load .env")
	}

	dataset := os.Getenv("BIGQUERY_DATASET")
	if dataset == "" {
		dataset = "statements"
	}

	var (
		projectID     = flag.String("project", os.Getenv("BIGQUERY_PROJECT"), "GCP project ID (or set BIGQUERY_PROJECT env)")
		datasetID     = flag.String("dataset", dataset, "BigQuery dataset ID (or set BIGQUERY_DATASET env)")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		migrationsDir = flag.String("migrations", "", "Directory of NNNN_name.sql files (defaults to the built-in schema)")
		dryRun        = flag.Bool("dry-run", false, "List the migrations without applying them")
	)
	flag.Parse()

	if *projectID == "" {
		log.Fatal().Msg("Error: -project flag is required. Please specify your GCP project ID.")
	}

	var source fs.FS = infraBQ.EmbeddedMigrations()
	if *migrationsDir != "" {
		source = os.DirFS(*migrationsDir)
	}

	migrations, err := infraBQ.ReadMigrations(source, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	if *dryRun {
		for _, m := range migrations {
			log.Info().Int("version", m.Version).Str("file", m.Filename).Str("checksum", m.Checksum[:12]).Msg("Migration")
		}
		return
	}

	ctx := logger.WithContext(context.Background(), log)

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")

	applied, err := infraBQ.MigrateWithClient(ctx, client, *projectID, *datasetID, *appliedBy, migrations)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	if applied == 0 {
		log.Info().Msg("No new migrations to apply. Dataset is up to date.")
	} else {
		log.Info().Int("applied", applied).Msg("Migrations applied")
	}
}
