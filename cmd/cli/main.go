package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-extractor/internal/config"
	"github.com/dvloznov/statement-extractor/internal/gcs"
	infraBQ "github.com/dvloznov/statement-extractor/internal/infra/bigquery"
	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/pipeline"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.NewWithLevel(os.Getenv("LOG_LEVEL"), strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		runExtract(log)
	case "upload":
		runUpload(log)
	case "runs":
		runRuns(log)
	case "inspect":
		runInspect(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Statement Extractor CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  extract   Extract accounts and transactions from a statement PDF")
	fmt.Println("  upload    Upload a PDF file to GCS")
	fmt.Println("  runs      List saved extraction runs")
	fmt.Println("  inspect   Show the transactions of a saved run")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runExtract(log zerolog.Logger) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	file := fs.String("file", "", "Path to a local PDF or a gs:// URI")
	save := fs.Bool("save", false, "Save the result to BigQuery")
	isolate := fs.Bool("isolate-pages", false, "Record page failures as warnings instead of aborting")
	timeout := fs.Duration("timeout", 30*time.Minute, "Overall time limit for the run")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Usage: cli extract -file PATH|gs://bucket/object [-save]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if *save && cfg.Storage.BigQueryProject == "" {
		log.Fatal().Msg("-save requires BIGQUERY_PROJECT")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var opts []pipeline.Option
	if *isolate {
		opts = append(opts, pipeline.WithPageFaultIsolation(true))
	}
	orchestrator, err := pipeline.NewFromConfig(ctx, cfg, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create pipeline")
	}

	data, fileName, sourceURI, err := readStatement(ctx, *file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read statement")
	}

	var store *infraBQ.ResultStore
	if *save {
		store, err = infraBQ.NewResultStore(ctx, cfg.Storage.BigQueryProject, cfg.Storage.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create result store")
		}
		defer store.Close()
	}

	result, err := orchestrator.Run(ctx, data, fileName)
	if err != nil {
		if store != nil {
			if runID, saveErr := store.RecordFailure(ctx, fileName, sourceURI, err); saveErr != nil {
				log.Error().Err(saveErr).Msg("Failed to record failed run")
			} else {
				log.Info().Str("run_id", runID).Msg("Failed run recorded")
			}
		}
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	if store != nil {
		if err := store.SaveResult(ctx, result, sourceURI); err != nil {
			log.Fatal().Err(err).Msg("Failed to save result")
		}
		log.Info().Str("run_id", result.RunID).Msg("Result saved")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}

// readStatement loads a statement from a local path or a gs:// URI.
func readStatement(ctx context.Context, location string) (data []byte, fileName, sourceURI string, err error) {
	if strings.HasPrefix(location, "gs://") {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, "", "", err
		}
		defer client.Close()

		data, err := client.Fetch(ctx, location)
		if err != nil {
			return nil, "", "", err
		}
		return data, gcs.FilenameFromURI(location), location, nil
	}

	data, err = os.ReadFile(location)
	if err != nil {
		return nil, "", "", err
	}
	return data, filepath.Base(location), "", nil
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket name (or set GCS_BUCKET env)")
	objectName := fs.String("object", "", "GCS object name (defaults to a timestamped name under statements/)")
	filePath := fs.String("file", "", "Path to local PDF file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}

	if *objectName == "" {
		*objectName = gcs.ObjectName("statements", *filePath, time.Now())
	}

	ctx := logger.WithContext(context.Background(), log)

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file")
	}
	defer f.Close()

	client, err := gcs.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer client.Close()

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	uri, err := client.Upload(ctx, *bucketName, *objectName, f)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Println(uri)
}

func openStore(ctx context.Context, log zerolog.Logger, fs *flag.FlagSet) *infraBQ.ResultStore {
	project := fs.Lookup("project").Value.String()
	dataset := fs.Lookup("dataset").Value.String()
	if project == "" {
		log.Fatal().Msg("Error: -project (or BIGQUERY_PROJECT) is required")
	}

	store, err := infraBQ.NewResultStore(ctx, project, dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create result store")
	}
	return store
}

func storeFlags(fs *flag.FlagSet) {
	dataset := os.Getenv("BIGQUERY_DATASET")
	if dataset == "" {
		dataset = "statements"
	}
	fs.String("project", os.Getenv("BIGQUERY_PROJECT"), "BigQuery project ID (or set BIGQUERY_PROJECT env)")
	fs.String("dataset", dataset, "BigQuery dataset ID (or set BIGQUERY_DATASET env)")
}

func runRuns(log zerolog.Logger) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	storeFlags(fs)
	limit := fs.Int("limit", 20, "Maximum number of runs to list")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	store := openStore(ctx, log, fs)
	defer store.Close()

	runs, err := store.ListRuns(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list runs")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tFILE\tSTATUS\tPAGES\tACCOUNTS\tTRANSACTIONS\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.RunID, r.FileName, r.Status, r.PageCount, r.AccountCount, r.TransactionCount,
			r.CreatedTS.Format(time.RFC3339))
	}
	w.Flush()
}

func runInspect(log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	storeFlags(fs)
	runID := fs.String("run-id", "", "Run ID to inspect")
	fs.Parse(os.Args[2:])

	if *runID == "" {
		log.Fatal().Msg("Error: -run-id is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	store := openStore(ctx, log, fs)
	defer store.Close()

	rows, err := store.ListTransactions(ctx, *runID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	fmt.Printf("\n=== Run %s: %d transactions ===\n", *runID, len(rows))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tLINE\tDATE\tDESCRIPTION\tDEBIT\tCREDIT\tBALANCE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			r.AccountID, r.LineNo, r.TransactionDate, r.Description, r.Debit, r.Credit, r.Balance)
	}
	w.Flush()
}
