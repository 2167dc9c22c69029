package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/statement-extractor/internal/api/handlers"
	"github.com/dvloznov/statement-extractor/internal/api/middleware"
	"github.com/dvloznov/statement-extractor/internal/config"
	"github.com/dvloznov/statement-extractor/internal/gcs"
	infraBQ "github.com/dvloznov/statement-extractor/internal/infra/bigquery"
	"github.com/dvloznov/statement-extractor/internal/jobs"
	"github.com/dvloznov/statement-extractor/internal/jobs/inmemory"
	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.NewWithLevel(cfg.Log.Level, cfg.Log.JSON)
	ctx := logger.WithContext(context.Background(), log)

	orchestrator, err := pipeline.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create pipeline")
	}

	storageClient, err := gcs.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer storageClient.Close()

	if cfg.Storage.Bucket == "" {
		log.Warn().Msg("No GCS bucket configured - uploads will not be archived")
	}

	// Results are only persisted when a BigQuery project is configured.
	var saver jobs.ResultSaver
	var resultStore *infraBQ.ResultStore
	if cfg.Storage.BigQueryProject != "" {
		resultStore, err = infraBQ.NewResultStore(ctx, cfg.Storage.BigQueryProject, cfg.Storage.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create result store")
		}
		defer resultStore.Close()
		saver = resultStore
	} else {
		log.Warn().Msg("No BigQuery project configured - results will not be persisted")
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.Options{
		BufferSize: 100,
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		JobTimeout: cfg.Jobs.Timeout,
		Retryable:  jobs.IsRetryable,
	}, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := jobs.NewExtractHandler(storageClient, orchestrator, saver)

	go func() {
		log.Info().Int("workers", cfg.Jobs.Workers).Msg("Starting job workers")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	statementsHandler := handlers.NewStatementsHandler(orchestrator, jobQueue, storageClient, saver, cfg.Storage.Bucket, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.Extract(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.EnqueueParsing(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	if resultStore != nil {
		runsHandler := handlers.NewRunsHandler(resultStore, log)

		mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				runsHandler.ListRuns(w, r)
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		})

		// GET /api/runs/{id}/transactions
		mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			runID, ok := strings.CutSuffix(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/transactions")
			if !ok || runID == "" || strings.Contains(runID, "/") {
				middleware.WriteError(w, http.StatusNotFound, "Not found")
				return
			}
			runsHandler.ListTransactions(w, r, runID)
		})
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status":       "healthy",
			"llm_provider": cfg.LLM.Provider,
			"time":         time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
	)

	// Synchronous extraction of a long statement outlives the usual write timeout.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("llm_provider", cfg.LLM.Provider).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
