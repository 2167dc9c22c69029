package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-extractor/internal/api/middleware"
	"github.com/dvloznov/statement-extractor/internal/gcs"
	"github.com/dvloznov/statement-extractor/internal/jobs"
	"github.com/dvloznov/statement-extractor/internal/logger"
)

// maxUploadSize bounds multipart statement uploads.
const maxUploadSize = 32 << 20

// StatementsHandler handles statement extraction endpoints.
type StatementsHandler struct {
	runner    jobs.Runner
	publisher jobs.Publisher
	storage   gcs.StorageService
	saver     jobs.ResultSaver
	bucket    string
	log       zerolog.Logger
	now       func() time.Time
}

// NewStatementsHandler creates a new statements handler. storage and saver
// may be nil; uploads are then not archived and results not persisted.
func NewStatementsHandler(runner jobs.Runner, publisher jobs.Publisher, storage gcs.StorageService, saver jobs.ResultSaver, bucket string, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		runner:    runner,
		publisher: publisher,
		storage:   storage,
		saver:     saver,
		bucket:    bucket,
		log:       log,
		now:       time.Now,
	}
}

// Extract handles POST /api/statements
// The multipart "file" field is processed synchronously and the Result returned.
func (h *StatementsHandler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	fileName := filepath.Base(header.Filename)

	var sourceURI string
	if h.storage != nil && h.bucket != "" {
		object := gcs.ObjectName("uploads", fileName, h.now())
		sourceURI, err = h.storage.Upload(ctx, h.bucket, object, bytes.NewReader(data))
		if err != nil {
			h.log.Error().Err(err).Str("file_name", fileName).Msg("Failed to archive upload")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to store uploaded file")
			return
		}
	}

	result, err := h.runner.Run(ctx, data, fileName)
	if err != nil {
		if h.saver != nil {
			if _, saveErr := h.saver.RecordFailure(ctx, fileName, sourceURI, err); saveErr != nil {
				h.log.Error().Err(saveErr).Msg("Failed to record failed run")
			}
		}
		log.Error().Err(err).Str("file_name", fileName).Msg("Statement extraction failed")
		writeRunError(w, err)
		return
	}

	if h.saver != nil {
		if err := h.saver.SaveResult(ctx, result, sourceURI); err != nil {
			h.log.Error().Err(err).Str("run_id", result.RunID).Msg("Failed to save result")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to save result")
			return
		}
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// EnqueueParsing handles POST /api/statements/parse
func (h *StatementsHandler) EnqueueParsing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GCSURI   string `json:"gcs_uri"`
		FileName string `json:"file_name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.GCSURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "gcs_uri is required")
		return
	}
	if _, _, err := gcs.ParseURI(req.GCSURI); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := &jobs.ExtractStatementJob{
		GCSURI:   req.GCSURI,
		FileName: req.FileName,
	}

	if err := h.publisher.PublishExtractStatement(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue extraction job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue extraction job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("gcs_uri", req.GCSURI).Msg("Extraction job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"gcs_uri": req.GCSURI,
		"status":  string(job.Status),
	})
}
