package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-extractor/internal/api/middleware"
	infraBQ "github.com/dvloznov/statement-extractor/internal/infra/bigquery"
)

// RunReader reads persisted runs.
type RunReader interface {
	ListRuns(ctx context.Context, limit int) ([]*infraBQ.RunRow, error)
	ListTransactions(ctx context.Context, runID string) ([]*infraBQ.TransactionRow, error)
}

// RunsHandler handles endpoints over saved pipeline runs.
type RunsHandler struct {
	repo RunReader
	log  zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo RunReader, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		repo: repo,
		log:  log,
	}
}

// ListRuns handles GET /api/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.repo.ListRuns(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	if runs == nil {
		runs = []*infraBQ.RunRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// ListTransactions handles GET /api/runs/{id}/transactions
func (h *RunsHandler) ListTransactions(w http.ResponseWriter, r *http.Request, runID string) {
	rows, err := h.repo.ListTransactions(r.Context(), runID)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	// Return array directly for frontend compatibility
	if rows == nil {
		rows = []*infraBQ.TransactionRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, rows)
}
