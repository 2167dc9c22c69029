package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dvloznov/statement-extractor/internal/api/middleware"
	"github.com/dvloznov/statement-extractor/internal/llm"
	"github.com/dvloznov/statement-extractor/internal/ocr"
	"github.com/dvloznov/statement-extractor/internal/pipeline"
	"github.com/dvloznov/statement-extractor/internal/segment"
)

// statusForError maps a pipeline failure to an HTTP status.
func statusForError(err error) int {
	var (
		loadErr        *segment.DocumentLoadError
		unavailableErr *llm.ServiceUnavailableError
		transportErr   *ocr.TransportError
		processingErr  *ocr.ProcessingError
		callErr        *llm.CallError
		formatErr      *llm.UnknownReplyFormatError
		emptyErr       *pipeline.EmptyOrMalformedReplyError
		repairErr      *pipeline.JSONRepairFailedError
	)

	switch {
	case errors.As(err, &loadErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unavailableErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &transportErr), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &processingErr),
		errors.As(err, &callErr),
		errors.As(err, &formatErr),
		errors.As(err, &emptyErr),
		errors.As(err, &repairErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeRunError writes err with the failing page and stage when known.
func writeRunError(w http.ResponseWriter, err error) {
	body := map[string]interface{}{"error": err.Error()}
	var pageErr *pipeline.PageError
	if errors.As(err, &pageErr) {
		body["page"] = pageErr.Page
		body["stage"] = pageErr.Stage
	}
	middleware.WriteJSON(w, statusForError(err), body)
}
