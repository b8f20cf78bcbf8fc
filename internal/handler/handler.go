// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason, msg string) {
	writeJSON(w, status, model.ErrorResponse{
		Status:    statusName(status),
		Reason:    reason,
		Message:   msg,
		Timestamp: model.DateTime(time.Now().UTC().Truncate(time.Second)),
	})
}

// writeAppError maps a service error to its status code. Unclassified and
// internal errors are logged and reported without their cause.
func writeAppError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Internal(err, "unexpected error")
	}

	status := http.StatusInternalServerError
	switch e.Kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindBadRequest:
		status = http.StatusBadRequest
	default:
		logger.Error("request failed", "error", err)
	}
	writeError(w, status, e.Reason, e.Message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.BadRequest("invalid request body: %v", err)
	}
	return nil
}

// statusName renders 404 as NOT_FOUND.
func statusName(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
