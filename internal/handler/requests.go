package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
	"github.com/Shivanand-hulikatti/event-participation/internal/service"
)

// RequestHandler serves participation request endpoints for requesters
// and event initiators.
type RequestHandler struct {
	svc    *service.ParticipationService
	logger *slog.Logger
}

func NewRequestHandler(svc *service.ParticipationService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{svc: svc, logger: logger}
}

// Create handles POST /users/{userId}/requests?eventId=
// Admission runs under the event lock, so concurrent requests for the last
// seat see each other.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventID := strings.TrimSpace(r.URL.Query().Get("eventId"))
	if eventID == "" {
		writeAppError(w, h.logger, apperr.BadRequest("eventId is required"))
		return
	}

	req, err := h.svc.Create(r.Context(), chi.URLParam(r, "userId"), eventID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListOwn handles GET /users/{userId}/requests
func (h *RequestHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.ListByRequester(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// Cancel handles PATCH /users/{userId}/requests/{requestId}/cancel
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "requestId"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ListForEvent handles GET /users/{userId}/events/{eventId}/requests
func (h *RequestHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.ListForEvent(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "eventId"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// Decide handles PATCH /users/{userId}/events/{eventId}/requests
func (h *RequestHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var body model.StatusUpdateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	result, err := h.svc.BatchDecide(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "eventId"), body)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
