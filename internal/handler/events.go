package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
	"github.com/Shivanand-hulikatti/event-participation/internal/service"
)

// EventHandler serves the initiator, administrator and public event
// endpoints.
type EventHandler struct {
	svc    *service.EventService
	logger *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// Create handles POST /users/{userId}/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.NewEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	event, err := h.svc.Create(r.Context(), chi.URLParam(r, "userId"), req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListOwn handles GET /users/{userId}/events?from=&size=
func (h *EventHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r.URL.Query())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	events, err := h.svc.ListByInitiator(r.Context(), chi.URLParam(r, "userId"), page)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetOwn handles GET /users/{userId}/events/{eventId}
func (h *EventHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetByInitiator(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "eventId"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateOwn handles PATCH /users/{userId}/events/{eventId}
func (h *EventHandler) UpdateOwn(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	event, err := h.svc.UpdateByInitiator(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "eventId"), req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// AdminSearch handles GET /admin/events?users=&states=&rangeStart=&rangeEnd=&from=&size=
func (h *EventHandler) AdminSearch(w http.ResponseWriter, r *http.Request) {
	params, err := adminEventParams(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	events, err := h.svc.SearchAdmin(r.Context(), params)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// AdminUpdate handles PATCH /admin/events/{eventId}
func (h *EventHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventAdminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	event, err := h.svc.UpdateByAdmin(r.Context(), chi.URLParam(r, "eventId"), req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// PublicSearch handles GET /events
func (h *EventHandler) PublicSearch(w http.ResponseWriter, r *http.Request) {
	params, err := publicEventParams(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	events, err := h.svc.SearchPublic(r.Context(), params)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// PublicGet handles GET /events/{eventId}
func (h *EventHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetPublished(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func publicEventParams(r *http.Request) (model.PublicEventParams, error) {
	q := r.URL.Query()
	var (
		p   model.PublicEventParams
		err error
	)
	p.Text = q.Get("text")
	if p.Paid, err = boolParam(q, "paid"); err != nil {
		return p, err
	}
	if p.RangeStart, err = dateParam(q, "rangeStart"); err != nil {
		return p, err
	}
	if p.RangeEnd, err = dateParam(q, "rangeEnd"); err != nil {
		return p, err
	}
	onlyAvailable, err := boolParam(q, "onlyAvailable")
	if err != nil {
		return p, err
	}
	p.OnlyAvailable = onlyAvailable != nil && *onlyAvailable
	if p.Sort, err = model.ParseEventSort(q.Get("sort")); err != nil {
		return p, apperr.BadRequest("%v", err)
	}
	page, err := pageParams(q)
	if err != nil {
		return p, err
	}
	p.From, p.Size = page.From, page.Size
	return p, nil
}

func adminEventParams(r *http.Request) (model.AdminEventParams, error) {
	q := r.URL.Query()
	var (
		p   model.AdminEventParams
		err error
	)
	p.Users = listParam(q, "users")
	for _, raw := range listParam(q, "states") {
		state, perr := model.ParseEventState(raw)
		if perr != nil {
			return p, apperr.BadRequest("%v", perr)
		}
		p.States = append(p.States, state)
	}
	if p.RangeStart, err = dateParam(q, "rangeStart"); err != nil {
		return p, err
	}
	if p.RangeEnd, err = dateParam(q, "rangeEnd"); err != nil {
		return p, err
	}
	page, err := pageParams(q)
	if err != nil {
		return p, err
	}
	p.From, p.Size = page.From, page.Size
	return p, nil
}
