package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
	"github.com/Shivanand-hulikatti/event-participation/internal/stats"
)

// StatsHandler serves the stats service API.
type StatsHandler struct {
	svc    *stats.Service
	logger *slog.Logger
}

func NewStatsHandler(svc *stats.Service, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, logger: logger}
}

// Hit handles POST /hit
func (h *StatsHandler) Hit(w http.ResponseWriter, r *http.Request) {
	var in model.HitCreate
	if err := decodeJSON(w, r, &in); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	if _, err := h.svc.RecordHit(r.Context(), in); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Views handles GET /stats?start=&end=&uris=&unique=
func (h *StatsHandler) Views(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := dateParam(q, "start")
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	end, err := dateParam(q, "end")
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if start == nil || end == nil {
		writeAppError(w, h.logger, apperr.BadRequest("start and end are required"))
		return
	}
	unique, err := boolParam(q, "unique")
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	views, err := h.svc.Views(r.Context(), model.ViewQuery{
		Start:  *start,
		End:    *end,
		URIs:   listParam(q, "uris"),
		Unique: unique != nil && *unique,
	})
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
