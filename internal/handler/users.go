package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-participation/internal/model"
	"github.com/Shivanand-hulikatti/event-participation/internal/service"
)

// UserHandler serves the administrator's user endpoints.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Create handles POST /admin/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.NewUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	user, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// List handles GET /admin/users?ids=&from=&size=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := pageParams(q)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	users, err := h.svc.List(r.Context(), listParam(q, "ids"), page)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Delete handles DELETE /admin/users/{userId}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "userId")); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
