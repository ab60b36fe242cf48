package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/belchote2025/nuevaweb-sub001/internal/chat"
	"github.com/belchote2025/nuevaweb-sub001/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	svc   *chat.Service
	store store.Store
}

// NewHandler creates a new Handler around the chat service. The store
// is only used for health checks.
func NewHandler(svc *chat.Service, st store.Store) *Handler {
	return &Handler{svc: svc, store: st}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// DomainError maps a chat core error onto an HTTP status.
func (h *Handler) DomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrInvalidArgument):
		h.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrAccessDenied):
		h.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, chat.ErrNotFound):
		h.Error(w, http.StatusNotFound, err.Error())
	default:
		h.Error(w, http.StatusInternalServerError, "internal error")
	}
}
