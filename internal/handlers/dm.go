package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/belchote2025/nuevaweb-sub001/internal/api/middleware"
	"github.com/belchote2025/nuevaweb-sub001/internal/metrics"
	"github.com/belchote2025/nuevaweb-sub001/internal/models"
)

// SendDMRequest represents the send DM request body.
type SendDMRequest struct {
	Body string `json:"body"`
}

// DMResponse represents a direct message in API responses.
type DMResponse struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	FromName  string `json:"from_name"`
	To        string `json:"to"`
	Body      string `json:"body"`
	Timestamp int64  `json:"ts"`
	Read      bool   `json:"read"`
}

// ConversationResponse represents the conversation response.
type ConversationResponse struct {
	Peer     string       `json:"peer"`
	Messages []DMResponse `json:"messages"`
}

// UnreadResponse represents the unread count response.
type UnreadResponse struct {
	Unread int64 `json:"unread"`
}

// SendDM handles sending a direct message to a peer.
func (h *Handler) SendDM(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "identity required")
		return
	}

	peerID := chi.URLParam(r, "peer")

	var req SendDMRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dm, err := h.svc.Send(r.Context(), caller, peerID, req.Body)
	if err != nil {
		h.DomainError(w, err)
		return
	}

	metrics.DMsSent.Inc()

	h.JSON(w, http.StatusCreated, dmResponse(*dm))
}

// GetConversation handles fetching the caller's conversation with a
// peer. Fetching marks the peer's unread messages to the caller as
// read.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "identity required")
		return
	}

	peerID := chi.URLParam(r, "peer")
	since := parseSince(r)

	dms, err := h.svc.Conversation(r.Context(), caller, peerID, since)
	if err != nil {
		h.DomainError(w, err)
		return
	}

	messages := make([]DMResponse, len(dms))
	for i, dm := range dms {
		messages[i] = dmResponse(dm)
	}

	h.JSON(w, http.StatusOK, ConversationResponse{
		Peer:     peerID,
		Messages: messages,
	})
}

// UnreadCount handles the unread notification poll.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "identity required")
		return
	}

	count, err := h.svc.UnreadCount(r.Context(), caller)
	if err != nil {
		h.DomainError(w, err)
		return
	}

	metrics.UnreadPolls.Inc()

	h.JSON(w, http.StatusOK, UnreadResponse{Unread: count})
}

func dmResponse(dm models.DirectMessage) DMResponse {
	return DMResponse{
		ID:        dm.ID,
		From:      dm.FromID,
		FromName:  dm.FromName,
		To:        dm.ToID,
		Body:      dm.Body,
		Timestamp: dm.Timestamp,
		Read:      dm.Read,
	}
}
