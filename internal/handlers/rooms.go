package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/belchote2025/nuevaweb-sub001/internal/api/middleware"
	"github.com/belchote2025/nuevaweb-sub001/internal/chat"
	"github.com/belchote2025/nuevaweb-sub001/internal/metrics"
	"github.com/belchote2025/nuevaweb-sub001/internal/models"
)

// RoomInfo represents a room in API responses.
type RoomInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Restricted bool   `json:"restricted"`
}

// RoomListResponse represents the room list response.
type RoomListResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

// MessageResponse represents a room message in API responses.
type MessageResponse struct {
	ID         string `json:"id"`
	RoomID     string `json:"room_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Body       string `json:"body"`
	Timestamp  int64  `json:"ts"`
}

// RoomMessagesResponse represents the room messages response.
type RoomMessagesResponse struct {
	Room     RoomInfo          `json:"room"`
	Messages []MessageResponse `json:"messages"`
}

// PostMessageRequest represents the post message request.
type PostMessageRequest struct {
	Body string `json:"body"`
}

// ListRooms handles listing the rooms visible to the caller's role.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "identity required")
		return
	}

	rooms := h.svc.ListRooms(caller.Role)

	out := make([]RoomInfo, len(rooms))
	for i, room := range rooms {
		out[i] = roomInfo(room)
	}
	h.JSON(w, http.StatusOK, RoomListResponse{Rooms: out})
}

// GetRoomMessages handles fetching messages from a room, filtered by
// the caller's since watermark.
func (h *Handler) GetRoomMessages(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "identity required")
		return
	}

	roomID := chi.URLParam(r, "id")
	since := parseSince(r)

	messages, err := h.svc.Messages(r.Context(), caller, roomID, since)
	if err != nil {
		if errors.Is(err, chat.ErrAccessDenied) {
			metrics.AccessDenials.WithLabelValues(roomID).Inc()
		}
		h.DomainError(w, err)
		return
	}

	room, _ := h.roomOrPlaceholder(roomID)

	msgResponses := make([]MessageResponse, len(messages))
	for i, msg := range messages {
		msgResponses[i] = messageResponse(msg)
	}

	h.JSON(w, http.StatusOK, RoomMessagesResponse{
		Room:     room,
		Messages: msgResponses,
	})
}

// PostMessage handles posting a message to a room.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "identity required")
		return
	}

	roomID := chi.URLParam(r, "id")

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg, err := h.svc.Post(r.Context(), caller, roomID, req.Body)
	if err != nil {
		if errors.Is(err, chat.ErrAccessDenied) {
			metrics.AccessDenials.WithLabelValues(roomID).Inc()
		}
		h.DomainError(w, err)
		return
	}

	kind := "open"
	if room, ok := h.svc.RoomInfo(roomID); ok && room.Restricted {
		kind = "restricted"
	}
	metrics.MessagesPosted.WithLabelValues(kind).Inc()

	h.JSON(w, http.StatusCreated, messageResponse(*msg))
}

// roomOrPlaceholder resolves a catalog room for the response envelope,
// falling back to the bare id for uncataloged (empty) rooms.
func (h *Handler) roomOrPlaceholder(roomID string) (RoomInfo, bool) {
	if room, ok := h.svc.RoomInfo(roomID); ok {
		return roomInfo(room), true
	}
	return RoomInfo{ID: roomID, Name: roomID}, false
}

func roomInfo(room models.Room) RoomInfo {
	return RoomInfo{ID: room.ID, Name: room.Name, Restricted: room.Restricted}
}

func messageResponse(msg models.Message) MessageResponse {
	return MessageResponse{
		ID:         msg.ID,
		RoomID:     msg.RoomID,
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Body:       msg.Body,
		Timestamp:  msg.Timestamp,
	}
}

// parseSince reads the since watermark query parameter; absent or
// malformed cursors fall back to zero (full history).
func parseSince(r *http.Request) int64 {
	sinceStr := r.URL.Query().Get("since")
	if sinceStr == "" {
		return 0
	}
	since, err := strconv.ParseInt(sinceStr, 10, 64)
	if err != nil || since < 0 {
		return 0
	}
	return since
}
