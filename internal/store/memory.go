package store

import (
	"context"
	"sync"

	"github.com/belchote2025/nuevaweb-sub001/internal/models"
)

// MemoryStore keeps all logs in process memory. It is the default
// backend and the reference for the Store contract; data does not
// survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	rooms  map[string][]models.Message
	convs  map[string][]models.DirectMessage
	maxTS  int64
	maxSeq uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string][]models.Message),
		convs: make(map[string][]models.DirectMessage),
	}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// MaxOrdering returns the highest timestamp and sequence appended.
func (s *MemoryStore) MaxOrdering(ctx context.Context) (int64, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxTS, s.maxSeq, nil
}

func (s *MemoryStore) track(ts int64, seq uint64) {
	if ts > s.maxTS {
		s.maxTS = ts
	}
	if seq > s.maxSeq {
		s.maxSeq = seq
	}
}

// AppendMessage appends to the room's log.
func (s *MemoryStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[msg.RoomID] = append(s.rooms[msg.RoomID], *msg)
	s.track(msg.Timestamp, msg.Seq)
	return nil
}

// MessagesSince returns the room's messages newer than since.
func (s *MemoryStore) MessagesSince(ctx context.Context, roomID string, since int64) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.rooms[roomID]
	out := make([]models.Message, 0, len(log))
	for _, msg := range log {
		if msg.Timestamp > since {
			out = append(out, msg)
		}
	}
	return out, nil
}

// AppendDM appends to the conversation pair's log.
func (s *MemoryStore) AppendDM(ctx context.Context, dm *models.DirectMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.PairKey(dm.FromID, dm.ToID)
	s.convs[key] = append(s.convs[key], *dm)
	s.track(dm.Timestamp, dm.Seq)
	return nil
}

// ConversationSince returns the pair's messages newer than since and
// marks the whole history from otherID to selfID as read.
func (s *MemoryStore) ConversationSince(ctx context.Context, selfID, otherID string, since int64) ([]models.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.PairKey(selfID, otherID)
	log := s.convs[key]

	out := make([]models.DirectMessage, 0, len(log))
	for i := range log {
		if log[i].ToID == selfID && log[i].FromID == otherID && !log[i].Read {
			log[i].Read = true
		}
		if log[i].Timestamp > since {
			out = append(out, log[i])
		}
	}
	return out, nil
}

// UnreadCount scans every conversation the identity appears in. The
// store is small and polling is coarse; a per-recipient counter is the
// first thing to add if that stops being true.
func (s *MemoryStore) UnreadCount(ctx context.Context, selfID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, log := range s.convs {
		for _, dm := range log {
			if dm.ToID == selfID && !dm.Read {
				count++
			}
		}
	}
	return count, nil
}
