package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/belchote2025/nuevaweb-sub001/internal/directory"
	"github.com/belchote2025/nuevaweb-sub001/internal/models"
	"github.com/belchote2025/nuevaweb-sub001/internal/store"
)

// Body size limits, in bytes.
const (
	MaxMessageBody = 4096
	MaxDMBody      = 8192
)

// Service implements the chat core: room listing, room message append
// and retrieval, direct messages with read tracking, and unread
// aggregation. It holds no session state; the caller identity arrives
// as an argument on every operation.
type Service struct {
	catalog *directory.Catalog
	policy  Policy
	store   store.Store
	clock   *clock
	locks   keyLocks
}

// NewService wires the catalog, access policy and storage backend.
// The ordering clock resumes from the backend's persisted high-water
// mark, so sequence numbers and timestamps stay monotonic across
// restarts.
func NewService(ctx context.Context, catalog *directory.Catalog, st store.Store) (*Service, error) {
	ts, seq, err := st.MaxOrdering(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore ordering state: %w", err)
	}
	return &Service{
		catalog: catalog,
		policy:  NewPolicy(catalog.PrivilegedRoles()),
		store:   st,
		clock:   newClock(ts, seq),
	}, nil
}

// ListRooms returns the rooms visible to the role, in catalog order.
// Restricted rooms the role may not access are silently filtered, not
// an error: this is enumeration, not explicit addressing.
func (s *Service) ListRooms(role string) []models.Room {
	all := s.catalog.Rooms()
	out := make([]models.Room, 0, len(all))
	for _, room := range all {
		if s.policy.CanAccess(room, role) {
			out = append(out, room)
		}
	}
	return out
}

// Messages returns the room's messages newer than since, in append
// order. A room id absent from the catalog yields an empty slice; a
// cataloged room the role may not access is AccessDenied.
func (s *Service) Messages(ctx context.Context, caller models.Identity, roomID string, since int64) ([]models.Message, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("%w: room id is required", ErrInvalidArgument)
	}

	room, ok := s.catalog.Room(roomID)
	if !ok {
		// Unknown room reads are "no data", not an error.
		return []models.Message{}, nil
	}
	if !s.policy.CanAccess(room, caller.Role) {
		return nil, fmt.Errorf("%w: room %q", ErrAccessDenied, roomID)
	}

	return s.store.MessagesSince(ctx, roomID, since)
}

// Post appends a message to the room and returns it, so the sender can
// echo it without a follow-up poll.
func (s *Service) Post(ctx context.Context, caller models.Identity, roomID, body string) (*models.Message, error) {
	roomID = strings.TrimSpace(roomID)
	body = strings.TrimSpace(body)
	if roomID == "" {
		return nil, fmt.Errorf("%w: room id is required", ErrInvalidArgument)
	}
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", ErrInvalidArgument)
	}
	if len(body) > MaxMessageBody {
		return nil, fmt.Errorf("%w: body too long (max %d bytes)", ErrInvalidArgument, MaxMessageBody)
	}

	room, ok := s.catalog.Room(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: room %q", ErrNotFound, roomID)
	}
	if !s.policy.CanAccess(room, caller.Role) {
		return nil, fmt.Errorf("%w: room %q", ErrAccessDenied, roomID)
	}

	// Hold the room lock across timestamping and append so the log's
	// insertion order matches the sequence order.
	unlock := s.locks.lock("room:" + roomID)
	defer unlock()

	ts, seq := s.clock.tick()
	msg := &models.Message{
		ID:         ulid.Make().String(),
		RoomID:     roomID,
		AuthorID:   caller.ID,
		AuthorName: caller.Name,
		Body:       body,
		Timestamp:  ts,
		Seq:        seq,
	}

	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Send delivers a direct message. Any identity may message any other;
// no access policy applies.
func (s *Service) Send(ctx context.Context, caller models.Identity, toID, body string) (*models.DirectMessage, error) {
	toID = strings.TrimSpace(toID)
	body = strings.TrimSpace(body)
	if toID == "" {
		return nil, fmt.Errorf("%w: recipient id is required", ErrInvalidArgument)
	}
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", ErrInvalidArgument)
	}
	if len(body) > MaxDMBody {
		return nil, fmt.Errorf("%w: body too long (max %d bytes)", ErrInvalidArgument, MaxDMBody)
	}

	// Serialized with Conversation on the same pair so a message cannot
	// be marked read before it is appended.
	unlock := s.locks.lock("pair:" + models.PairKey(caller.ID, toID))
	defer unlock()

	ts, seq := s.clock.tick()
	dm := &models.DirectMessage{
		ID:        ulid.Make().String(),
		FromID:    caller.ID,
		FromName:  caller.Name,
		ToID:      toID,
		Body:      body,
		Timestamp: ts,
		Read:      false,
		Seq:       seq,
	}

	if err := s.store.AppendDM(ctx, dm); err != nil {
		return nil, err
	}
	return dm, nil
}

// Conversation returns the caller's conversation with otherID newer
// than since, in timestamp order. Fetching marks every unread message
// from otherID to the caller as read, across the full history and
// regardless of the cursor, so unread state converges even when the
// client's watermark lags.
func (s *Service) Conversation(ctx context.Context, caller models.Identity, otherID string, since int64) ([]models.DirectMessage, error) {
	otherID = strings.TrimSpace(otherID)
	if otherID == "" {
		return nil, fmt.Errorf("%w: peer id is required", ErrInvalidArgument)
	}

	unlock := s.locks.lock("pair:" + models.PairKey(caller.ID, otherID))
	defer unlock()

	return s.store.ConversationSince(ctx, caller.ID, otherID, since)
}

// UnreadCount reports how many direct messages addressed to the caller
// are still unread. Pure read, no mutation.
func (s *Service) UnreadCount(ctx context.Context, caller models.Identity) (int64, error) {
	return s.store.UnreadCount(ctx, caller.ID)
}

// RoomInfo looks up a room in the catalog.
func (s *Service) RoomInfo(roomID string) (models.Room, bool) {
	return s.catalog.Room(roomID)
}

// Roster returns the identity catalog projection used to populate a
// "message this person" picker.
func (s *Service) Roster() []models.Identity {
	return s.catalog.Roster()
}

// keyLocks provides one mutex per room or conversation pair. The key
// space is bounded by the catalog and the membership, so entries are
// never evicted.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *keyLocks) lock(key string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	lock, ok := l.m[key]
	if !ok {
		lock = &sync.Mutex{}
		l.m[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
