package store

import (
	"context"

	"github.com/belchote2025/nuevaweb-sub001/internal/models"
)

// Store is the logical log contract behind the chat core. Any backend
// that preserves append order per room and per conversation pair, and
// applies the read-state transition atomically with respect to
// concurrent appends on the same pair, is conformant.
//
// The caller (the chat service) assigns ids, timestamps and sequence
// numbers before appending, and serializes appends per room and all
// direct-message operations per conversation pair. Backends only have
// to persist and query.
type Store interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// MaxOrdering returns the highest timestamp and sequence number
	// ever persisted, across both logs; zero values for an empty
	// store. The caller seeds its clock from this at startup.
	MaxOrdering(ctx context.Context) (int64, uint64, error)

	// Room message log
	AppendMessage(ctx context.Context, msg *models.Message) error
	// MessagesSince returns the room's messages with timestamp strictly
	// greater than since, in append order. Unknown or empty rooms yield
	// an empty slice, never an error.
	MessagesSince(ctx context.Context, roomID string, since int64) ([]models.Message, error)

	// Direct message log
	AppendDM(ctx context.Context, dm *models.DirectMessage) error
	// ConversationSince returns the pair's messages with timestamp
	// strictly greater than since, in append order. Side effect: every
	// unread message from otherID to selfID across the full history is
	// marked read as part of the call, regardless of the cursor.
	ConversationSince(ctx context.Context, selfID, otherID string, since int64) ([]models.DirectMessage, error)
	// UnreadCount returns the number of direct messages addressed to
	// selfID not yet marked read. Pure read.
	UnreadCount(ctx context.Context, selfID string) (int64, error)
}
