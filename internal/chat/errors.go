package chat

import "errors"

// Sentinel errors returned by the core operations. Callers classify
// with errors.Is; the transport layer maps them onto its own status
// signaling.
var (
	// ErrInvalidArgument signals a missing or empty required field
	// (room id, body, peer id) after whitespace trimming.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAccessDenied signals that the caller's role lacks privilege
	// for an explicitly addressed restricted room.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound signals an operation that requires a room to exist
	// in the catalog and it does not.
	ErrNotFound = errors.New("not found")
)
