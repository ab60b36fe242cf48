package models

import "net/url"

// DirectMessage represents a one-to-one message between identities.
// Read is the only mutable field: it flips false to true exactly once,
// when the recipient fetches the conversation with the sender.
type DirectMessage struct {
	ID        string `json:"id"` // ULID
	FromID    string `json:"from"`
	FromName  string `json:"from_name"`
	ToID      string `json:"to"`
	Body      string `json:"body"`
	Timestamp int64  `json:"ts"` // Unix seconds, monotonic per store
	Read      bool   `json:"read"`
	Seq       uint64 `json:"seq"`
}

// PairKey returns the canonical key for the unordered conversation
// pair {a, b}. Both directions of a conversation share one key. The
// ids are escaped before joining so a separator inside an id cannot
// alias two distinct pairs onto one key; plain slug ids pass through
// unchanged.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return url.QueryEscape(a) + "|" + url.QueryEscape(b)
}
