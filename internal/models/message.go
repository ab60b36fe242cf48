package models

// Message represents a room message. Immutable once appended.
type Message struct {
	ID         string `json:"id"` // ULID
	RoomID     string `json:"room_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Body       string `json:"body"`
	Timestamp  int64  `json:"ts"`  // Unix seconds, monotonic per store
	Seq        uint64 `json:"seq"` // tie-break for same-second appends
}
