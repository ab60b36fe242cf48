package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/belchote2025/nuevaweb-sub001/internal/models"
)

func newTestSQLite(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestSQLiteRoomLog(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLite(t, filepath.Join(t.TempDir(), "chat.db"))
	defer st.Close()

	msgs := []models.Message{
		{ID: "m1", RoomID: "general", AuthorID: "u1", AuthorName: "Paco", Body: "hola", Timestamp: 100, Seq: 1},
		{ID: "m2", RoomID: "general", AuthorID: "u2", AuthorName: "Maria", Body: "buenas", Timestamp: 100, Seq: 2},
		{ID: "m3", RoomID: "eventos", AuthorID: "u1", AuthorName: "Paco", Body: "cena?", Timestamp: 101, Seq: 3},
	}
	for i := range msgs {
		if err := st.AppendMessage(ctx, &msgs[i]); err != nil {
			t.Fatal(err)
		}
	}

	got, err := st.MessagesSince(ctx, "general", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m2" {
		t.Fatalf("unexpected general log: %+v", got)
	}

	// Cursor is strictly greater-than.
	got, err = st.MessagesSince(ctx, "eventos", 101)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result at the cursor, got %+v", got)
	}

	got, err = st.MessagesSince(ctx, "nope", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("unknown room must be empty, got %+v", got)
	}
}

func TestSQLiteConversationReadMarking(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLite(t, filepath.Join(t.TempDir(), "chat.db"))
	defer st.Close()

	dms := []models.DirectMessage{
		{ID: "d1", FromID: "u1", FromName: "Paco", ToID: "u2", Body: "hola", Timestamp: 100, Seq: 1},
		{ID: "d2", FromID: "u2", FromName: "Maria", ToID: "u1", Body: "hola!", Timestamp: 101, Seq: 2},
		{ID: "d3", FromID: "u1", FromName: "Paco", ToID: "u2", Body: "vamos?", Timestamp: 102, Seq: 3},
	}
	for i := range dms {
		if err := st.AppendDM(ctx, &dms[i]); err != nil {
			t.Fatal(err)
		}
	}

	count, err := st.UnreadCount(ctx, "u2")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unread for u2, got %d", count)
	}

	// Fetching with a cursor past the history still marks all of it.
	got, err := st.ConversationSince(ctx, "u2", "u1", 101)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "d3" {
		t.Fatalf("unexpected conversation slice: %+v", got)
	}

	count, err = st.UnreadCount(ctx, "u2")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread after fetch, got %d", count)
	}

	// The other direction is untouched.
	count, err = st.UnreadCount(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 unread for u1, got %d", count)
	}
}

// Reopening the database must expose the persisted ordering high-water
// mark, and appends issued from a clock resumed there must succeed.
func TestSQLiteReopenResumesOrdering(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat.db")

	st := newTestSQLite(t, path)
	msg := models.Message{ID: "m1", RoomID: "general", AuthorID: "u1", Body: "hola", Timestamp: 100, Seq: 1}
	if err := st.AppendMessage(ctx, &msg); err != nil {
		t.Fatal(err)
	}
	dm := models.DirectMessage{ID: "d1", FromID: "u1", ToID: "u2", Body: "psst", Timestamp: 105, Seq: 2}
	if err := st.AppendDM(ctx, &dm); err != nil {
		t.Fatal(err)
	}
	st.Close()

	st = newTestSQLite(t, path)
	defer st.Close()

	ts, seq, err := st.MaxOrdering(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ts != 105 || seq != 2 {
		t.Fatalf("expected high-water mark (105, 2), got (%d, %d)", ts, seq)
	}

	next := models.Message{ID: "m2", RoomID: "general", AuthorID: "u2", Body: "sigo aqui", Timestamp: 105, Seq: seq + 1}
	if err := st.AppendMessage(ctx, &next); err != nil {
		t.Fatalf("post after reopen failed: %v", err)
	}

	got, err := st.MessagesSince(ctx, "general", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m2" {
		t.Fatalf("append order lost across reopen: %+v", got)
	}
}
