package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/belchote2025/nuevaweb-sub001/internal/directory"
	"github.com/belchote2025/nuevaweb-sub001/internal/models"
	"github.com/belchote2025/nuevaweb-sub001/internal/store"
)

var (
	socio = models.Identity{ID: "u1", Name: "Paco", Role: "socio"}
	socia = models.Identity{ID: "u2", Name: "Maria", Role: "socio"}
	admin = models.Identity{ID: "a1", Name: "Presi", Role: "admin"}
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	catalog, err := directory.New(
		[]models.Room{
			{ID: "general", Name: "General"},
			{ID: "eventos", Name: "Eventos"},
			{ID: "directiva", Name: "Directiva", Restricted: true},
		},
		[]string{"admin"},
		[]models.Identity{socio, socia, admin},
	)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := NewService(context.Background(), catalog, store.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestListRoomsFiltersByRole(t *testing.T) {
	svc := newTestService(t)

	rooms := svc.ListRooms("socio")
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms for socio, got %d", len(rooms))
	}
	for _, room := range rooms {
		if room.ID == "directiva" {
			t.Fatal("socio must not see directiva")
		}
	}

	rooms = svc.ListRooms("admin")
	if len(rooms) != 3 {
		t.Fatalf("expected 3 rooms for admin, got %d", len(rooms))
	}
	// Catalog insertion order is preserved
	if rooms[0].ID != "general" || rooms[1].ID != "eventos" || rooms[2].ID != "directiva" {
		t.Fatalf("unexpected order: %v", rooms)
	}
}

func TestPostAndFetchOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := svc.Post(ctx, socio, "general", fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := svc.Messages(ctx, socio, "general", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(msgs))
	}
	for i, msg := range msgs {
		if msg.Body != fmt.Sprintf("msg %d", i) {
			t.Fatalf("message %d out of order: %q", i, msg.Body)
		}
		if i > 0 && msg.Timestamp < msgs[i-1].Timestamp {
			t.Fatalf("timestamp went backwards at %d", i)
		}
	}
}

func TestSinceCursor(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Pin the clock so the cursor boundary is deterministic.
	now := time.Unix(1000, 0)
	svc.clock.now = func() time.Time { return now }

	if _, err := svc.Post(ctx, socio, "general", "old"); err != nil {
		t.Fatal(err)
	}
	now = time.Unix(2000, 0)
	if _, err := svc.Post(ctx, socio, "general", "new"); err != nil {
		t.Fatal(err)
	}

	all, err := svc.Messages(ctx, socio, "general", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(all))
	}

	// Strictly-greater filter: since=1000 excludes the ts=1000 message.
	newer, err := svc.Messages(ctx, socio, "general", 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(newer) != 1 || newer[0].Body != "new" {
		t.Fatalf("expected only the new message, got %v", newer)
	}

	// Idempotence: repeating the fetch yields identical results.
	again, err := svc.Messages(ctx, socio, "general", 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(newer) || again[0].ID != newer[0].ID {
		t.Fatal("repeated fetch with same cursor differed")
	}
}

func TestPostValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Post(ctx, socio, "general", "   "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for blank body, got %v", err)
	}
	if _, err := svc.Post(ctx, socio, "  ", "hola"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for blank room, got %v", err)
	}
	if _, err := svc.Post(ctx, socio, "nope", "hola"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown room, got %v", err)
	}
}

func TestRestrictedRoomAccess(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Post(ctx, socio, "directiva", "hola"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if _, err := svc.Messages(ctx, socio, "directiva", 0); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied on read, got %v", err)
	}

	// The denied post left no trace, even for a privileged reader.
	msgs, err := svc.Messages(ctx, admin, "directiva", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Fatalf("denied post leaked into the room: %v", msgs)
	}

	if _, err := svc.Post(ctx, admin, "directiva", "acta"); err != nil {
		t.Fatal(err)
	}
	msgs, _ = svc.Messages(ctx, admin, "directiva", 0)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
}

func TestUnknownRoomFetchIsEmpty(t *testing.T) {
	svc := newTestService(t)

	msgs, err := svc.Messages(context.Background(), socio, "no-such-room", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty result, got %d", len(msgs))
	}
}

func TestDMReadTransition(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Send(ctx, socio, socia.ID, fmt.Sprintf("hi %d", i)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Send(ctx, socia, socio.ID, "reply"); err != nil {
		t.Fatal(err)
	}

	count, err := svc.UnreadCount(ctx, socia)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("expected 3 unread for u2, got %d", count)
	}

	dms, err := svc.Conversation(ctx, socia, socio.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(dms) != 4 {
		t.Fatalf("expected 4 messages in conversation, got %d", len(dms))
	}
	for _, dm := range dms {
		if dm.ToID == socia.ID && !dm.Read {
			t.Fatalf("message %s to u2 still unread after fetch", dm.ID)
		}
		if dm.ToID == socio.ID && dm.Read {
			t.Fatalf("message %s to u1 marked read by u2's fetch", dm.ID)
		}
	}

	count, _ = svc.UnreadCount(ctx, socia)
	if count != 0 {
		t.Fatalf("expected 0 unread after fetch, got %d", count)
	}
	// u1's unread from the reply is untouched.
	count, _ = svc.UnreadCount(ctx, socio)
	if count != 1 {
		t.Fatalf("expected 1 unread for u1, got %d", count)
	}
}

func TestReadMarkingIgnoresCursor(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	now := time.Unix(1000, 0)
	svc.clock.now = func() time.Time { return now }
	if _, err := svc.Send(ctx, socio, socia.ID, "old"); err != nil {
		t.Fatal(err)
	}
	now = time.Unix(2000, 0)
	if _, err := svc.Send(ctx, socio, socia.ID, "new"); err != nil {
		t.Fatal(err)
	}

	// A lagging cursor still marks the whole history read.
	dms, err := svc.Conversation(ctx, socia, socio.ID, 1500)
	if err != nil {
		t.Fatal(err)
	}
	if len(dms) != 1 || dms[0].Body != "new" {
		t.Fatalf("expected only the new message, got %v", dms)
	}

	count, _ := svc.UnreadCount(ctx, socia)
	if count != 0 {
		t.Fatalf("expected unread to converge to 0, got %d", count)
	}
}

func TestSendValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Send(ctx, socio, "", "hi"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty peer, got %v", err)
	}
	if _, err := svc.Send(ctx, socio, socia.ID, " \n "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for blank body, got %v", err)
	}
}

func TestEndToEnd(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	posted, err := svc.Post(ctx, socio, "general", "hola")
	if err != nil {
		t.Fatal(err)
	}
	msgs, err := svc.Messages(ctx, socio, "general", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Body != "hola" || msgs[0].RoomID != "general" || msgs[0].AuthorID != "u1" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
	if msgs[0].ID != posted.ID {
		t.Fatal("echoed message differs from fetched message")
	}

	if _, err := svc.Send(ctx, socio, "u2", "hi"); err != nil {
		t.Fatal(err)
	}
	count, _ := svc.UnreadCount(ctx, socia)
	if count != 1 {
		t.Fatalf("expected unread 1, got %d", count)
	}

	dms, err := svc.Conversation(ctx, socia, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(dms) != 1 || dms[0].Body != "hi" {
		t.Fatalf("unexpected conversation: %v", dms)
	}

	count, _ = svc.UnreadCount(ctx, socia)
	if count != 0 {
		t.Fatalf("expected unread 0 after fetch, got %d", count)
	}
}

func TestConcurrentPostsSameRoom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Post(ctx, socio, "general", fmt.Sprintf("c%d", i)); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	msgs, err := svc.Messages(ctx, socio, "general", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != n {
		t.Fatalf("lost messages: expected %d, got %d", n, len(msgs))
	}

	seen := make(map[string]bool, n)
	for i, msg := range msgs {
		if seen[msg.ID] {
			t.Fatalf("duplicate id %s", msg.ID)
		}
		seen[msg.ID] = true
		if i > 0 {
			if msg.Timestamp < msgs[i-1].Timestamp {
				t.Fatal("timestamps not monotonic")
			}
			if msg.Seq <= msgs[i-1].Seq {
				t.Fatal("sequence numbers not strictly increasing in log order")
			}
		}
	}
}

func TestConcurrentSendAndFetchSamePair(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			if _, err := svc.Send(ctx, socio, socia.ID, fmt.Sprintf("m%d", i)); err != nil {
				t.Error(err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			if _, err := svc.Conversation(ctx, socia, socio.ID, 0); err != nil {
				t.Error(err)
			}
		}
	}()
	wg.Wait()

	// Every message is accounted for: read or still countable.
	dms, err := svc.Conversation(ctx, socia, socio.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(dms) != n {
		t.Fatalf("lost direct messages: expected %d, got %d", n, len(dms))
	}
	count, _ := svc.UnreadCount(ctx, socia)
	if count != 0 {
		t.Fatalf("unread did not converge: %d", count)
	}
}

func TestRoster(t *testing.T) {
	svc := newTestService(t)

	roster := svc.Roster()
	if len(roster) != 3 {
		t.Fatalf("expected 3 identities, got %d", len(roster))
	}
	if roster[0].ID != "u1" || roster[0].Name != "Paco" || roster[0].Role != "socio" {
		t.Fatalf("unexpected roster entry: %+v", roster[0])
	}
}

// A fresh service over an existing store must resume the ordering
// where the previous process left off: sequence numbers stay unique
// and timestamps never step backwards, even when the wall clock is
// behind the persisted history.
func TestRestartResumesOrdering(t *testing.T) {
	ctx := context.Background()
	catalog, err := directory.New(
		[]models.Room{{ID: "general", Name: "General"}},
		nil,
		[]models.Identity{socio, socia},
	)
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemoryStore()

	svc, err := NewService(ctx, catalog, st)
	if err != nil {
		t.Fatal(err)
	}
	// First process runs with its clock well ahead of the second.
	ahead := time.Now().Add(time.Hour)
	svc.clock.now = func() time.Time { return ahead }

	first, err := svc.Post(ctx, socio, "general", "before restart")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send(ctx, socio, socia.ID, "dm before restart"); err != nil {
		t.Fatal(err)
	}

	svc2, err := NewService(ctx, catalog, st)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc2.Post(ctx, socio, "general", "after restart")
	if err != nil {
		t.Fatal(err)
	}

	if second.Seq <= first.Seq {
		t.Fatalf("sequence went backwards across restart: %d then %d", first.Seq, second.Seq)
	}
	if second.Timestamp < first.Timestamp {
		t.Fatalf("timestamp went backwards across restart: %d then %d", first.Timestamp, second.Timestamp)
	}

	messages, err := svc2.Messages(ctx, socio, "general", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 || messages[0].Body != "before restart" || messages[1].Body != "after restart" {
		t.Fatalf("append order lost across restart: %+v", messages)
	}
}
