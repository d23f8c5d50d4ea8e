package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"dishdecide/pkg/feed"
	"dishdecide/pkg/notify"
	"dishdecide/pkg/store"
)

type capturingFeed struct {
	mu     sync.Mutex
	events []feed.Event
}

func (c *capturingFeed) Publish(_ context.Context, event feed.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturingFeed) all() []feed.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]feed.Event(nil), c.events...)
}

func TestHandlePersistsAndForwards(t *testing.T) {
	memStore := store.NewMemoryStore()
	changeFeed := &capturingFeed{}
	core, err := New(Config{Store: memStore, Feed: changeFeed})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	event := notify.Event{
		ID:        "evt-1",
		Kind:      notify.KindRecipeShared,
		UserID:    "user-bob",
		ActorID:   "user-alice",
		SubjectID: "share-1",
		Message:   "try this",
		CreatedAt: time.Now().UTC(),
	}
	if err := core.Handle(context.Background(), event); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	notes, err := memStore.ListNotifications("user-bob", 0)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes))
	}
	note := notes[0]
	if note.ID != "evt-1" || note.Kind != notify.KindRecipeShared || note.IsRead {
		t.Fatalf("notification = %+v", note)
	}
	var stored notify.Event
	if err := json.Unmarshal([]byte(note.Payload), &stored); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if stored.ActorID != "user-alice" || stored.Message != "try this" {
		t.Fatalf("payload = %+v", stored)
	}

	pushed := changeFeed.all()
	if len(pushed) != 1 || pushed[0].UserID != "user-bob" || pushed[0].Kind != feed.KindRecipeShared {
		t.Fatalf("feed events = %+v", pushed)
	}
}

func TestHandleRedeliveryIsIdempotent(t *testing.T) {
	memStore := store.NewMemoryStore()
	changeFeed := &capturingFeed{}
	core, err := New(Config{Store: memStore, Feed: changeFeed})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	event := notify.Event{
		ID:        "evt-dup",
		Kind:      notify.KindPartnerMessage,
		UserID:    "user-bob",
		ActorID:   "user-alice",
		CreatedAt: time.Now().UTC(),
	}
	for i := 0; i < 3; i++ {
		if err := core.Handle(context.Background(), event); err != nil {
			t.Fatalf("Handle #%d: %v", i, err)
		}
	}

	notes, err := memStore.ListNotifications("user-bob", 0)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notifications after redelivery = %d, want 1", len(notes))
	}

	counts, err := memStore.UnreadCounts("user-bob")
	if err != nil {
		t.Fatalf("UnreadCounts: %v", err)
	}
	if counts.Notifications != 1 {
		t.Fatalf("unread notifications = %d, want 1", counts.Notifications)
	}
}

func TestHandleDistinguishesRecipients(t *testing.T) {
	memStore := store.NewMemoryStore()
	changeFeed := &capturingFeed{}
	core, err := New(Config{Store: memStore, Feed: changeFeed})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, event := range []notify.Event{
		{ID: "evt-a", Kind: notify.KindReaction, UserID: "user-alice", CreatedAt: time.Now().UTC()},
		{ID: "evt-b", Kind: notify.KindReaction, UserID: "user-bob", CreatedAt: time.Now().UTC()},
	} {
		if err := core.Handle(context.Background(), event); err != nil {
			t.Fatalf("Handle %s: %v", event.ID, err)
		}
	}

	for _, tc := range []struct {
		userID string
		wantID string
	}{
		{"user-alice", "evt-a"},
		{"user-bob", "evt-b"},
	} {
		notes, err := memStore.ListNotifications(tc.userID, 0)
		if err != nil {
			t.Fatalf("ListNotifications(%s): %v", tc.userID, err)
		}
		if len(notes) != 1 || notes[0].ID != tc.wantID {
			t.Fatalf("%s notifications = %+v", tc.userID, notes)
		}
	}
}
