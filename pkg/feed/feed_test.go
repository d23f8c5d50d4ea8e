package feed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFeedPublishSubscribe(t *testing.T) {
	redis := miniredis.RunT(t)
	f, err := New(redis.Addr(), "", "test:changes")
	if err != nil {
		t.Fatalf("new feed: %v", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := f.Subscribe(ctx, "bob")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"shared_recipe_id": "share-1"})
	if err := f.Publish(ctx, Event{
		ID:      "evt-1",
		Kind:    KindRecipeShared,
		UserID:  "bob",
		Payload: payload,
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// An event for another user must not leak into bob's channel.
	if err := f.Publish(ctx, Event{ID: "evt-2", Kind: KindReaction, UserID: "carol"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-events:
		if event.ID != "evt-1" || event.Kind != KindRecipeShared {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.CreatedAt.IsZero() {
			t.Fatalf("publish should stamp CreatedAt")
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for event")
	}

	select {
	case event := <-events:
		t.Fatalf("unexpected second event on bob's channel: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFeedRequiresUser(t *testing.T) {
	redis := miniredis.RunT(t)
	f, err := New(redis.Addr(), "", "")
	if err != nil {
		t.Fatalf("new feed: %v", err)
	}
	defer f.Close()

	if err := f.Publish(context.Background(), Event{Kind: KindReaction}); err == nil {
		t.Fatalf("publish without user id should fail")
	}
	if _, err := f.Subscribe(context.Background(), ""); err == nil {
		t.Fatalf("subscribe without user id should fail")
	}
}
