// Package feed delivers realtime change events to connected clients over
// Redis pub/sub. Each user has a dedicated channel; the api service fans
// events out to SSE subscribers.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultChannelPrefix = "dishdecide:changes"

// Event kinds pushed to clients.
const (
	KindPartnerRequest  = "partner_request"
	KindRequestAccepted = "request_accepted"
	KindRequestRejected = "request_rejected"
	KindPartnerUnlinked = "partner_unlinked"
	KindRecipeShared    = "recipe_shared"
	KindReaction        = "reaction"
	KindPartnerMessage  = "partner_message"
	KindNotification    = "notification"
)

// Event is one change notification addressed to a single user.
type Event struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	UserID    string          `json:"user_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Feed publishes and subscribes to per-user change channels.
type Feed struct {
	client *redis.Client
	prefix string
}

// New connects the feed to Redis.
func New(addr, password, prefix string) (*Feed, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("feed redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	return &Feed{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		prefix: prefix,
	}, nil
}

func (f *Feed) channel(userID string) string {
	return f.prefix + ":" + userID
}

// Publish pushes an event to the target user's channel. Delivery is
// best-effort: nobody listening is not an error.
func (f *Feed) Publish(ctx context.Context, event Event) error {
	if event.UserID == "" {
		return errors.New("feed event requires a user id")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal feed event: %w", err)
	}
	return f.client.Publish(ctx, f.channel(event.UserID), body).Err()
}

// Subscribe listens for the user's events until ctx is done. Events that
// fail to decode are dropped.
func (f *Feed) Subscribe(ctx context.Context, userID string) (<-chan Event, error) {
	if userID == "" {
		return nil, errors.New("feed subscription requires a user id")
	}
	sub := f.client.Subscribe(ctx, f.channel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe feed: %w", err)
	}
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer sub.Close()
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}

// Close releases the underlying Redis client.
func (f *Feed) Close() error {
	return f.client.Close()
}
