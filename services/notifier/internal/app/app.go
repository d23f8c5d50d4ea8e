package app

import (
	"context"
	"encoding/json"
	"fmt"

	"dishdecide/pkg/domain"
	"dishdecide/pkg/feed"
	"dishdecide/pkg/notify"
	"dishdecide/pkg/store"
)

// ChangePublisher pushes realtime events to connected clients.
type ChangePublisher interface {
	Publish(ctx context.Context, event feed.Event) error
}

// Config holds runtime configuration for the notifier core.
type Config struct {
	DatabaseURL string
	Store       store.Store
	Feed        ChangePublisher
}

// App turns bus events into notification rows and realtime pushes.
type App struct {
	store store.Store
	feed  ChangePublisher
}

// New constructs the notifier core.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	if cfg.Feed == nil {
		return nil, fmt.Errorf("change feed required")
	}
	return &App{store: dataStore, feed: cfg.Feed}, nil
}

// Handle persists the event as a notification and forwards it to the
// recipient's change feed. The event ID keys the notification row, so a
// redelivered event writes nothing new.
func (a *App) Handle(ctx context.Context, event notify.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	err = a.store.SaveNotification(domain.Notification{
		ID:        event.ID,
		UserID:    event.UserID,
		Kind:      event.Kind,
		Payload:   string(payload),
		CreatedAt: event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return a.feed.Publish(ctx, feed.Event{
		ID:      event.ID,
		Kind:    event.Kind,
		UserID:  event.UserID,
		Payload: payload,
	})
}
