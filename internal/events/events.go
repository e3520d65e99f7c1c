// Package events publishes pipeline state transitions to an external sink.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    string    `json:"user_id"`
	State     string    `json:"state"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher delivers events. Callers treat publishing as best effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
