package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"
	"roomspark-backend/internal/events"
)

const eventsTable = "project_events"

// RealtimeClient publishes pipeline events by inserting rows into
// project_events. Clients subscribed to the table through Supabase Realtime
// receive each insert.
type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{client: client}
}

type eventRow struct {
	ProjectID string  `json:"project_id"`
	UserID    string  `json:"user_id"`
	State     string  `json:"state"`
	Error     *string `json:"error,omitempty"`
	At        string  `json:"at"`
}

func newEventRow(e events.Event) eventRow {
	row := eventRow{
		ProjectID: e.ProjectID.String(),
		UserID:    e.UserID,
		State:     e.State,
		At:        e.At.UTC().Format(time.RFC3339Nano),
	}
	if e.Error != "" {
		msg := e.Error
		row.Error = &msg
	}
	return row
}

func (r *RealtimeClient) Publish(ctx context.Context, e events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := r.client.From(eventsTable).Insert(newEventRow(e), false, "", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to insert project event: %w", err)
	}
	return nil
}

func (r *RealtimeClient) Close() error { return nil }
