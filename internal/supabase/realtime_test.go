package supabase_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"roomspark-backend/internal/events"
	"roomspark-backend/internal/supabase"
)

func TestRealtimeClient_PublishInsertsEventRow(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/project_events", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := supabase.NewClient(server.URL, "service-key")
	require.NoError(t, err)
	publisher := supabase.NewRealtimeClient(client)

	projectID := uuid.New()
	err = publisher.Publish(context.Background(), events.Event{
		ProjectID: projectID,
		UserID:    "user-1",
		State:     "failed",
		Error:     "upstream 500",
		At:        time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, projectID.String(), got["project_id"])
	assert.Equal(t, "user-1", got["user_id"])
	assert.Equal(t, "failed", got["state"])
	assert.Equal(t, "upstream 500", got["error"])
	assert.Equal(t, "2025-05-01T09:30:00Z", got["at"])
	assert.NoError(t, publisher.Close())
}
