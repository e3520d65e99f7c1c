package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"roomspark-backend/internal/events"
)

func TestNoop(t *testing.T) {
	var p events.Publisher = events.Noop{}
	assert.NoError(t, p.Publish(context.Background(), events.Event{State: "created"}))
	assert.NoError(t, p.Close())
}

func TestEvent_JSON(t *testing.T) {
	id := uuid.New()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(events.Event{ProjectID: id, UserID: "u1", State: "failed", Error: "upstream 500", At: at})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id.String(), decoded["project_id"])
	assert.Equal(t, "failed", decoded["state"])
	assert.Equal(t, "upstream 500", decoded["error"])
	assert.Equal(t, "2025-03-01T12:00:00Z", decoded["at"])
}

func TestKafkaPublisher_UnreachableBroker(t *testing.T) {
	p := events.NewKafkaPublisher([]string{"127.0.0.1:1"}, "pipeline-events")
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := p.Publish(ctx, events.Event{ProjectID: uuid.New(), State: "created", At: time.Now()})
	assert.Error(t, err)
}
