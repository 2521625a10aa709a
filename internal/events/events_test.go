package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMarshalShape(t *testing.T) {
	occurredAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	event := Event{
		Type:       TypeTransferCompleted,
		EntityID:   "tr-1",
		LocationID: "workshop",
		OccurredAt: occurredAt,
		Payload:    map[string]any{"to_location_id": "storefront"},
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "transfer.completed", decoded["type"])
	assert.Equal(t, "tr-1", decoded["entity_id"])
	assert.Equal(t, "workshop", decoded["location_id"])
	assert.Equal(t, "2026-03-14T09:30:00Z", decoded["occurred_at"])

	payload, ok := decoded["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "storefront", payload["to_location_id"])
}

func TestNoopPublisherIsSafe(t *testing.T) {
	var publisher Publisher = Noop{}
	publisher.Publish(context.Background(), Event{Type: TypeCheckoutCompleted})
	assert.NoError(t, publisher.Close())
}
