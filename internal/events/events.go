package events

import (
	"context"
	"time"
)

const (
	TypeReceptionRecorded = "reception.recorded"
	TypeTransferCompleted = "transfer.completed"
	TypeTransferCancelled = "transfer.cancelled"
	TypeCheckoutCompleted = "checkout.completed"
	TypeInvoicePaid       = "invoice.paid"
)

// Event is one operational fact published after the owning transaction
// has committed. Delivery is best-effort; consumers must tolerate
// duplicates and gaps.
type Event struct {
	Type       string         `json:"type"`
	EntityID   string         `json:"entity_id"`
	LocationID string         `json:"location_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

// Noop is the publisher used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}

func (Noop) Close() error { return nil }
