package ledger

//go:generate mockgen -source=events.go -destination=mock_publisher_test.go -package=ledger

import "time"

type EventKind string

const (
	EventConfirmed   EventKind = "confirmed"
	EventCancelled   EventKind = "cancelled"
	EventRescheduled EventKind = "rescheduled"
)

type Event struct {
	Kind    EventKind `json:"kind"`
	Booking Booking   `json:"booking"`
	At      time.Time `json:"at"`

	// Previous is set for EventRescheduled
	Previous *Booking `json:"previous,omitempty"`
}

// Publisher receives ledger events after the resource lock is released.
// Publish must not block.
type Publisher interface {
	Publish(e Event)
}
