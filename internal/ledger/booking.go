package ledger

import (
	"time"

	"github.com/nikmy/roombook/internal/interval"
	"github.com/nikmy/roombook/pkg/errors"
)

type Booking struct {
	ID        string            `json:"id"`
	Resource  string            `json:"resource"`
	Requester string            `json:"requester"`
	Interval  interval.Interval `json:"interval"`
	Status    Status            `json:"status"`

	CreatedAt   time.Time `json:"created_at"`
	CancelledAt time.Time `json:"cancelled_at,omitzero"`
}

type Status int

const (
	// StatusPending is set while the booking waits for admission
	StatusPending Status = iota

	// StatusConfirmed is set when its interval has entered the index
	StatusConfirmed

	// StatusCancelled is set when it has been withdrawn
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*s = StatusPending
	case "confirmed":
		*s = StatusConfirmed
	case "cancelled":
		*s = StatusCancelled
	default:
		return errors.Errorf("unknown booking status %q", text)
	}
	return nil
}
