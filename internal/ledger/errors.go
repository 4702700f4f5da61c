package ledger

import (
	"fmt"
	"strings"

	"github.com/nikmy/roombook/internal/index"
	"github.com/nikmy/roombook/internal/interval"
	"github.com/nikmy/roombook/pkg/errors"
)

var (
	ErrConflict        = index.ErrConflict
	ErrNotFound        = index.ErrNotFound
	ErrDuplicateID     = index.ErrDuplicateID
	ErrCorruptData     = index.ErrCorruptData
	ErrInvalidInterval = interval.ErrInvalidInterval

	ErrInvalidResource = errors.New("invalid resource key")
)

// ConflictError carries every confirmed booking that prevented admission.
type ConflictError struct {
	Bookings []Booking
}

func (e *ConflictError) Error() string {
	ids := make([]string, 0, len(e.Bookings))
	for _, b := range e.Bookings {
		ids = append(ids, b.ID)
	}
	return fmt.Sprintf("%s: %s", ErrConflict, strings.Join(ids, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
