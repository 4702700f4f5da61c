package index

import (
	"fmt"
	"strings"

	"github.com/nikmy/roombook/pkg/errors"
)

var (
	ErrConflict    = errors.New("interval conflicts with existing booking")
	ErrNotFound    = errors.New("booking not found")
	ErrDuplicateID = errors.New("booking id already indexed")
	ErrCorruptData = errors.New("corrupt index data")
)

// ConflictError lists every indexed entry colliding with a candidate.
type ConflictError struct {
	Entries []Entry
}

func (e *ConflictError) Error() string {
	ids := make([]string, 0, len(e.Entries))
	for _, entry := range e.Entries {
		ids = append(ids, fmt.Sprintf("%s %s", entry.ID, entry.Interval))
	}
	return fmt.Sprintf("%s: %s", ErrConflict, strings.Join(ids, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
