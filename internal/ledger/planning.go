package ledger

import (
	"math"
	"time"

	"github.com/nikmy/roombook/internal/interval"
	"github.com/nikmy/roombook/pkg/errors"
)

// Available returns known resources that are free for the whole window.
func (l *Ledger) Available(window interval.Interval) ([]string, error) {
	if !window.Valid() {
		return nil, errors.Wrapf(ErrInvalidInterval, "%s", window)
	}

	var free []string
	for _, key := range l.Resources() {
		conflicts, err := l.Check(key, window)
		if err != nil {
			return nil, errors.WrapFailf(err, "check %s", key)
		}
		if len(conflicts) == 0 {
			free = append(free, key)
		}
	}
	return free, nil
}

// Suggest returns up to limit earliest free slots of the given duration
// inside window, one per gap between bookings. limit <= 0 means no limit.
func (l *Ledger) Suggest(key string, window interval.Interval, duration time.Duration, limit int) ([]interval.Interval, error) {
	length := duration.Milliseconds()
	if length <= 0 {
		return nil, errors.Wrapf(ErrInvalidInterval, "non-positive duration %s", duration)
	}

	booked, err := l.BookingsFor(key, window)
	if err != nil {
		return nil, err
	}

	var slots []interval.Interval
	offer := func(from int64) bool {
		slot, _ := interval.New(from, from+length)
		slots = append(slots, slot)
		return limit > 0 && len(slots) >= limit
	}

	cursor := window.Start()
	for _, b := range booked {
		if interval.Gap(cursor, b.Interval.Start()) >= uint64(length) && offer(cursor) {
			return slots, nil
		}
		cursor = max(cursor, b.Interval.End())
	}

	if interval.Gap(cursor, window.End()) >= uint64(length) {
		offer(cursor)
	}
	return slots, nil
}

// Utilisation returns the booked share of window on key, in percent.
func (l *Ledger) Utilisation(key string, window interval.Interval) (int, error) {
	booked, err := l.BookingsFor(key, window)
	if err != nil {
		return 0, err
	}

	// parts are disjoint and lie inside window, so the sum fits
	var total uint64
	for _, b := range booked {
		part, ok := b.Interval.Clip(window)
		if ok {
			total += part.Span()
		}
	}

	pct := int(math.Round(float64(total) / float64(window.Span()) * 100))
	return min(max(pct, 0), 100), nil
}
