package interval

import (
	"fmt"
	"math"
	"time"

	"github.com/nikmy/roombook/pkg/errors"
)

var ErrInvalidInterval = errors.New("invalid interval")

// Interval is a half-open range [Start, End) of unix milliseconds.
// The zero value is not a valid interval, use New or FromTime.
type Interval struct {
	start int64
	end   int64
}

func New(start, end int64) (Interval, error) {
	if start >= end {
		return Interval{}, errors.Wrapf(ErrInvalidInterval, "[%d, %d)", start, end)
	}
	return Interval{start: start, end: end}, nil
}

func FromTime(start, end time.Time) (Interval, error) {
	return New(start.UnixMilli(), end.UnixMilli())
}

func (i Interval) Start() int64 { return i.start }
func (i Interval) End() int64   { return i.end }

func (i Interval) StartTime() time.Time { return time.UnixMilli(i.start) }
func (i Interval) EndTime() time.Time   { return time.UnixMilli(i.end) }

// Span is the length of i in milliseconds. It does not overflow for any
// valid interval, unlike End() - Start().
func (i Interval) Span() uint64 {
	return Gap(i.start, i.end)
}

// Duration is the length of i, saturated at the largest time.Duration.
func (i Interval) Duration() time.Duration {
	span := i.Span()
	if span > uint64(math.MaxInt64/int64(time.Millisecond)) {
		return math.MaxInt64
	}
	return time.Duration(span) * time.Millisecond
}

// Gap returns to - from in milliseconds, 0 when to is not after from.
func Gap(from, to int64) uint64 {
	if to <= from {
		return 0
	}
	return uint64(to) - uint64(from)
}

func (i Interval) Valid() bool {
	return i.start < i.end
}

func (i Interval) Contains(t int64) bool {
	return i.start <= t && t < i.end
}

// Clip returns the part of i lying inside window.
func (i Interval) Clip(window Interval) (Interval, bool) {
	if !Overlaps(i, window) {
		return Interval{}, false
	}
	return Interval{start: max(i.start, window.start), end: min(i.end, window.end)}, true
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d, %d)", i.start, i.end)
}

// Overlaps reports whether a and b share at least one instant.
// Intervals that only touch (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.start < b.end && b.start < a.end
}
