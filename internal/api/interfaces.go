package api

import (
	"context"
	"time"

	"github.com/nikmy/roombook/internal/interval"
	"github.com/nikmy/roombook/internal/ledger"
)

type Server interface {
	Serve(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

type Ledger interface {
	Propose(key string, i interval.Interval, requester string) (ledger.Booking, error)
	Cancel(id string) (ledger.Booking, error)
	Reschedule(id string, key string, i interval.Interval) (ledger.Booking, error)
	Get(id string) (ledger.Booking, error)

	BookingsFor(key string, window interval.Interval) ([]ledger.Booking, error)
	Check(key string, i interval.Interval) ([]ledger.Booking, error)
	Available(window interval.Interval) ([]string, error)
	Suggest(key string, window interval.Interval, duration time.Duration, limit int) ([]interval.Interval, error)
	Utilisation(key string, window interval.Interval) (int, error)

	Catalog() []ledger.ResourceInfo
	History() []ledger.SearchRun
}
