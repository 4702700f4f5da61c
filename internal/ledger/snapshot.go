package ledger

import (
	"github.com/nikmy/roombook/internal/index"
	"github.com/nikmy/roombook/pkg/errors"
)

// ResourceSnapshot is the persisted form of one resource: its confirmed
// bookings in index order.
type ResourceSnapshot struct {
	Key      string    `json:"key"`
	Bookings []Booking `json:"bookings"`
}

// Snapshot dumps confirmed bookings of every resource. Each resource is
// captured consistently, resources are captured one after another.
func (l *Ledger) Snapshot() []ResourceSnapshot {
	keys := l.Resources()
	out := make([]ResourceSnapshot, 0, len(keys))

	for _, key := range keys {
		r, _ := l.lookup(key)

		r.mu.RLock()
		out = append(out, ResourceSnapshot{
			Key:      key,
			Bookings: r.entriesToBookings(r.index.Dump()),
		})
		r.mu.RUnlock()
	}

	return out
}

// Restore replaces the ledger state with snapshots. Every index is
// rebuilt through index.Load, so unordered or overlapping input fails
// with ErrCorruptData and leaves the ledger untouched.
// Restore is meant to run before the ledger starts serving requests.
func (l *Ledger) Restore(snapshots []ResourceSnapshot) error {
	resources := make(map[string]*resource, len(snapshots)+len(l.known))
	owners := make(map[string]*resource)
	seen := make(map[string]struct{}, len(snapshots))

	for _, key := range l.known {
		if key != "" {
			resources[key] = l.newResource(key)
		}
	}

	for _, snap := range snapshots {
		if snap.Key == "" {
			return errors.Wrap(ErrCorruptData, "snapshot without resource key")
		}
		if _, dup := seen[snap.Key]; dup {
			return errors.Wrapf(ErrCorruptData, "resource %s restored twice", snap.Key)
		}
		seen[snap.Key] = struct{}{}

		entries := make([]index.Entry, 0, len(snap.Bookings))
		for _, b := range snap.Bookings {
			entries = append(entries, index.Entry{Interval: b.Interval, ID: b.ID})
		}

		x, err := index.Load(l.strategy, entries)
		if err != nil {
			return errors.WrapFailf(err, "load resource %s", snap.Key)
		}

		r := l.newResource(snap.Key)
		r.index = x
		for _, b := range snap.Bookings {
			if _, dup := owners[b.ID]; dup {
				return errors.Wrapf(ErrCorruptData, "booking %s restored twice", b.ID)
			}

			b.Resource = snap.Key
			b.Status = StatusConfirmed
			r.confirmed[b.ID] = b
			owners[b.ID] = r
		}
		resources[snap.Key] = r
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.resources = resources
	l.owners.Range(func(id, _ any) bool {
		l.owners.Delete(id)
		return true
	})
	for id, r := range owners {
		l.owners.Store(id, r)
	}

	l.log.Infof("restored %d resource(s), %d booking(s)", len(snapshots), len(owners))
	return nil
}
