package ledger

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikmy/roombook/internal/index"
	"github.com/nikmy/roombook/internal/interval"
	"github.com/nikmy/roombook/pkg/errors"
	"github.com/nikmy/roombook/pkg/logger"
)

type Option func(l *Ledger)

func WithStrategy(s index.Strategy) Option {
	return func(l *Ledger) { l.strategy = s }
}

func WithLogger(log logger.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithHistorySize sets how many search runs History keeps, 0 disables it.
func WithHistorySize(n int) Option {
	return func(l *Ledger) { l.historySize = n }
}

// WithResources registers resources upfront, so they are reported by
// Resources and Available before their first booking.
func WithResources(keys ...string) Option {
	return func(l *Ledger) { l.known = append(l.known, keys...) }
}

// Ledger admits bookings into per-resource conflict-free indices.
// Operations on different resources do not block each other.
type Ledger struct {
	strategy    index.Strategy
	log         logger.Logger
	publisher   Publisher
	newID       func() string
	now         func() time.Time
	historySize int
	known       []string

	// written by options only, read-only afterwards
	info map[string]ResourceInfo

	mu        sync.Mutex
	resources map[string]*resource

	// booking id -> *resource, updated under the owning resource lock
	owners  sync.Map
	history *history
}

type resource struct {
	key string

	mu        sync.RWMutex
	index     *index.Index
	confirmed map[string]Booking
	cancelled map[string]Booking
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		strategy:    index.Binary{},
		log:         logger.NewStub(),
		newID:       uuid.NewString,
		now:         time.Now,
		historySize: 128,
		resources:   make(map[string]*resource),
		info:        make(map[string]ResourceInfo),
	}

	for _, opt := range opts {
		opt(l)
	}

	l.log = l.log.With("ledger")
	l.history = newHistory(l.historySize)
	for _, key := range l.known {
		if key != "" {
			l.resources[key] = l.newResource(key)
		}
	}

	return l
}

func (l *Ledger) newResource(key string) *resource {
	return &resource{
		key:       key,
		index:     index.New(l.strategy),
		confirmed: make(map[string]Booking),
		cancelled: make(map[string]Booking),
	}
}

// resource returns the resource for key, creating it on first reference.
func (l *Ledger) resource(key string) *resource {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.resources[key]
	if !ok {
		r = l.newResource(key)
		l.resources[key] = r
	}
	return r
}

func (l *Ledger) lookup(key string) (*resource, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.resources[key]
	return r, ok
}

func (l *Ledger) Strategy() index.Strategy {
	return l.strategy
}

func (l *Ledger) Propose(key string, i interval.Interval, requester string) (Booking, error) {
	err := validate(key, i)
	if err != nil {
		return Booking{}, err
	}

	b := Booking{
		ID:        l.newID(),
		Resource:  key,
		Requester: requester,
		Interval:  i,
		Status:    StatusPending,
		CreatedAt: l.now(),
	}

	r := l.resource(key)

	r.mu.Lock()
	// ids are unique across resources, cancelled ones included
	if _, taken := l.owners.LoadOrStore(b.ID, r); taken {
		r.mu.Unlock()
		return Booking{}, errors.Wrapf(ErrDuplicateID, "booking %s", b.ID)
	}

	began := time.Now()
	costs := l.compare(r, i.Start())
	err = r.index.Insert(i, b.ID)
	l.record(r, opPropose, began, costs)

	var conflicts []Booking
	if err == nil {
		b.Status = StatusConfirmed
		r.confirmed[b.ID] = b
	} else {
		l.owners.Delete(b.ID)
		conflicts = r.bookingsOf(err)
	}
	r.mu.Unlock()

	if conflicts != nil {
		l.log.Debugf("reject %s on %s: conflicts with %d booking(s)", i, key, len(conflicts))
		return Booking{}, &ConflictError{Bookings: conflicts}
	}

	if err != nil {
		return Booking{}, errors.WrapFailf(err, "admit booking %s", b.ID)
	}

	l.log.Debugf("confirm %s on %s %s for %s", b.ID, key, i, requester)
	l.publish(Event{Kind: EventConfirmed, Booking: b, At: b.CreatedAt})
	return b, nil
}

func (l *Ledger) Cancel(id string) (Booking, error) {
	r, err := l.lockOwner(id)
	if err != nil {
		return Booking{}, err
	}

	began := time.Now()
	var costs Costs
	if e, ok := r.index.Get(id); ok {
		costs = l.compare(r, e.Interval.Start())
	}
	err = r.index.Remove(id)
	l.record(r, opCancel, began, costs)
	if err != nil {
		r.mu.Unlock()
		return Booking{}, err
	}

	b := r.confirmed[id]
	delete(r.confirmed, id)
	b.Status = StatusCancelled
	b.CancelledAt = l.now()
	r.cancelled[id] = b
	r.mu.Unlock()

	l.log.Debugf("cancel %s on %s %s", id, b.Resource, b.Interval)
	l.publish(Event{Kind: EventCancelled, Booking: b, At: b.CancelledAt})
	return b, nil
}

// Reschedule moves a confirmed booking to another interval, possibly on
// another resource. The booking keeps its id. On conflict nothing changes.
func (l *Ledger) Reschedule(id string, key string, i interval.Interval) (Booking, error) {
	err := validate(key, i)
	if err != nil {
		return Booking{}, err
	}

	dst := l.resource(key)
	src, unlock, err := l.lockPair(id, dst)
	if err != nil {
		return Booking{}, err
	}

	prev, ok := src.confirmed[id]
	if !ok {
		unlock()
		return Booking{}, errors.Wrapf(ErrNotFound, "booking %s", id)
	}

	began := time.Now()
	err = src.index.Remove(id)
	if err != nil {
		unlock()
		return Booking{}, errors.WrapFailf(err, "release slot of %s", id)
	}

	costs := l.compare(dst, i.Start())
	err = dst.index.Insert(i, id)
	l.record(dst, opReschedule, began, costs)
	if err != nil {
		var conflicts []Booking
		if errors.Is(err, index.ErrConflict) {
			conflicts = dst.bookingsOf(err)
		}

		restoreErr := src.index.Insert(prev.Interval, id)
		unlock()

		if restoreErr != nil {
			// unreachable while the resource lock is held
			l.log.Error(errors.WrapFailf(restoreErr, "restore slot of %s", id))
		}
		if conflicts != nil {
			return Booking{}, &ConflictError{Bookings: conflicts}
		}
		return Booking{}, errors.WrapFailf(err, "move booking %s", id)
	}

	moved := prev
	moved.Resource = key
	moved.Interval = i
	delete(src.confirmed, id)
	dst.confirmed[id] = moved
	l.owners.Store(id, dst)
	unlock()

	l.log.Debugf("reschedule %s from %s %s to %s %s", id, prev.Resource, prev.Interval, key, i)
	l.publish(Event{Kind: EventRescheduled, Booking: moved, Previous: &prev, At: l.now()})
	return moved, nil
}

func (l *Ledger) Get(id string) (Booking, error) {
	r, err := l.rlockOwner(id)
	if err != nil {
		return Booking{}, err
	}
	defer r.mu.RUnlock()

	if b, ok := r.confirmed[id]; ok {
		return b, nil
	}
	if b, ok := r.cancelled[id]; ok {
		return b, nil
	}
	return Booking{}, errors.Wrapf(ErrNotFound, "booking %s", id)
}

// BookingsFor returns confirmed bookings of key overlapping window, ordered by start.
func (l *Ledger) BookingsFor(key string, window interval.Interval) ([]Booking, error) {
	return l.search(opQuery, key, window)
}

// Check returns bookings that would prevent admission of i, without admitting it.
func (l *Ledger) Check(key string, i interval.Interval) ([]Booking, error) {
	return l.search(opCheck, key, i)
}

func (l *Ledger) search(op string, key string, window interval.Interval) ([]Booking, error) {
	err := validate(key, window)
	if err != nil {
		return nil, err
	}

	r, ok := l.lookup(key)
	if !ok {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	began := time.Now()
	costs := l.compare(r, window.Start())
	probe := r.index.Probe(window)
	l.history.add(SearchRun{
		At:                l.now(),
		Operation:         op,
		Resource:          key,
		Strategy:          r.index.Strategy().Name(),
		Size:              r.index.Len(),
		Comparisons:       probe.Comparisons,
		Elapsed:           time.Since(began),
		LinearComparisons: costs.Linear,
		BinaryComparisons: costs.Binary,
		LinearElapsed:     costs.LinearElapsed,
		BinaryElapsed:     costs.BinaryElapsed,
	})

	return r.entriesToBookings(probe.Conflicts), nil
}

func (l *Ledger) Resources() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys := make([]string, 0, len(l.resources))
	for key := range l.resources {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// All returns every confirmed booking ordered by resource, then start.
func (l *Ledger) All() []Booking {
	var all []Booking
	for _, key := range l.Resources() {
		r, _ := l.lookup(key)

		r.mu.RLock()
		all = append(all, r.entriesToBookings(r.index.Dump())...)
		r.mu.RUnlock()
	}
	return all
}

// History returns recent searches, oldest first.
func (l *Ledger) History() []SearchRun {
	return l.history.list()
}

// lockOwner write-locks the resource owning id. Ownership may change
// between lookup and locking on reschedule, so it is re-checked.
func (l *Ledger) lockOwner(id string) (*resource, error) {
	for {
		v, ok := l.owners.Load(id)
		if !ok {
			return nil, errors.Wrapf(ErrNotFound, "booking %s", id)
		}

		r := v.(*resource)
		r.mu.Lock()
		if cur, _ := l.owners.Load(id); cur == r {
			return r, nil
		}
		r.mu.Unlock()
	}
}

func (l *Ledger) rlockOwner(id string) (*resource, error) {
	for {
		v, ok := l.owners.Load(id)
		if !ok {
			return nil, errors.Wrapf(ErrNotFound, "booking %s", id)
		}

		r := v.(*resource)
		r.mu.RLock()
		if cur, _ := l.owners.Load(id); cur == r {
			return r, nil
		}
		r.mu.RUnlock()
	}
}

// lockPair write-locks the owner of id and dst in key order.
func (l *Ledger) lockPair(id string, dst *resource) (*resource, func(), error) {
	for {
		v, ok := l.owners.Load(id)
		if !ok {
			return nil, nil, errors.Wrapf(ErrNotFound, "booking %s", id)
		}
		src := v.(*resource)

		unlock := lockOrdered(src, dst)
		if cur, _ := l.owners.Load(id); cur == src {
			return src, unlock, nil
		}
		unlock()
	}
}

func lockOrdered(a, b *resource) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}

	if cmp.Less(b.key, a.key) {
		a, b = b, a
	}
	a.mu.Lock()
	b.mu.Lock()
	return func() {
		b.mu.Unlock()
		a.mu.Unlock()
	}
}

// compare measures both strategies on the current entries of r, the
// caller holds the resource lock. Skipped when history is off.
func (l *Ledger) compare(r *resource, start int64) Costs {
	if l.history == nil {
		return Costs{}
	}
	return r.index.Compare(start)
}

func (l *Ledger) record(r *resource, op string, began time.Time, costs Costs) {
	l.history.add(SearchRun{
		At:                l.now(),
		Operation:         op,
		Resource:          r.key,
		Strategy:          r.index.Strategy().Name(),
		Size:              r.index.Len(),
		Comparisons:       r.index.LastComparisons(),
		Elapsed:           time.Since(began),
		LinearComparisons: costs.Linear,
		BinaryComparisons: costs.Binary,
		LinearElapsed:     costs.LinearElapsed,
		BinaryElapsed:     costs.BinaryElapsed,
	})
}

func (l *Ledger) publish(e Event) {
	if l.publisher != nil {
		l.publisher.Publish(e)
	}
}

// bookingsOf maps the entries of an index conflict to bookings.
func (r *resource) bookingsOf(err error) []Booking {
	var conflict *index.ConflictError
	if !errors.As(err, &conflict) {
		return nil
	}
	return r.entriesToBookings(conflict.Entries)
}

func (r *resource) entriesToBookings(entries []index.Entry) []Booking {
	if len(entries) == 0 {
		return nil
	}

	out := make([]Booking, 0, len(entries))
	for _, e := range entries {
		out = append(out, r.confirmed[e.ID])
	}
	return out
}

func validate(key string, i interval.Interval) error {
	if key == "" {
		return errors.Wrap(ErrInvalidResource, "empty key")
	}
	if !i.Valid() {
		return errors.Wrapf(ErrInvalidInterval, "%s", i)
	}
	return nil
}
