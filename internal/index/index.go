package index

import (
	"cmp"
	"slices"

	"github.com/nikmy/roombook/internal/interval"
	"github.com/nikmy/roombook/pkg/errors"
)

type Entry struct {
	Interval interval.Interval
	ID       string
}

func compareEntries(a, b Entry) int {
	return cmp.Or(
		cmp.Compare(a.Interval.Start(), b.Interval.Start()),
		cmp.Compare(a.Interval.End(), b.Interval.End()),
		cmp.Compare(a.ID, b.ID),
	)
}

// Index keeps conflict-free entries of one resource sorted by start.
// Index is not safe for concurrent use.
type Index struct {
	strategy Strategy
	entries  []Entry
	starts   map[string]int64

	lastComparisons int
}

func New(strategy Strategy) *Index {
	if strategy == nil {
		strategy = Binary{}
	}

	return &Index{
		strategy: strategy,
		starts:   make(map[string]int64),
	}
}

// Load rebuilds an index from persisted entries. Entries must be valid,
// strictly ordered, uniquely identified and mutually non-overlapping.
func Load(strategy Strategy, entries []Entry) (*Index, error) {
	x := New(strategy)
	x.entries = make([]Entry, 0, len(entries))

	for i, e := range entries {
		if !e.Interval.Valid() {
			return nil, errors.Wrapf(ErrCorruptData, "entry %d (%s): invalid interval", i, e.ID)
		}

		if _, dup := x.starts[e.ID]; dup {
			return nil, errors.Wrapf(ErrCorruptData, "entry %d: duplicate id %s", i, e.ID)
		}

		if i > 0 {
			prev := entries[i-1]
			if compareEntries(prev, e) >= 0 {
				return nil, errors.Wrapf(ErrCorruptData, "entry %d (%s) is out of order", i, e.ID)
			}
			if interval.Overlaps(prev.Interval, e.Interval) {
				return nil, errors.Wrapf(ErrCorruptData, "entries %s and %s overlap", prev.ID, e.ID)
			}
		}

		x.entries = append(x.entries, e)
		x.starts[e.ID] = e.Interval.Start()
	}

	return x, nil
}

func (x *Index) Strategy() Strategy { return x.strategy }

func (x *Index) Len() int { return len(x.entries) }

// LastComparisons returns how many entries the last Insert or Remove
// touched while searching. Read-only searches report their own count
// through Probe.
func (x *Index) LastComparisons() int { return x.lastComparisons }

// Probe is the result of a read-only search.
type Probe struct {
	Conflicts   []Entry
	At          int
	Comparisons int
}

func (x *Index) Probe(candidate interval.Interval) Probe {
	at, lo, hi, comparisons := x.scan(candidate)

	p := Probe{At: at, Comparisons: comparisons}
	if lo != hi {
		p.Conflicts = slices.Clone(x.entries[lo:hi])
	}
	return p
}

func (x *Index) Dump() []Entry {
	return slices.Clone(x.entries)
}

func (x *Index) Get(id string) (Entry, bool) {
	pos, _, ok := x.position(id)
	if !ok {
		return Entry{}, false
	}
	return x.entries[pos], true
}

func (x *Index) FindConflicts(candidate interval.Interval) []Entry {
	return x.Probe(candidate).Conflicts
}

func (x *Index) Query(window interval.Interval) []Entry {
	return x.FindConflicts(window)
}

func (x *Index) Insert(i interval.Interval, id string) error {
	if _, dup := x.starts[id]; dup {
		return errors.Wrapf(ErrDuplicateID, "insert %s", id)
	}

	at, lo, hi, comparisons := x.scan(i)
	x.lastComparisons = comparisons
	if lo != hi {
		return &ConflictError{Entries: slices.Clone(x.entries[lo:hi])}
	}

	x.entries = slices.Insert(x.entries, at, Entry{Interval: i, ID: id})
	x.starts[id] = i.Start()
	return nil
}

func (x *Index) Remove(id string) error {
	pos, comparisons, ok := x.position(id)
	x.lastComparisons = comparisons
	if !ok {
		return errors.Wrapf(ErrNotFound, "remove %s", id)
	}

	x.entries = slices.Delete(x.entries, pos, pos+1)
	delete(x.starts, id)
	return nil
}

// scan returns the insertion point of candidate and the bounds [lo, hi)
// of the run of entries overlapping it. Since entries are sorted and
// conflict-free, overlapping entries are contiguous around the insertion
// point and scanning stops at the first non-overlapping neighbour.
func (x *Index) scan(candidate interval.Interval) (at, lo, hi, comparisons int) {
	at, comparisons = x.strategy.InsertionPoint(x.entries, candidate.Start())

	lo = at
	for lo > 0 {
		comparisons++
		if !interval.Overlaps(x.entries[lo-1].Interval, candidate) {
			break
		}
		lo--
	}

	hi = at
	for hi < len(x.entries) {
		comparisons++
		if !interval.Overlaps(x.entries[hi].Interval, candidate) {
			break
		}
		hi++
	}

	return at, lo, hi, comparisons
}

func (x *Index) position(id string) (pos, comparisons int, ok bool) {
	start, ok := x.starts[id]
	if !ok {
		return 0, 0, false
	}

	// starts are unique in a conflict-free index
	pos, comparisons = x.strategy.InsertionPoint(x.entries, start)
	if pos == len(x.entries) || x.entries[pos].ID != id {
		return 0, comparisons, false
	}
	return pos, comparisons, true
}
