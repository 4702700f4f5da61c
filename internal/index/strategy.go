package index

import (
	"sort"
	"time"

	"github.com/nikmy/roombook/pkg/errors"
)

const (
	LinearName = "linear"
	BinaryName = "binary"
)

// Strategy locates the position at which an interval starting at
// start must be inserted to keep entries sorted: the first entry
// whose start is not less than start, or len(entries).
// Implementations must not modify entries.
type Strategy interface {
	Name() string
	InsertionPoint(entries []Entry, start int64) (idx int, comparisons int)
}

func StrategyByName(name string) (Strategy, error) {
	switch name {
	case LinearName:
		return Linear{}, nil
	case BinaryName, "":
		return Binary{}, nil
	default:
		return nil, errors.Errorf("unknown search strategy %q", name)
	}
}

type Linear struct{}

func (Linear) Name() string { return LinearName }

func (Linear) InsertionPoint(entries []Entry, start int64) (int, int) {
	for i := range entries {
		if entries[i].Interval.Start() >= start {
			return i, i + 1
		}
	}
	return len(entries), len(entries)
}

type Binary struct{}

func (Binary) Name() string { return BinaryName }

func (Binary) InsertionPoint(entries []Entry, start int64) (int, int) {
	comparisons := 0
	idx := sort.Search(len(entries), func(i int) bool {
		comparisons++
		return entries[i].Interval.Start() >= start
	})
	return idx, comparisons
}

// Costs is the insertion point search cost of both strategies over the
// same entries.
type Costs struct {
	Linear        int
	Binary        int
	LinearElapsed time.Duration
	BinaryElapsed time.Duration
}

// Compare runs the insertion point search of both strategies for start
// without changing the index.
func (x *Index) Compare(start int64) Costs {
	var c Costs

	began := time.Now()
	_, c.Linear = Linear{}.InsertionPoint(x.entries, start)
	c.LinearElapsed = time.Since(began)

	began = time.Now()
	_, c.Binary = Binary{}.InsertionPoint(x.entries, start)
	c.BinaryElapsed = time.Since(began)

	return c
}
