package ledger

import (
	"sync"
	"time"

	"github.com/nikmy/roombook/internal/index"
)

// SearchRun describes one search over a resource index. Comparisons and
// Elapsed belong to the active strategy and include the neighbour scan.
// The Linear and Binary fields measure the insertion point search of each
// strategy over the same entries.
type SearchRun struct {
	At          time.Time     `json:"at"`
	Operation   string        `json:"operation"`
	Resource    string        `json:"resource"`
	Strategy    string        `json:"strategy"`
	Size        int           `json:"size"`
	Comparisons int           `json:"comparisons"`
	Elapsed     time.Duration `json:"elapsed"`

	LinearComparisons int           `json:"linear_comparisons"`
	BinaryComparisons int           `json:"binary_comparisons"`
	LinearElapsed     time.Duration `json:"linear_elapsed"`
	BinaryElapsed     time.Duration `json:"binary_elapsed"`
}

type Costs = index.Costs

const (
	opPropose    = "propose"
	opCancel     = "cancel"
	opReschedule = "reschedule"
	opQuery      = "query"
	opCheck      = "check"
)

type history struct {
	mu   sync.Mutex
	runs []SearchRun
	next int
	full bool
}

func newHistory(size int) *history {
	if size <= 0 {
		return nil
	}
	return &history{runs: make([]SearchRun, size)}
}

func (h *history) add(run SearchRun) {
	if h == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs[h.next] = run
	h.next = (h.next + 1) % len(h.runs)
	if h.next == 0 {
		h.full = true
	}
}

// list returns recorded runs, oldest first.
func (h *history) list() []SearchRun {
	if h == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.full {
		return append([]SearchRun(nil), h.runs[:h.next]...)
	}

	out := make([]SearchRun, 0, len(h.runs))
	out = append(out, h.runs[h.next:]...)
	return append(out, h.runs[:h.next]...)
}
