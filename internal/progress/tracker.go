// Package progress tracks running totals for one crawl run. The Tracker is
// updated by the pool as books finish and read concurrently by the status
// server, so all counters are atomic.
package progress

import (
	"sync/atomic"
	"time"
)

// Tracker accumulates pool-level counters.
type Tracker struct {
	started      time.Time
	totalBooks   atomic.Int64
	completed    atomic.Int64
	failed       atomic.Int64
	pagesFetched atomic.Int64
	pagesSkipped atomic.Int64
}

// Snapshot is the JSON shape served by the status endpoint.
type Snapshot struct {
	StartedAt    time.Time `json:"started_at"`
	TotalBooks   int64     `json:"total_books"`
	Completed    int64     `json:"completed"`
	Failed       int64     `json:"failed"`
	Remaining    int64     `json:"remaining"`
	PagesFetched int64     `json:"pages_fetched"`
	PagesSkipped int64     `json:"pages_skipped"`
}

// NewTracker creates a Tracker for a run over the given number of books.
func NewTracker(totalBooks int, started time.Time) *Tracker {
	t := &Tracker{started: started}
	t.totalBooks.Store(int64(totalBooks))
	return t
}

// BookCompleted records one successfully finished book.
func (t *Tracker) BookCompleted() { t.completed.Add(1) }

// BookFailed records one failed or interrupted book.
func (t *Tracker) BookFailed() { t.failed.Add(1) }

// AddPages records per-book page counts once the book finishes.
func (t *Tracker) AddPages(fetched, skipped int) {
	t.pagesFetched.Add(int64(fetched))
	t.pagesSkipped.Add(int64(skipped))
}

// Finished reports how many books have terminated either way.
func (t *Tracker) Finished() int64 {
	return t.completed.Load() + t.failed.Load()
}

// Snapshot returns a consistent-enough view for reporting.
func (t *Tracker) Snapshot() Snapshot {
	total := t.totalBooks.Load()
	completed := t.completed.Load()
	failed := t.failed.Load()
	return Snapshot{
		StartedAt:    t.started,
		TotalBooks:   total,
		Completed:    completed,
		Failed:       failed,
		Remaining:    total - completed - failed,
		PagesFetched: t.pagesFetched.Load(),
		PagesSkipped: t.pagesSkipped.Load(),
	}
}
