package crawler

import (
	"context"
	"time"
)

// Fetcher fetches a URL and classifies the outcome. Transient failures are
// retried internally; the returned error is reserved for context
// cancellation and programming errors, never for remote-side failures.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResult, error)
}

// PageStore persists page artifacts and crawl records, keyed purely by
// (book, section). Exists is the resume gate: a true result means the page
// must not be fetched again.
type PageStore interface {
	Exists(bookID string, section int) bool
	SavePage(bookID string, section int, body []byte) error
	SaveRecord(bookID string, record CrawlRecord) error
}

// Catalog looks up book metadata by ID.
type Catalog interface {
	Lookup(bookID string) (BookInfo, bool)
}

// Queue provides enqueue/dequeue semantics for book jobs.
type Queue interface {
	Enqueue(ctx context.Context, job BookJob) error
	Dequeue(ctx context.Context) (BookJob, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
