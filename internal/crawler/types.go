// Package crawler defines core types shared across subsystems.
package crawler

import "time"

// CrawlStatus represents the lifecycle state of a book crawl.
type CrawlStatus string

// Crawl status values persisted in the book's metadata record.
const (
	StatusInProgress CrawlStatus = "in_progress"
	StatusComplete   CrawlStatus = "complete"
	StatusFailed     CrawlStatus = "failed"
)

// PageAddress identifies one page of a book: the book ID plus the site's own
// section numbering. Sections are positive but not guaranteed contiguous.
type PageAddress struct {
	BookID  string
	Section int
}

// FetchKind classifies the outcome of one fetch, after retries.
type FetchKind int

// Fetch outcome kinds.
const (
	FetchOK FetchKind = iota
	// FetchNotFound is a 404 observed while probing with Expect404 set. It
	// signals "this page does not exist" rather than an error.
	FetchNotFound
	// FetchClientError covers 4xx responses that are never retried,
	// including an unexpected 404.
	FetchClientError
	// FetchServerError means retries were exhausted on 5xx responses.
	FetchServerError
	// FetchTimeout means retries were exhausted on request timeouts.
	FetchTimeout
	// FetchConnError means retries were exhausted on transport failures.
	FetchConnError
)

// String returns a short label for logging.
func (k FetchKind) String() string {
	switch k {
	case FetchOK:
		return "ok"
	case FetchNotFound:
		return "not_found"
	case FetchClientError:
		return "client_error"
	case FetchServerError:
		return "server_error"
	case FetchTimeout:
		return "timeout"
	case FetchConnError:
		return "conn_error"
	default:
		return "unknown"
	}
}

// FetchRequest captures everything needed to fetch one URL.
type FetchRequest struct {
	// Actor names the caller for rate-limiting purposes. Each worker passes
	// its own ID so workers throttle independently of each other.
	Actor string
	URL   string
	// Expect404 marks existence probes: a 404 then yields FetchNotFound
	// without consuming a retry instead of being surfaced as an error.
	Expect404 bool
}

// FetchResult is the terminal outcome of a fetch after retry handling.
type FetchResult struct {
	Kind       FetchKind
	StatusCode int
	Body       []byte
	// Attempts counts requests actually issued, including the final one.
	Attempts int
}

// OK reports whether the fetch produced a body.
func (r FetchResult) OK() bool { return r.Kind == FetchOK }

// BookJob is one unit of pool work: a book to crawl end to end.
type BookJob struct {
	BookID     string `json:"book_id"`
	Title      string `json:"title,omitempty"`
	AuthorID   string `json:"author_id,omitempty"`
	AuthorName string `json:"author_name,omitempty"`
}

// BookInfo is catalog metadata for a book. A catalog miss yields a
// placeholder title rather than a failure.
type BookInfo struct {
	BookID     string `json:"book_id"`
	Title      string `json:"title"`
	AuthorID   string `json:"author_id,omitempty"`
	AuthorName string `json:"author_name,omitempty"`
}

// CrawlRecord is the per-book metadata snapshot flushed at the end of a walk.
// It is overwrite-safe: rerunning a crawl rewrites the record in place.
type CrawlRecord struct {
	BookID         string      `json:"book_id"`
	Title          string      `json:"title"`
	AuthorID       string      `json:"author_id,omitempty"`
	AuthorName     string      `json:"author_name,omitempty"`
	CrawlTimestamp time.Time   `json:"crawl_timestamp"`
	Status         CrawlStatus `json:"status"`
	TotalPages     int         `json:"total_pages"`
	Errors         []string    `json:"errors"`
}
