// Package walker discovers and follows a book's page sequence.
//
// A walk starts at section 1 (falling back to the table of contents), then
// follows the in-page "next" control, guessing sequential section numbers
// when the control is absent. Section gaps are expected and tolerated; only
// a run of consecutive failures ends the walk early.
package walker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/maktaba/bookcrawler/internal/crawler"
	"github.com/maktaba/bookcrawler/internal/metrics"
)

// ErrNoEntryPoint means neither section 1 nor the table of contents yielded
// a usable starting page; the book cannot be crawled at all.
var ErrNoEntryPoint = errors.New("no entry point")

const progressLogEvery = 100

// Config tunes walk termination and content validity.
type Config struct {
	// MinBodyBytes is the smallest body considered a real page; shorter
	// responses are treated as absent content.
	MinBodyBytes int
	// MaxConsecutiveFailures is the failure run length that ends a walk.
	MaxConsecutiveFailures int
}

// Walker drives the page sequence for one book at a time. It owns no state
// between walks and is safe for use by a single worker goroutine.
type Walker struct {
	site   *crawler.Site
	fetch  crawler.Fetcher
	store  crawler.PageStore
	cfg    Config
	logger *zap.Logger
}

// Outcome summarizes one finished walk. Err is nil for a normally terminated
// walk (including one stopped by the failure ceiling), ErrNoEntryPoint when
// start discovery failed, or the context error when the walk was canceled.
type Outcome struct {
	// Pages counts every page accounted for, including ones already
	// persisted by an earlier run.
	Pages int
	// Skipped counts the subset of Pages served from the store.
	Skipped int
	Errors  []string
	Err     error
}

// New constructs a Walker.
func New(site *crawler.Site, fetch crawler.Fetcher, store crawler.PageStore, cfg Config, logger *zap.Logger) *Walker {
	if cfg.MinBodyBytes <= 0 {
		cfg.MinBodyBytes = 500
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		site:   site,
		fetch:  fetch,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// candidate is the next page address to attempt.
type candidate struct {
	url     string
	section int
	// res holds an already-fetched body so discovery never fetches the
	// same address twice.
	res *crawler.FetchResult
	// probe marks a sequential existence guess made because no "next"
	// control was found; a miss there means the book is exhausted rather
	// than a failure to tolerate.
	probe bool
}

// Walk runs the full page sequence for one book, persisting each page as it
// is fetched. Pages already in the store are counted without touching the
// network.
func (w *Walker) Walk(ctx context.Context, actor, bookID string) Outcome {
	var out Outcome

	visited := make(map[string]struct{})
	cand, err := w.discoverStart(ctx, actor, bookID, &out)
	if err != nil {
		out.Err = err
		return out
	}

	failures := 0
	for cand != nil {
		if err := ctx.Err(); err != nil {
			out.Err = err
			return out
		}
		if _, seen := visited[cand.url]; seen {
			w.logger.Debug("next address already visited, stopping walk",
				zap.String("book_id", bookID),
				zap.String("url", cand.url),
			)
			break
		}

		// Resume gate: a persisted artifact skips the fetch entirely and
		// leaves the failure counter untouched.
		if cand.res == nil && w.store.Exists(bookID, cand.section) {
			visited[cand.url] = struct{}{}
			out.Pages++
			out.Skipped++
			metrics.CountPage("skipped")
			cand = w.sequential(bookID, cand.section+1, false)
			continue
		}

		res := cand.res
		if res == nil {
			r, err := w.fetch.Fetch(ctx, crawler.FetchRequest{
				Actor:     actor,
				URL:       cand.url,
				Expect404: cand.probe,
			})
			if err != nil {
				out.Err = err
				return out
			}
			res = &r
		}

		if !w.usable(*res) {
			if cand.probe {
				// The sequential guess after a missing "next" control came
				// up empty: no more pages.
				break
			}
			out.Errors = append(out.Errors, fmt.Sprintf("failed to fetch section %d: %s", cand.section, cand.url))
			visited[cand.url] = struct{}{}
			failures++
			w.logger.Debug("section fetch failed, trying next section",
				zap.String("book_id", bookID),
				zap.Int("section", cand.section),
				zap.String("kind", res.Kind.String()),
				zap.Int("consecutive_failures", failures),
			)
			if failures >= w.cfg.MaxConsecutiveFailures {
				w.logger.Warn("stopping walk after consecutive failures",
					zap.String("book_id", bookID),
					zap.Int("failures", failures),
				)
				break
			}
			cand = w.sequential(bookID, cand.section+1, false)
			continue
		}

		failures = 0
		visited[cand.url] = struct{}{}
		if err := w.store.SavePage(bookID, cand.section, res.Body); err != nil {
			out.Err = fmt.Errorf("persist section %d: %w", cand.section, err)
			return out
		}
		out.Pages++
		metrics.CountPage("fetched")
		if out.Pages%progressLogEvery == 0 {
			w.logger.Info("crawl progress",
				zap.String("book_id", bookID),
				zap.Int("pages", out.Pages),
			)
		}

		cand = w.next(bookID, cand.section, res.Body)
	}
	return out
}

// discoverStart finds the first page to attempt. Section 1 is tried first so
// early sections are never missed when the TOC links deeper into the book.
func (w *Walker) discoverStart(ctx context.Context, actor, bookID string, out *Outcome) (*candidate, error) {
	firstURL := w.site.PageURL(bookID, 1)
	if w.store.Exists(bookID, 1) {
		return &candidate{url: firstURL, section: 1}, nil
	}

	res, err := w.fetch.Fetch(ctx, crawler.FetchRequest{Actor: actor, URL: firstURL, Expect404: true})
	if err != nil {
		return nil, err
	}
	if w.usable(res) {
		return &candidate{url: firstURL, section: 1, res: &res}, nil
	}

	tocURL := w.site.TOCURL(bookID)
	tocRes, err := w.fetch.Fetch(ctx, crawler.FetchRequest{Actor: actor, URL: tocURL})
	if err != nil {
		return nil, err
	}
	if !w.usable(tocRes) {
		out.Errors = append(out.Errors, "failed to fetch table of contents and section 1 does not exist")
		return nil, ErrNoEntryPoint
	}

	lowest, ok := LowestSection(tocRes.Body, w.site, bookID)
	if !ok {
		out.Errors = append(out.Errors, "no content links found in table of contents")
		return nil, ErrNoEntryPoint
	}
	w.logger.Debug("starting from table of contents link",
		zap.String("book_id", bookID),
		zap.Int("section", lowest),
	)
	return &candidate{url: w.site.PageURL(bookID, lowest), section: lowest}, nil
}

// next decides the candidate after a successfully fetched page: the explicit
// "next" control when present, else a sequential existence probe.
func (w *Walker) next(bookID string, section int, body []byte) *candidate {
	if nextURL, ok := NextLink(body, w.site); ok {
		if nextSection, ok := w.site.Section(bookID, nextURL); ok {
			return &candidate{url: nextURL, section: nextSection}
		}
		w.logger.Debug("next control points outside the book, probing sequentially",
			zap.String("book_id", bookID),
			zap.String("url", nextURL),
		)
	}
	return w.sequential(bookID, section+1, true)
}

func (w *Walker) sequential(bookID string, section int, probe bool) *candidate {
	return &candidate{
		url:     w.site.PageURL(bookID, section),
		section: section,
		probe:   probe,
	}
}

func (w *Walker) usable(res crawler.FetchResult) bool {
	return res.OK() && len(res.Body) >= w.cfg.MinBodyBytes
}
