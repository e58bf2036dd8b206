// Package worker implements the per-book crawl coordinator.
package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/maktaba/bookcrawler/internal/catalog"
	"github.com/maktaba/bookcrawler/internal/crawler"
	"github.com/maktaba/bookcrawler/internal/metrics"
	"github.com/maktaba/bookcrawler/internal/queue/memory"
	"github.com/maktaba/bookcrawler/internal/walker"
)

// Walker runs the page sequence for one book.
type Walker interface {
	Walk(ctx context.Context, actor, bookID string) walker.Outcome
}

// Result pairs the persisted record with pool-level accounting detail.
type Result struct {
	Record  crawler.CrawlRecord
	Fetched int
	Skipped int
}

// Worker consumes book jobs and crawls each book end to end. One worker
// processes one book at a time; pages within a book are strictly sequential.
type Worker struct {
	id      string
	walker  Walker
	store   crawler.PageStore
	catalog crawler.Catalog
	clock   crawler.Clock
	logger  *zap.Logger
}

// New constructs a Worker. The id keys the politeness limiter, so it must be
// unique within the pool.
func New(
	id string,
	walk Walker,
	store crawler.PageStore,
	cat crawler.Catalog,
	clock crawler.Clock,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		id:      id,
		walker:  walk,
		store:   store,
		catalog: cat,
		clock:   clock,
		logger:  logger.With(zap.String("worker", id)),
	}
}

// Run consumes jobs until the queue is drained or the context ends.
func (w *Worker) Run(ctx context.Context, queue crawler.Queue, results chan<- Result) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, memory.ErrClosed) || ctx.Err() != nil {
				return
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		result := w.CrawlBook(ctx, job)
		select {
		case results <- result:
		case <-ctx.Done():
			// The record is already flushed; dropping the in-memory copy
			// loses nothing durable.
			return
		}
	}
}

// CrawlBook crawls one book and always flushes a crawl record, whatever
// happens during the walk. A failure here never propagates to the pool.
func (w *Worker) CrawlBook(ctx context.Context, job crawler.BookJob) (result Result) {
	info := w.resolveInfo(job)
	record := &result.Record
	*record = crawler.CrawlRecord{
		BookID:         job.BookID,
		Title:          info.Title,
		AuthorID:       info.AuthorID,
		AuthorName:     info.AuthorName,
		CrawlTimestamp: w.clock.Now(),
		Status:         crawler.StatusInProgress,
		Errors:         []string{},
	}

	metrics.WorkerStarted()
	defer metrics.WorkerDone()
	defer func() {
		if r := recover(); r != nil {
			record.Status = crawler.StatusFailed
			record.Errors = append(record.Errors, fmt.Sprintf("unexpected failure: %v", r))
			w.logger.Error("crawl panicked",
				zap.String("book_id", job.BookID),
				zap.Any("panic", r),
			)
		}
		if err := w.store.SaveRecord(job.BookID, *record); err != nil {
			w.logger.Error("save crawl record failed",
				zap.String("book_id", job.BookID),
				zap.Error(err),
			)
		}
		metrics.CountBook(string(record.Status))
	}()

	w.logger.Info("starting crawl",
		zap.String("book_id", job.BookID),
		zap.String("title", record.Title),
	)

	out := w.walker.Walk(ctx, w.id, job.BookID)
	record.TotalPages = out.Pages
	record.Errors = append(record.Errors, out.Errors...)
	result.Fetched = out.Pages - out.Skipped
	result.Skipped = out.Skipped

	switch {
	case out.Err == nil:
		record.Status = crawler.StatusComplete
		w.logger.Info("crawl complete",
			zap.String("book_id", job.BookID),
			zap.Int("total_pages", out.Pages),
			zap.Int("skipped", out.Skipped),
			zap.Int("errors", len(out.Errors)),
		)
	case errors.Is(out.Err, context.Canceled) || errors.Is(out.Err, context.DeadlineExceeded):
		// Interrupted: persisted pages stay valid resume points, and the
		// in_progress record reflects exactly that.
		record.Status = crawler.StatusInProgress
		w.logger.Warn("crawl interrupted",
			zap.String("book_id", job.BookID),
			zap.Int("pages_so_far", out.Pages),
		)
	case errors.Is(out.Err, walker.ErrNoEntryPoint):
		record.Status = crawler.StatusFailed
		w.logger.Warn("no entry point for book", zap.String("book_id", job.BookID))
	default:
		record.Status = crawler.StatusFailed
		record.Errors = append(record.Errors, out.Err.Error())
		w.logger.Error("crawl failed",
			zap.String("book_id", job.BookID),
			zap.Error(out.Err),
		)
	}
	return result
}

// resolveInfo prefers metadata carried by the job itself, then the catalog,
// then a placeholder title. Metadata misses never fail a crawl.
func (w *Worker) resolveInfo(job crawler.BookJob) crawler.BookInfo {
	info := crawler.BookInfo{
		BookID:     job.BookID,
		Title:      job.Title,
		AuthorID:   job.AuthorID,
		AuthorName: job.AuthorName,
	}
	if info.Title != "" {
		return info
	}
	if w.catalog != nil {
		if found, ok := w.catalog.Lookup(job.BookID); ok {
			if info.AuthorID == "" {
				info.AuthorID = found.AuthorID
			}
			if info.AuthorName == "" {
				info.AuthorName = found.AuthorName
			}
			info.Title = found.Title
			if info.Title != "" {
				return info
			}
		}
	}
	info.Title = catalog.Placeholder(job.BookID).Title
	return info
}
