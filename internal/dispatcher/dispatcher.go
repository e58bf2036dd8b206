// Package dispatcher fans a batch of book jobs out to a fixed pool of
// crawl workers and aggregates their results into a run summary.
package dispatcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/maktaba/bookcrawler/internal/crawler"
	"github.com/maktaba/bookcrawler/internal/progress"
	"github.com/maktaba/bookcrawler/internal/queue/memory"
	"github.com/maktaba/bookcrawler/internal/worker"
)

// progressLogEvery controls how often the dispatcher reports aggregate
// progress while books finish.
const progressLogEvery = 20

// Summary is the aggregate outcome of a dispatch run.
type Summary struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Failed       int `json:"failed"`
	PagesFetched int `json:"pages_fetched"`
	PagesSkipped int `json:"pages_skipped"`
}

// WorkerFactory builds the worker that will own the given pool slot.
type WorkerFactory func(id int) *worker.Worker

// Dispatcher runs a batch of book jobs through a worker pool.
type Dispatcher struct {
	workers   int
	newWorker WorkerFactory
	tracker   *progress.Tracker
	logger    *zap.Logger
}

// New builds a dispatcher with the given pool size. The factory is invoked
// once per pool slot before any job is dequeued.
func New(workers int, factory WorkerFactory, tracker *progress.Tracker, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		workers:   workers,
		newWorker: factory,
		tracker:   tracker,
		logger:    logger,
	}
}

// Run enqueues every job, starts the pool, and blocks until all jobs have
// been crawled or ctx is canceled. Books interrupted by cancellation flush
// an in_progress record and count as failed in the summary.
func (d *Dispatcher) Run(ctx context.Context, jobs []crawler.BookJob) Summary {
	queue := memory.NewQueue(len(jobs))
	for _, job := range jobs {
		if err := queue.Enqueue(ctx, job); err != nil {
			break
		}
	}
	// Workers drain what was enqueued and then see ErrClosed.
	queue.Close()

	results := make(chan worker.Result, len(jobs))
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		w := d.newWorker(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx, queue, results)
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	return d.collect(ctx, len(jobs), results)
}

func (d *Dispatcher) collect(ctx context.Context, total int, results <-chan worker.Result) Summary {
	summary := Summary{Total: total}
	finished := 0
	for result := range results {
		finished++
		summary.PagesFetched += result.Fetched
		summary.PagesSkipped += result.Skipped
		if result.Record.Status == crawler.StatusComplete {
			summary.Completed++
			if d.tracker != nil {
				d.tracker.BookCompleted()
			}
		} else {
			summary.Failed++
			if d.tracker != nil {
				d.tracker.BookFailed()
			}
		}
		if d.tracker != nil {
			d.tracker.AddPages(result.Fetched, result.Skipped)
		}
		if finished%progressLogEvery == 0 || finished == total {
			d.logger.Info("batch progress",
				zap.Int("finished", finished),
				zap.Int("total", total),
				zap.Int("completed", summary.Completed),
				zap.Int("failed", summary.Failed),
			)
		}
	}
	if err := ctx.Err(); err != nil {
		d.logger.Warn("run interrupted", zap.Error(err), zap.Int("finished", finished))
	}
	return summary
}
