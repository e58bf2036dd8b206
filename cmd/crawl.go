package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/maktaba/bookcrawler/internal/api"
	"github.com/maktaba/bookcrawler/internal/catalog"
	"github.com/maktaba/bookcrawler/internal/clock/system"
	"github.com/maktaba/bookcrawler/internal/config"
	"github.com/maktaba/bookcrawler/internal/crawler"
	"github.com/maktaba/bookcrawler/internal/dispatcher"
	"github.com/maktaba/bookcrawler/internal/fetcher"
	"github.com/maktaba/bookcrawler/internal/id/uuid"
	"github.com/maktaba/bookcrawler/internal/logging"
	"github.com/maktaba/bookcrawler/internal/metrics"
	"github.com/maktaba/bookcrawler/internal/policy/ratelimit"
	"github.com/maktaba/bookcrawler/internal/progress"
	"github.com/maktaba/bookcrawler/internal/storage/local"
	"github.com/maktaba/bookcrawler/internal/walker"
	"github.com/maktaba/bookcrawler/internal/worker"
)

// runSummary is the JSON payload persisted at the end of a crawl run.
type runSummary struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Site       string             `json:"site"`
	Books      dispatcher.Summary `json:"books"`
}

func newCrawlCmd() *cobra.Command {
	var booksFile string

	cmd := &cobra.Command{
		Use:   "crawl [book-id...]",
		Short: "Crawl a batch of books",
		Long: `Crawls every listed book, walking its section chain page by page.
Book IDs come either from positional arguments or from a list file
(--books) holding one ID per line or a JSON array of IDs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd.Context(), booksFile, args)
		},
	}

	cmd.Flags().StringVar(&booksFile, "books", "", "path to a book ID list file")

	return cmd
}

func runCrawl(parent context.Context, booksFile string, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)

	jobs, err := resolveJobs(booksFile, args)
	if err != nil {
		return err
	}

	// Collectors must exist before the first fetch or the counters are
	// silently dropped.
	metrics.Init()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	site, err := crawler.NewSite(cfg.Site.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base URL: %w", err)
	}
	store, err := local.New(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	cat, err := catalog.Load(cfg.Catalog.Dir, logger.Named("catalog"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	limiter := ratelimit.New(cfg.Delay())
	fetch := fetcher.New(fetcher.Config{
		UserAgent:   cfg.HTTP.UserAgent,
		Timeout:     cfg.HTTPTimeout(),
		MaxRetries:  cfg.HTTP.MaxRetries,
		BackoffBase: cfg.BackoffInitial(),
		BackoffMax:  cfg.BackoffMax(),
	}, limiter, logger.Named("fetcher"))

	clk := system.New()
	tracker := progress.NewTracker(len(jobs), clk.Now())

	walkCfg := walker.Config{
		MinBodyBytes:           cfg.Crawler.MinBodyBytes,
		MaxConsecutiveFailures: cfg.Crawler.MaxConsecutiveFailures,
	}
	factory := func(id int) *worker.Worker {
		name := fmt.Sprintf("worker-%d", id)
		walk := walker.New(site, fetch, store, walkCfg, logger.Named("walker").With(zap.String("worker", name)))
		return worker.New(name, walk, store, cat, clk, logger)
	}
	pool := dispatcher.New(cfg.Crawler.Workers, factory, tracker, logger.Named("pool"))

	// The status server lives only as long as the crawl itself.
	srvCtx, stopSrv := context.WithCancel(ctx)
	defer stopSrv()
	g, srvCtx := errgroup.WithContext(srvCtx)
	if cfg.Status.Enabled {
		statusSrv := api.NewServer(cfg.Status.Addr, tracker, logger.Named("api"))
		g.Go(func() error { return statusSrv.Run(srvCtx) })
	}

	startedAt := clk.Now()
	logger.Info("crawl starting",
		zap.String("site", cfg.Site.BaseURL),
		zap.Int("books", len(jobs)),
		zap.Int("workers", cfg.Crawler.Workers),
	)

	summary := pool.Run(ctx, jobs)

	stopSrv()
	if err := g.Wait(); err != nil {
		logger.Warn("status server exited with error", zap.Error(err))
	}

	runID, err := uuid.New().NewID()
	if err != nil {
		return fmt.Errorf("generate run ID: %w", err)
	}
	if err := store.SaveRunSummary(runID, runSummary{
		RunID:      runID,
		StartedAt:  startedAt,
		FinishedAt: clk.Now(),
		Site:       cfg.Site.BaseURL,
		Books:      summary,
	}); err != nil {
		logger.Error("persist run summary failed", zap.Error(err))
	}

	logger.Info("crawl finished",
		zap.String("run_id", runID),
		zap.Int("total", summary.Total),
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int("pages_fetched", summary.PagesFetched),
		zap.Int("pages_skipped", summary.PagesSkipped),
	)
	if ctx.Err() != nil {
		return fmt.Errorf("crawl interrupted: %w", ctx.Err())
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d books did not complete", summary.Failed, summary.Total)
	}
	return nil
}

// resolveJobs merges positional IDs with the optional list file. Positional
// IDs run first.
func resolveJobs(booksFile string, args []string) ([]crawler.BookJob, error) {
	var jobs []crawler.BookJob
	seen := make(map[string]bool)
	for _, id := range args {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		jobs = append(jobs, crawler.BookJob{BookID: id})
	}
	if booksFile != "" {
		fromFile, err := catalog.LoadBookList(booksFile)
		if err != nil {
			return nil, err
		}
		for _, job := range fromFile {
			if seen[job.BookID] {
				continue
			}
			seen[job.BookID] = true
			jobs = append(jobs, job)
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no books to crawl: pass book IDs or --books")
	}
	return jobs, nil
}
