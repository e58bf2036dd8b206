// Package fetcher implements the rate-limited, retrying HTTP fetcher.
package fetcher

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/maktaba/bookcrawler/internal/crawler"
	"github.com/maktaba/bookcrawler/internal/metrics"
)

// Waiter blocks until the actor's next request slot is available.
type Waiter interface {
	Wait(ctx context.Context, actor string) error
}

// Config controls retry and backoff behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Fetcher implements crawler.Fetcher: one GET at a time per actor, a minimum
// delay between an actor's requests, and bounded exponential backoff on
// transient failures. 4xx responses other than an expected 404 are terminal.
type Fetcher struct {
	get     httpGetter
	limiter Waiter
	cfg     Config
	logger  *zap.Logger
}

// New builds a Fetcher backed by a Colly collector.
func New(cfg Config, limiter Waiter, logger *zap.Logger) *Fetcher {
	return newWithGetter(newCollyGetter(cfg.UserAgent, cfg.Timeout), cfg, limiter, logger)
}

func newWithGetter(get httpGetter, cfg Config, limiter Waiter, logger *zap.Logger) *Fetcher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		get:     get,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	}
}

// Backoff returns the wait before attempt+1: min(base * 2^attempt, max).
func (f *Fetcher) Backoff(attempt int) time.Duration {
	d := f.cfg.BackoffBase
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= f.cfg.BackoffMax {
			return f.cfg.BackoffMax
		}
	}
	if d > f.cfg.BackoffMax {
		return f.cfg.BackoffMax
	}
	return d
}

// Fetch issues the request, retrying transient failures. The returned error
// is non-nil only for context cancellation; every remote-side outcome is
// expressed through FetchResult.Kind.
func (f *Fetcher) Fetch(ctx context.Context, req crawler.FetchRequest) (crawler.FetchResult, error) {
	start := time.Now()
	result := crawler.FetchResult{}

	for attempt := 0; attempt < f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := f.Backoff(attempt - 1)
			f.logger.Warn("retrying fetch",
				zap.String("url", req.URL),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", f.cfg.MaxRetries),
				zap.Duration("backoff", wait),
			)
			metrics.CountRetry()
			if err := sleep(ctx, wait); err != nil {
				return result, err
			}
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, req.Actor); err != nil {
				return result, err
			}
		}

		status, body, err := f.get.Get(ctx, req.URL)
		result.Attempts = attempt + 1
		result.StatusCode = status
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		kind, retryable := classify(status, err, req.Expect404)
		result.Kind = kind
		if kind == crawler.FetchOK {
			result.Body = body
			break
		}
		result.Body = nil
		if !retryable {
			break
		}
		f.logger.Debug("transient fetch failure",
			zap.String("url", req.URL),
			zap.Int("status", status),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
	}

	metrics.CountFetch(result.Kind.String(), time.Since(start))
	return result, nil
}

// classify maps one raw attempt outcome to a fetch kind plus retryability.
func classify(status int, err error, expect404 bool) (crawler.FetchKind, bool) {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return crawler.FetchTimeout, true
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return crawler.FetchTimeout, true
		}
		return crawler.FetchConnError, true
	}
	switch {
	case status >= 500:
		return crawler.FetchServerError, true
	case status == 404 && expect404:
		return crawler.FetchNotFound, false
	case status >= 400:
		return crawler.FetchClientError, false
	case status == 0:
		// No status and no error means the transport never produced a
		// response; treat it like a dropped connection.
		return crawler.FetchConnError, true
	default:
		return crawler.FetchOK, false
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
