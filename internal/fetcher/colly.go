package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// httpGetter issues a single GET and reports the raw outcome. A non-nil
// error with status zero means the request never produced an HTTP response.
type httpGetter interface {
	Get(ctx context.Context, url string) (status int, body []byte, err error)
}

// collyGetter implements httpGetter using the Colly collector.
type collyGetter struct {
	userAgent     string
	timeout       time.Duration
	baseCollector *colly.Collector
}

func newCollyGetter(userAgent string, timeout time.Duration) *collyGetter {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	return &collyGetter{
		userAgent:     userAgent,
		timeout:       timeout,
		baseCollector: c,
	}
}

// Get executes one HTTP GET. Every received response is reported with its
// status code; the error is reserved for transport-level failures.
func (g *collyGetter) Get(ctx context.Context, url string) (int, []byte, error) {
	// Clone per request: collectors track visited URLs, and rewalking a
	// book legitimately revisits addresses.
	collector := g.baseCollector.Clone()
	if g.userAgent != "" {
		collector.UserAgent = g.userAgent
	}
	timeout := g.timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		status   int
		body     []byte
		visitErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		visitErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return 0, nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if status > 0 {
			// An HTTP response arrived; colly reports non-2xx codes as
			// errors but the status is what the caller classifies on.
			return status, body, nil
		}
		if visitErr != nil {
			return 0, nil, fmt.Errorf("visit %s: %w", url, visitErr)
		}
		if err != nil {
			return 0, nil, fmt.Errorf("visit %s: %w", url, err)
		}
		return status, body, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
