package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Fetcher retrieves the raw body of a search page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, headers http.Header) ([]byte, error)
}

// CollyFetcher implements Fetcher using the Colly collector. One base
// collector owns the shared connection pool; each Fetch call works on a clone
// so concurrent requests do not share callback state.
type CollyFetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewCollyFetcher constructs a configured Colly-based Fetcher.
func NewCollyFetcher(timeout time.Duration, logger *zap.Logger) *CollyFetcher {
	base := colly.NewCollector(colly.Async(true))
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(timeout)

	return &CollyFetcher{
		baseCollector: base,
		logger:        logger,
	}
}

// Fetch retrieves a page, sending the provided headers with the request.
// A non-2xx status is reported as an error.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string, headers http.Header) ([]byte, error) {
	collector := f.baseCollector.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range headers {
			for _, value := range values {
				r.Headers.Set(key, value)
			}
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		send(fetchResult{body: append([]byte{}, r.Body...)})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		if r != nil && r.StatusCode != 0 {
			err = fmt.Errorf("status %d: %w", r.StatusCode, err)
		}
		send(fetchResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", rawURL, err)
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return res.body, res.err
	default:
		return nil, errors.New("fetch produced no result")
	}
}

type fetchResult struct {
	body []byte
	err  error
}
