package scrape

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/metrics"
	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

// Extractor converts a raw search response into listings.
type Extractor interface {
	Extract(body []byte, category string, maxItems int) []scout.Listing
}

// Site couples a marketplace search endpoint with its extractor and the
// per-keyword listing cap.
type Site struct {
	Name      scout.Source
	Extractor Extractor
	SearchURL func(keyword string) string
	MaxItems  int
}

// Config controls orchestrator fan-out behavior.
type Config struct {
	KeywordsPerCategory int
	JitterMin           time.Duration
	JitterMax           time.Duration
	AlibabaMaxItems     int
	DHgateMaxItems      int
	// Sites overrides the default marketplace set; used by tests.
	Sites []Site
}

// Orchestrator fans extraction tasks out across categories, keywords, and
// marketplaces, merging results and deduplicating by link.
type Orchestrator struct {
	cfg     Config
	fetcher Fetcher
	sites   []Site
	rng     *rand.Rand
	logger  *zap.Logger
}

// NewOrchestrator constructs an Orchestrator. The rng drives keyword
// sampling, submission jitter, and header rotation; inject a seeded source
// for reproducible runs.
func NewOrchestrator(cfg Config, fetcher Fetcher, rng *rand.Rand, logger *zap.Logger) *Orchestrator {
	sites := cfg.Sites
	if sites == nil {
		alibaba := NewAlibabaExtractor(logger)
		dhgate := NewDHgateExtractor(logger)
		sites = []Site{
			{Name: scout.SourceAlibaba, Extractor: alibaba, SearchURL: alibaba.SearchURL, MaxItems: cfg.AlibabaMaxItems},
			{Name: scout.SourceDHgate, Extractor: dhgate, SearchURL: dhgate.SearchURL, MaxItems: cfg.DHgateMaxItems},
		}
	}
	return &Orchestrator{
		cfg:     cfg,
		fetcher: fetcher,
		sites:   sites,
		rng:     rng,
		logger:  logger,
	}
}

type task struct {
	site     Site
	category string
	keyword  string
}

type taskResult struct {
	site     scout.Source
	keyword  string
	listings []scout.Listing
	err      error
}

// ScrapeAll runs the full fan-out for the given category keyword sets. All
// tasks run concurrently; a failed task contributes zero listings. The
// returned slice is deduplicated by link in first-seen order. An error is
// returned only when no tasks could be produced at all.
func (o *Orchestrator) ScrapeAll(ctx context.Context, categories map[string][]string) ([]scout.Listing, error) {
	tasks := o.plan(categories)
	if len(tasks) == 0 {
		return nil, errors.New("no scrape tasks produced")
	}

	results := make(chan taskResult, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		if i > 0 {
			o.pause(ctx, o.jitter())
		}
		headers := browserHeaders(o.rng)
		wg.Add(1)
		go func(t task, h http.Header) {
			defer wg.Done()
			listings, err := o.runTask(ctx, t, h)
			results <- taskResult{site: t.site.Name, keyword: t.keyword, listings: listings, err: err}
		}(t, headers)
	}
	wg.Wait()
	close(results)

	var all []scout.Listing
	for res := range results {
		if res.err != nil {
			o.logger.Warn("scrape task failed",
				zap.String("site", string(res.site)),
				zap.String("keyword", res.keyword),
				zap.Error(res.err),
			)
			metrics.ObserveScrapeTaskFailure(string(res.site))
			continue
		}
		all = append(all, res.listings...)
	}

	unique := scout.Dedup(all)
	for _, l := range unique {
		metrics.ObserveListingScraped(string(l.Source), l.Category)
	}
	o.logger.Info("scrape complete",
		zap.Int("unique_listings", len(unique)),
		zap.Int("categories", len(categories)),
		zap.Int("tasks", len(tasks)),
	)
	return unique, nil
}

// plan samples keywords per category and pairs each with every site. The
// bounded sample keeps request volume polite.
func (o *Orchestrator) plan(categories map[string][]string) []task {
	var tasks []task
	for category, keywords := range categories {
		for _, keyword := range o.sampleKeywords(keywords) {
			for _, site := range o.sites {
				tasks = append(tasks, task{site: site, category: category, keyword: keyword})
			}
		}
	}
	return tasks
}

func (o *Orchestrator) sampleKeywords(keywords []string) []string {
	limit := o.cfg.KeywordsPerCategory
	if limit <= 0 || limit > len(keywords) {
		limit = len(keywords)
	}
	sampled := make([]string, 0, limit)
	for _, idx := range o.rng.Perm(len(keywords))[:limit] {
		sampled = append(sampled, keywords[idx])
	}
	return sampled
}

func (o *Orchestrator) runTask(ctx context.Context, t task, headers http.Header) ([]scout.Listing, error) {
	body, err := o.fetcher.Fetch(ctx, t.site.SearchURL(t.keyword), headers)
	if err != nil {
		return nil, err
	}
	return t.site.Extractor.Extract(body, t.category, t.site.MaxItems), nil
}

func (o *Orchestrator) jitter() time.Duration {
	spread := o.cfg.JitterMax - o.cfg.JitterMin
	if spread <= 0 {
		return o.cfg.JitterMin
	}
	return o.cfg.JitterMin + time.Duration(o.rng.Int63n(int64(spread)))
}

func (o *Orchestrator) pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
