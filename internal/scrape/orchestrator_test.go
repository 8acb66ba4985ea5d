package scrape

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

type stubFetcher struct {
	mu      sync.Mutex
	urls    []string
	failFor string
}

func (s *stubFetcher) Fetch(ctx context.Context, rawURL string, headers http.Header) ([]byte, error) {
	s.mu.Lock()
	s.urls = append(s.urls, rawURL)
	s.mu.Unlock()
	if s.failFor != "" && strings.Contains(rawURL, s.failFor) {
		return nil, errors.New("boom")
	}
	return []byte(rawURL), nil
}

func (s *stubFetcher) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

// stubExtractor emits one listing per page whose link is derived from the
// fetched body, letting tests steer link collisions through the URL.
type stubExtractor struct {
	source scout.Source
	// fixedLink, when set, overrides the body-derived link.
	fixedLink string
}

func (s *stubExtractor) Extract(body []byte, category string, maxItems int) []scout.Listing {
	link := string(body)
	if s.fixedLink != "" {
		link = s.fixedLink
	}
	return []scout.Listing{{
		Name:     string(s.source) + " item",
		Price:    "$1.00",
		Link:     link,
		Source:   s.source,
		Category: category,
	}}
}

func stubSite(name scout.Source, extractor Extractor) Site {
	return Site{
		Name:      name,
		Extractor: extractor,
		SearchURL: func(keyword string) string {
			return "https://" + strings.ToLower(string(name)) + ".test/search?q=" + keyword
		},
		MaxItems: 5,
	}
}

func newTestOrchestrator(cfg Config, fetcher Fetcher) *Orchestrator {
	return NewOrchestrator(cfg, fetcher, rand.New(rand.NewSource(7)), zap.NewNop())
}

func TestScrapeAllFansOutAndDeduplicates(t *testing.T) {
	fetcher := &stubFetcher{}
	cfg := Config{
		KeywordsPerCategory: 2,
		Sites: []Site{
			stubSite(scout.SourceAlibaba, &stubExtractor{source: scout.SourceAlibaba, fixedLink: "https://shared.test/item"}),
			stubSite(scout.SourceDHgate, &stubExtractor{source: scout.SourceDHgate, fixedLink: "https://shared.test/item"}),
		},
	}
	o := newTestOrchestrator(cfg, fetcher)

	listings, err := o.ScrapeAll(context.Background(), map[string][]string{
		"gadgets": {"a", "b", "c"},
	})
	require.NoError(t, err)

	// 2 keywords x 2 sites = 4 fetches, all to distinct URLs.
	calls := fetcher.calls()
	require.Len(t, calls, 4)
	seen := map[string]bool{}
	for _, u := range calls {
		require.False(t, seen[u], "duplicate fetch of %s", u)
		seen[u] = true
	}

	// Every task returned the same link, so dedup leaves one listing.
	require.Len(t, listings, 1)
	require.Equal(t, "https://shared.test/item", listings[0].Link)
}

func TestScrapeAllToleratesFailingSite(t *testing.T) {
	fetcher := &stubFetcher{failFor: "alibaba.test"}
	cfg := Config{
		KeywordsPerCategory: 1,
		Sites: []Site{
			stubSite(scout.SourceAlibaba, &stubExtractor{source: scout.SourceAlibaba}),
			stubSite(scout.SourceDHgate, &stubExtractor{source: scout.SourceDHgate}),
		},
	}
	o := newTestOrchestrator(cfg, fetcher)

	listings, err := o.ScrapeAll(context.Background(), map[string][]string{
		"gadgets": {"widget"},
	})
	require.NoError(t, err, "a failed site must not abort the run")
	require.Len(t, listings, 1)
	require.Equal(t, scout.SourceDHgate, listings[0].Source)
}

func TestScrapeAllErrorsWithoutTasks(t *testing.T) {
	o := newTestOrchestrator(Config{KeywordsPerCategory: 2}, &stubFetcher{})

	_, err := o.ScrapeAll(context.Background(), map[string][]string{})
	require.Error(t, err)

	_, err = o.ScrapeAll(context.Background(), map[string][]string{"empty": {}})
	require.Error(t, err)
}

func TestSampleKeywordsBounds(t *testing.T) {
	o := newTestOrchestrator(Config{KeywordsPerCategory: 2}, &stubFetcher{})

	sampled := o.sampleKeywords([]string{"a", "b", "c", "d"})
	require.Len(t, sampled, 2)

	// Fewer keywords than the cap: all of them are used.
	sampled = o.sampleKeywords([]string{"only"})
	require.Equal(t, []string{"only"}, sampled)
}
