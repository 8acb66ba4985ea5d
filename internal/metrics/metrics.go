// Package metrics exposes Prometheus collectors for the scout pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	listingsScrapedTotal    *prometheus.CounterVec
	scrapeTaskFailuresTotal *prometheus.CounterVec
	rankRunsTotal           *prometheus.CounterVec
	telegramSendsTotal      *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call multiple
// times; every observe helper calls it, so tests need no setup.
func Init() {
	once.Do(func() {
		listingsScrapedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_listings_scraped_total",
				Help: "Unique listings collected, labeled by source and category.",
			},
			[]string{"source", "category"},
		)

		scrapeTaskFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_scrape_task_failures_total",
				Help: "Scrape tasks that failed and contributed no listings, labeled by source.",
			},
			[]string{"source"},
		)

		rankRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_rank_runs_total",
				Help: "Ranking attempts, labeled by strategy and outcome.",
			},
			[]string{"strategy", "outcome"},
		)

		telegramSendsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_telegram_sends_total",
				Help: "Telegram message sends, labeled by outcome.",
			},
			[]string{"outcome"},
		)
	})
}

// ObserveListingScraped counts one unique collected listing.
func ObserveListingScraped(source, category string) {
	Init()
	listingsScrapedTotal.WithLabelValues(source, category).Inc()
}

// ObserveScrapeTaskFailure counts one failed scrape task.
func ObserveScrapeTaskFailure(source string) {
	Init()
	scrapeTaskFailuresTotal.WithLabelValues(source).Inc()
}

// ObserveRankRun counts one ranking attempt by strategy and outcome.
func ObserveRankRun(strategy, outcome string) {
	Init()
	rankRunsTotal.WithLabelValues(strategy, outcome).Inc()
}

// ObserveTelegramSend counts one message send by outcome.
func ObserveTelegramSend(outcome string) {
	Init()
	telegramSendsTotal.WithLabelValues(outcome).Inc()
}
