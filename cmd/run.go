package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/api"
	"github.com/Morningbriefrezi/New-Products-Bot/internal/config"
	"github.com/Morningbriefrezi/New-Products-Bot/internal/logging"
	"github.com/Morningbriefrezi/New-Products-Bot/internal/metrics"
	"github.com/Morningbriefrezi/New-Products-Bot/internal/notify"
	"github.com/Morningbriefrezi/New-Products-Bot/internal/rank"
	"github.com/Morningbriefrezi/New-Products-Bot/internal/report"
	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
	"github.com/Morningbriefrezi/New-Products-Bot/internal/scrape"
)

// newRunCmd creates the 'run' subcommand: one scrape → rank → notify session.
func newRunCmd() *cobra.Command {
	var (
		count        int
		sessionLabel string
		scrapeOnly   bool
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs one scrape, rank, and digest-delivery session",
		Long: `Scrapes the configured marketplaces, ranks the collected listings by
resale potential, prints and persists the results, and delivers a Telegram
digest if credentials are configured.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if count > 0 {
				cfg.Scout.ProductCount = count
			}
			if sessionLabel != "" {
				cfg.Scout.SessionLabel = sessionLabel
			}
			return runSession(cmd.Context(), cfg, scrapeOnly, dryRun)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "number of products to deliver (overrides config)")
	cmd.Flags().StringVar(&sessionLabel, "session-label", "", "label for this session, e.g. Morning")
	cmd.Flags().BoolVar(&scrapeOnly, "scrape-only", false, "scrape and persist raw results, skip ranking and delivery")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "scrape and rank but skip digest delivery")

	return cmd
}

func runSession(ctx context.Context, cfg config.Config, scrapeOnly, dryRun bool) error {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger = logger.With(zap.String("run_id", uuid.NewString()))
	metrics.Init()

	if cfg.Metrics.Port > 0 {
		srv := api.NewServer(logger)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Metrics.Port); err != nil {
				logger.Warn("debug listener stopped", zap.Error(err))
			}
		}()
	}

	notifier := buildNotifier(cfg, logger)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	jitterMin, jitterMax := cfg.JitterBounds()
	orch := scrape.NewOrchestrator(
		scrape.Config{
			KeywordsPerCategory: cfg.Scrape.KeywordsPerCategory,
			JitterMin:           jitterMin,
			JitterMax:           jitterMax,
			AlibabaMaxItems:     cfg.Scrape.AlibabaMaxItems,
			DHgateMaxItems:      cfg.Scrape.DHgateMaxItems,
		},
		scrape.NewCollyFetcher(cfg.ScrapeTimeout(), logger),
		rng,
		logger,
	)

	logger.Info("scraping suppliers", zap.Int("top_n", cfg.Scout.ProductCount))
	listings, err := orch.ScrapeAll(ctx, cfg.Scrape.Categories)
	if err != nil {
		if notifier != nil {
			notifier.SendErrorAlert(ctx, fmt.Sprintf("Scraping failed: %v", err))
		}
		return fmt.Errorf("scrape: %w", err)
	}
	logger.Info("scrape finished", zap.Int("listings", len(listings)))

	if len(listings) == 0 {
		logger.Warn("no listings found this session")
		if notifier != nil {
			notifier.SendErrorAlert(ctx, "No products found this session.")
		}
		return nil
	}

	writer, err := report.NewWriter(cfg.Scout.OutputDir, logger)
	if err != nil {
		return fmt.Errorf("init output dir: %w", err)
	}

	if scrapeOnly {
		preview := listings
		if len(preview) > 20 {
			preview = preview[:20]
		}
		report.PrintListings(preview)
		if _, err := writer.SaveRaw(listings); err != nil {
			return fmt.Errorf("save raw results: %w", err)
		}
		return nil
	}

	top := rankListings(ctx, cfg, listings, logger)

	report.PrintRanked(top)
	if _, err := writer.SaveRanked(top); err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	if dryRun {
		logger.Info("dry run, skipping digest delivery")
		return nil
	}
	if notifier == nil {
		logger.Warn("telegram credentials not set, skipping digest delivery")
		return nil
	}

	if notifier.SendDigest(ctx, top, cfg.Scout.SessionLabel) {
		logger.Info("digest delivered")
	} else {
		logger.Error("digest delivery failed")
	}
	return nil
}

// rankListings prefers the AI strategy when a credential is configured; any
// AI failure or empty result falls back to the deterministic heuristic.
func rankListings(ctx context.Context, cfg config.Config, listings []scout.Listing, logger *zap.Logger) []scout.RankedListing {
	topN := cfg.Scout.ProductCount

	if cfg.OpenAI.APIKey == "" {
		logger.Warn("no ranking credential configured, using fallback ranking")
		metrics.ObserveRankRun("fallback", "ok")
		return rank.Fallback(listings, topN)
	}

	ranker := rank.NewAIRanker(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAITimeout(), logger)
	ranked, err := ranker.Rank(ctx, listings, topN)
	switch {
	case err != nil:
		logger.Warn("ai ranking failed, using fallback", zap.Error(err))
		metrics.ObserveRankRun("ai", "error")
	case len(ranked) == 0:
		logger.Warn("ai ranking returned nothing, using fallback")
		metrics.ObserveRankRun("ai", "empty")
	default:
		metrics.ObserveRankRun("ai", "ok")
		return ranked
	}

	metrics.ObserveRankRun("fallback", "ok")
	return rank.Fallback(listings, topN)
}

func buildNotifier(cfg config.Config, logger *zap.Logger) *notify.Notifier {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
		return nil
	}
	return notify.New(cfg.Telegram.BaseURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.TelegramTimeout(), logger)
}
