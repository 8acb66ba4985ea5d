package rank

import (
	"sort"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

// FallbackReason marks results produced by the heuristic strategy.
const FallbackReason = "Auto-scored (no AI)"

// Fallback scores listings deterministically when the AI path is unavailable
// or fails. Scoring rewards data richness; selection is greedy in sorted
// order with a per-category admission cap to keep the digest diverse.
func Fallback(listings []scout.Listing, topN int) []scout.RankedListing {
	if len(listings) == 0 {
		return nil
	}

	categories := make(map[string]struct{})
	scored := make([]scout.RankedListing, 0, len(listings))
	for _, l := range listings {
		categories[l.Category] = struct{}{}
		scored = append(scored, scout.RankedListing{
			Listing: l,
			Score:   heuristicScore(l),
			Reason:  FallbackReason,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	maxPerCategory := topN/len(categories) + 1
	if maxPerCategory < 1 {
		maxPerCategory = 1
	}

	perCategory := make(map[string]int)
	diverse := make([]scout.RankedListing, 0, topN)
	for _, item := range scored {
		if perCategory[item.Category] < maxPerCategory {
			diverse = append(diverse, item)
			perCategory[item.Category]++
		}
		if len(diverse) >= topN {
			break
		}
	}
	return diverse
}

func heuristicScore(l scout.Listing) int {
	score := 50
	if l.Price != "" && l.Price != scout.PriceUnknown {
		score += 15
	}
	if l.OrdersOrReviews != "" {
		score += 20
	}
	if l.ImageURL != "" {
		score += 5
	}
	if l.MinOrder != "" {
		score += 5
	}
	if l.Supplier != "" {
		score += 5
	}
	return score
}
