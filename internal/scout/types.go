// Package scout defines the data model shared across the scrape, rank, and
// notify stages of the pipeline.
package scout

// Source identifies the marketplace a listing was scraped from.
type Source string

// Supported marketplaces.
const (
	SourceAlibaba Source = "Alibaba"
	SourceDHgate  Source = "DHgate"
)

// PriceUnknown is the sentinel price used when a card exposes no price text.
const PriceUnknown = "See listing"

// Listing is one scraped product record before ranking. The JSON tags are part
// of the wire contract: the ranking service receives listings serialized with
// these names and is expected to echo them back unchanged.
type Listing struct {
	Name            string `json:"name"`
	Price           string `json:"price"`
	Link            string `json:"link"`
	Source          Source `json:"source"`
	Category        string `json:"category"`
	ImageURL        string `json:"image_url"`
	MinOrder        string `json:"min_order"`
	OrdersOrReviews string `json:"orders_or_reviews"`
	Supplier        string `json:"supplier"`
}

// RankedListing is a Listing augmented with a viability score (1-100) and a
// one-line rationale. A listing the ranking service returned without a score
// carries the zero value and therefore sorts last.
type RankedListing struct {
	Listing
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Dedup drops listings whose link was already seen, preserving first-seen
// order. The link is the canonical identity of a listing.
func Dedup(listings []Listing) []Listing {
	seen := make(map[string]struct{}, len(listings))
	unique := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if _, ok := seen[l.Link]; ok {
			continue
		}
		seen[l.Link] = struct{}{}
		unique = append(unique, l)
	}
	return unique
}

// TruncateName caps s at limit runes.
func TruncateName(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
