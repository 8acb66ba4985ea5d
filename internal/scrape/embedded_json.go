package scrape

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

// Some marketplaces ship search results as inline script payloads instead of
// markup. These patterns pick out the known JSON-bearing blobs.
var embeddedJSONPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)window\.__INIT_DATA__\s*=\s*(\{.+?\});`),
	regexp.MustCompile(`(?s)"offerList"\s*:\s*(\[.+?\])`),
	regexp.MustCompile(`(?s)"itemList"\s*:\s*(\[.+?\])`),
}

// Keys checked, in order, when a decoded blob is an object rather than an
// item array.
var embeddedListKeys = []string{"offerList", "itemList", "data", "result"}

// extractEmbeddedListings scans raw page text for known JSON payloads and
// decodes item fields positionally. Malformed blobs are skipped.
func extractEmbeddedListings(html, category string, maxItems int, origin string, source scout.Source) []scout.Listing {
	var listings []scout.Listing
	for _, pattern := range embeddedJSONPatterns {
		match := pattern.FindStringSubmatch(html)
		if match == nil {
			continue
		}
		count := 0
		for _, item := range decodeItemArray([]byte(match[1])) {
			if count >= maxItems {
				break
			}
			count++
			if l, ok := listingFromItem(item, category, origin, source); ok {
				listings = append(listings, l)
			}
		}
	}
	if len(listings) > maxItems {
		listings = listings[:maxItems]
	}
	return listings
}

// decodeItemArray accepts either a bare item array or an object holding one
// under a known key.
func decodeItemArray(raw []byte) []map[string]any {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	switch v := decoded.(type) {
	case []any:
		return objectsOnly(v)
	case map[string]any:
		for _, key := range embeddedListKeys {
			if nested, ok := v[key].([]any); ok {
				return objectsOnly(nested)
			}
		}
	}
	return nil
}

func objectsOnly(items []any) []map[string]any {
	objects := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			objects = append(objects, obj)
		}
	}
	return objects
}

func listingFromItem(item map[string]any, category, origin string, source scout.Source) (scout.Listing, bool) {
	name := scout.TruncateName(firstString(item, "title", "name", "subject"), 120)
	link := absolutizeLink(firstString(item, "detailUrl", "href", "productUrl"), origin)
	if name == "" || link == "" {
		return scout.Listing{}, false
	}
	return scout.Listing{
		Name:     name,
		Price:    priceText(item),
		Link:     link,
		Source:   source,
		Category: category,
		ImageURL: firstString(item, "image", "imgUrl"),
	}, true
}

// firstString returns the first key present with a string value.
func firstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := item[key].(string); ok {
			return s
		}
	}
	return ""
}

// priceText reads "price" or "priceStr", unwrapping nested price objects
// ({priceStr: ...} or {min: ...}) and stringifying numeric values.
func priceText(item map[string]any) string {
	raw, ok := item["price"]
	if !ok {
		raw, ok = item["priceStr"]
	}
	if !ok || raw == nil {
		return scout.PriceUnknown
	}
	switch v := raw.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["priceStr"].(string); ok && s != "" {
			return s
		}
		if minVal, ok := v["min"]; ok {
			return fmt.Sprint(minVal)
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}
