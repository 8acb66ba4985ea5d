package scrape

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

const (
	alibabaOrigin      = "https://www.alibaba.com"
	alibabaSearchURL   = alibabaOrigin + "/trade/search"
	alibabaDefaultName = "Alibaba Product"
)

// Alibaba rotates its card markup frequently; these are tried in priority
// order and the first selector with any matches wins.
var alibabaCardSelectors = []string{
	"div.organic-list div.fy23-search-card",
	"div.organic-list div.J-offer-wrapper",
	"div[class*='search-card']",
	"div[class*='offer-wrapper']",
	"div.gallery-offer-list div[class*='card']",
}

// AlibabaExtractor converts Alibaba search result pages into listings.
type AlibabaExtractor struct {
	logger *zap.Logger
}

// NewAlibabaExtractor constructs an AlibabaExtractor.
func NewAlibabaExtractor(logger *zap.Logger) *AlibabaExtractor {
	return &AlibabaExtractor{logger: logger}
}

// SearchURL builds the gallery-view, best-seller-sorted search URL for keyword.
func (e *AlibabaExtractor) SearchURL(keyword string) string {
	q := url.Values{}
	q.Set("SearchText", keyword)
	q.Set("viewtype", "G")
	q.Set("sortType", "TRALV")
	return alibabaSearchURL + "?" + q.Encode()
}

// Extract parses a search response body into at most maxItems listings.
// Structural card parsing is tried first, then an anchor sweep, then the
// embedded-JSON scan. Individual malformed cards are skipped, never fatal.
func (e *AlibabaExtractor) Extract(body []byte, category string, maxItems int) []scout.Listing {
	var listings []scout.Listing

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		e.logger.Warn("alibaba document parse failed", zap.Error(err))
	} else {
		listings = e.extractCards(doc, category, maxItems)
	}

	if len(listings) == 0 {
		listings = extractEmbeddedListings(string(body), category, maxItems, alibabaOrigin, scout.SourceAlibaba)
	}

	if len(listings) > maxItems {
		listings = listings[:maxItems]
	}
	return listings
}

func (e *AlibabaExtractor) extractCards(doc *goquery.Document, category string, maxItems int) []scout.Listing {
	var cards *goquery.Selection
	for _, selector := range alibabaCardSelectors {
		if s := doc.Find(selector); s.Length() > 0 {
			cards = s
			break
		}
	}
	if cards == nil {
		return e.extractAnchors(doc, category, maxItems)
	}

	var listings []scout.Listing
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= maxItems {
			return false
		}
		if l, ok := e.parseCard(card, category); ok {
			listings = append(listings, l)
		}
		return true
	})
	return listings
}

func (e *AlibabaExtractor) parseCard(card *goquery.Selection, category string) (scout.Listing, bool) {
	title := card.Find("h2, [class*='title'], [class*='name'], a[title]").First()
	name := strings.TrimSpace(title.AttrOr("title", ""))
	if name == "" {
		name = strings.TrimSpace(title.Text())
	}
	name = scout.TruncateName(name, 120)
	if name == "" {
		name = alibabaDefaultName
	}

	href := strings.TrimSpace(card.Find("a[href*='alibaba.com'], a[href*='/product-detail/']").First().AttrOr("href", ""))
	link := absolutizeLink(href, alibabaOrigin)
	if link == "" {
		return scout.Listing{}, false
	}

	price := strings.TrimSpace(card.Find("[class*='price'], [class*='Price']").First().Text())
	if price == "" {
		price = scout.PriceUnknown
	}

	img := card.Find("img[src], img[data-src]").First()
	imageURL := img.AttrOr("src", "")
	if imageURL == "" {
		imageURL = img.AttrOr("data-src", "")
	}

	return scout.Listing{
		Name:     name,
		Price:    price,
		Link:     link,
		Source:   scout.SourceAlibaba,
		Category: category,
		ImageURL: imageURL,
		MinOrder: strings.TrimSpace(card.Find("[class*='moq'], [class*='MOQ'], [class*='min-order']").First().Text()),
		Supplier: strings.TrimSpace(card.Find("[class*='company'], [class*='supplier']").First().Text()),
	}, true
}

// extractAnchors is the last structural resort: any anchor shaped like a
// product link becomes a minimal listing with an unknown price.
func (e *AlibabaExtractor) extractAnchors(doc *goquery.Document, category string, maxItems int) []scout.Listing {
	var listings []scout.Listing
	doc.Find("a[href*='/product-detail/']").EachWithBreak(func(i int, a *goquery.Selection) bool {
		if i >= maxItems {
			return false
		}
		name := scout.TruncateName(strings.TrimSpace(a.Text()), 120)
		if name == "" {
			name = alibabaDefaultName
		}
		listings = append(listings, scout.Listing{
			Name:     name,
			Price:    scout.PriceUnknown,
			Link:     absolutizeLink(strings.TrimSpace(a.AttrOr("href", "")), alibabaOrigin),
			Source:   scout.SourceAlibaba,
			Category: category,
		})
		return true
	})
	return listings
}
