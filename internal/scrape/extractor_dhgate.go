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
	dhgateOrigin      = "https://www.dhgate.com"
	dhgateSearchURL   = dhgateOrigin + "/wholesale/search.do"
	dhgateDefaultName = "DHgate Product"
)

const dhgateCardSelector = "div.gallery-item, div[class*='product-item'], div[class*='listitem']"

// DHgateExtractor converts DHgate search result pages into listings.
type DHgateExtractor struct {
	logger *zap.Logger
}

// NewDHgateExtractor constructs a DHgateExtractor.
func NewDHgateExtractor(logger *zap.Logger) *DHgateExtractor {
	return &DHgateExtractor{logger: logger}
}

// SearchURL builds the best-match-sorted search URL for keyword.
func (e *DHgateExtractor) SearchURL(keyword string) string {
	q := url.Values{}
	q.Set("searchkey", keyword)
	q.Set("searchSource", "sort")
	q.Set("sortby", "bestmatch#seo")
	return dhgateSearchURL + "?" + q.Encode()
}

// Extract parses a search response body into at most maxItems listings.
func (e *DHgateExtractor) Extract(body []byte, category string, maxItems int) []scout.Listing {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		e.logger.Warn("dhgate document parse failed", zap.Error(err))
		return nil
	}

	cards := doc.Find(dhgateCardSelector)
	if cards.Length() == 0 {
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

func (e *DHgateExtractor) parseCard(card *goquery.Selection, category string) (scout.Listing, bool) {
	title := card.Find("a[title], [class*='title'], h3, h4").First()
	name := strings.TrimSpace(title.AttrOr("title", ""))
	if name == "" {
		name = strings.TrimSpace(title.Text())
	}
	name = scout.TruncateName(name, 120)
	if name == "" {
		name = dhgateDefaultName
	}

	href := strings.TrimSpace(card.Find("a[href*='dhgate.com'], a[href*='/product/']").First().AttrOr("href", ""))
	link := absolutizeLink(href, dhgateOrigin)
	if link == "" {
		return scout.Listing{}, false
	}

	price := strings.TrimSpace(card.Find("[class*='price']").First().Text())
	if price == "" {
		price = scout.PriceUnknown
	}

	return scout.Listing{
		Name:            name,
		Price:           price,
		Link:            link,
		Source:          scout.SourceDHgate,
		Category:        category,
		OrdersOrReviews: strings.TrimSpace(card.Find("[class*='review'], [class*='order'], [class*='sold']").First().Text()),
	}, true
}

func (e *DHgateExtractor) extractAnchors(doc *goquery.Document, category string, maxItems int) []scout.Listing {
	var listings []scout.Listing
	doc.Find("a[href*='/product/']").EachWithBreak(func(i int, a *goquery.Selection) bool {
		if i >= maxItems {
			return false
		}
		name := strings.TrimSpace(a.AttrOr("title", ""))
		if name == "" {
			name = strings.TrimSpace(a.Text())
		}
		name = scout.TruncateName(name, 120)
		if name == "" {
			name = dhgateDefaultName
		}
		listings = append(listings, scout.Listing{
			Name:     name,
			Price:    scout.PriceUnknown,
			Link:     absolutizeLink(strings.TrimSpace(a.AttrOr("href", "")), dhgateOrigin),
			Source:   scout.SourceDHgate,
			Category: category,
		})
		return true
	})
	return listings
}
