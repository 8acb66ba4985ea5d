package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

const alibabaCardsHTML = `<html><body><div class="organic-list">
<div class="fy23-search-card">
  <h2 title="LED Moon Lamp 3D Printing Night Light">LED Moon Lamp</h2>
  <a href="//www.alibaba.com/product-detail/led-moon-lamp_100123.html">view</a>
  <div class="search-card-e-price-main">$2.50-$4.80</div>
  <div class="moq">2 pieces</div>
  <img src="https://img.alibaba.com/moon.jpg"/>
  <div class="company-name">Shenzhen Light Co</div>
</div>
<div class="fy23-search-card">
  <h2 title="Card Without A Product Link">broken</h2>
  <div class="search-card-e-price-main">$9.99</div>
</div>
<div class="fy23-search-card">
  <h2>Plain Title Desk Lamp</h2>
  <a href="/product-detail/desk-lamp_200456.html">view</a>
</div>
</div></body></html>`

func TestAlibabaExtractCards(t *testing.T) {
	e := NewAlibabaExtractor(zap.NewNop())

	listings := e.Extract([]byte(alibabaCardsHTML), "lamps", 8)
	require.Len(t, listings, 2, "card without a link is skipped, not fatal")

	first := listings[0]
	require.Equal(t, "LED Moon Lamp 3D Printing Night Light", first.Name)
	require.Equal(t, "$2.50-$4.80", first.Price)
	require.Equal(t, "https://www.alibaba.com/product-detail/led-moon-lamp_100123.html", first.Link)
	require.Equal(t, scout.SourceAlibaba, first.Source)
	require.Equal(t, "lamps", first.Category)
	require.Equal(t, "2 pieces", first.MinOrder)
	require.Equal(t, "https://img.alibaba.com/moon.jpg", first.ImageURL)
	require.Equal(t, "Shenzhen Light Co", first.Supplier)

	second := listings[1]
	require.Equal(t, "Plain Title Desk Lamp", second.Name)
	require.Equal(t, scout.PriceUnknown, second.Price)
	require.Equal(t, "https://www.alibaba.com/product-detail/desk-lamp_200456.html", second.Link)
}

func TestAlibabaExtractRespectsMaxItems(t *testing.T) {
	e := NewAlibabaExtractor(zap.NewNop())

	listings := e.Extract([]byte(alibabaCardsHTML), "lamps", 1)
	require.Len(t, listings, 1)
	require.Equal(t, "LED Moon Lamp 3D Printing Night Light", listings[0].Name)
}

func TestAlibabaAnchorSweepFallback(t *testing.T) {
	html := `<html><body>
<a href="/product-detail/widget_1.html">Cool Widget</a>
<a href="https://www.alibaba.com/product-detail/widget_2.html"></a>
</body></html>`

	e := NewAlibabaExtractor(zap.NewNop())
	listings := e.Extract([]byte(html), "electronics", 8)
	require.Len(t, listings, 2)

	require.Equal(t, "Cool Widget", listings[0].Name)
	require.Equal(t, "https://www.alibaba.com/product-detail/widget_1.html", listings[0].Link)
	require.Equal(t, scout.PriceUnknown, listings[0].Price)
	require.Empty(t, listings[0].ImageURL, "anchor sweep builds minimal listings")

	require.Equal(t, "Alibaba Product", listings[1].Name, "nameless anchors get the default name")
}

func TestAlibabaEmbeddedJSONFallback(t *testing.T) {
	html := `<html><body><script>
var payload = {"itemList": [
  {"subject": "Mini Projector", "price": {"priceStr": "$12.30"}, "detailUrl": "//www.alibaba.com/product-detail/proj.html", "image": "https://img.alibaba.com/proj.jpg"},
  {"title": "Numeric Price Gadget", "price": 9.99, "href": "/product-detail/gadget.html"},
  {"title": "No Link Item"}
]};
</script></body></html>`

	e := NewAlibabaExtractor(zap.NewNop())
	listings := e.Extract([]byte(html), "electronics", 8)
	require.Len(t, listings, 2, "items without name or link are dropped")

	require.Equal(t, "Mini Projector", listings[0].Name)
	require.Equal(t, "$12.30", listings[0].Price)
	require.Equal(t, "https://www.alibaba.com/product-detail/proj.html", listings[0].Link)
	require.Equal(t, "https://img.alibaba.com/proj.jpg", listings[0].ImageURL)

	require.Equal(t, "Numeric Price Gadget", listings[1].Name)
	require.Equal(t, "9.99", listings[1].Price)
	require.Equal(t, "https://www.alibaba.com/product-detail/gadget.html", listings[1].Link)
}

func TestAlibabaExtractHandlesGarbage(t *testing.T) {
	e := NewAlibabaExtractor(zap.NewNop())
	require.Empty(t, e.Extract([]byte("<<<< not html at all >>>>"), "lamps", 8))
	require.Empty(t, e.Extract(nil, "lamps", 8))
}

func TestAlibabaSearchURL(t *testing.T) {
	e := NewAlibabaExtractor(zap.NewNop())
	u := e.SearchURL("led lamp")
	require.Contains(t, u, "https://www.alibaba.com/trade/search?")
	require.Contains(t, u, "SearchText=led+lamp")
	require.Contains(t, u, "sortType=TRALV")
}
