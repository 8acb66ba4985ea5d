// Package rank scores scraped listings by commercial viability, either via a
// chat-completion service or a deterministic heuristic fallback.
package rank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

const systemPromptTemplate = `You are an expert e-commerce product analyst specializing in dropshipping and resale businesses.

I will give you a list of products scraped from Chinese wholesale suppliers (Alibaba, DHgate, 1688).
Your job is to rank them by VIRAL & RESALE POTENTIAL and return the TOP %d.

Scoring criteria (weight each equally):
1. **Trend potential** - Is this product trending on TikTok/Instagram/Amazon? Is it a novelty item?
2. **Profit margin** - Low wholesale price + high perceived value = good margin.
3. **Broad appeal** - Would many people want this? Gift-worthy? Impulse buy?
4. **Low competition signal** - Unique or niche enough to stand out.
5. **Shippability** - Small, light, not fragile = easier to sell online.

IMPORTANT RULES:
- Return EXACTLY %d products (or fewer if less than %d were provided).
- Return ONLY valid JSON - no markdown, no explanation, no preamble.
- Preserve the original product data exactly (name, price, link, source, category).
- Add a "score" field (1-100) and a "reason" field (1 sentence why it's viral).

Return format:
[
  {
    "name": "...",
    "price": "...",
    "link": "...",
    "source": "...",
    "category": "...",
    "image_url": "...",
    "min_order": "...",
    "orders_or_reviews": "...",
    "supplier": "...",
    "score": 85,
    "reason": "Trending on TikTok, high perceived value, great margins."
  }
]`

// AIRanker delegates scoring to a chat-completion service. Any failure is
// reported as an error so the caller can fall back; the remote call is never
// retried and never partially succeeds.
type AIRanker struct {
	client *resty.Client
	model  string
	logger *zap.Logger
}

// NewAIRanker constructs a ranker against the given chat-completion endpoint.
func NewAIRanker(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *AIRanker {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout)
	return &AIRanker{
		client: client,
		model:  model,
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Rank sends the full listing batch to the ranking service and returns the
// top topN results sorted by descending score.
func (r *AIRanker) Rank(ctx context.Context, listings []scout.Listing, topN int) ([]scout.RankedListing, error) {
	if len(listings) == 0 {
		return nil, errors.New("no listings to rank")
	}

	batch, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize listings: %w", err)
	}

	req := chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPromptTemplate, topN, topN, topN)},
			{Role: "user", Content: fmt.Sprintf("Here are %d products to rank:\n\n%s", len(listings), batch)},
		},
		Temperature:    0.3,
		MaxTokens:      4000,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	var parsed chatResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&parsed).
		Post("/v1/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("chat completion call: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chat completion status %s", resp.Status())
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	ranked, err := decodeRankedPayload([]byte(strings.TrimSpace(parsed.Choices[0].Message.Content)))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	r.logger.Info("ranking service returned results", zap.Int("count", len(ranked)))
	return ranked, nil
}
