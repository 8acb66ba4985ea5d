// Package notify formats ranked digests and delivers them over the Telegram
// bot API.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/metrics"
	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

const (
	defaultTitle = "Daily Viral Products Scout"
	footerMarker = "🤖 _Powered by Product Scout Bot_"

	// Telegram caps messages at 4096 characters; splitting at 3800 leaves
	// headroom for the footer and one entry's worst case.
	softLimit = 3800
)

var divider = strings.Repeat("─", 30)

// markdownReserved is the MarkdownV2 reserved set; each occurrence receives a
// single backslash prefix.
const markdownReserved = "_*[]()~`>#+-=|{}.!"

var markdownEscaper = newMarkdownEscaper()

func newMarkdownEscaper() *strings.Replacer {
	pairs := make([]string, 0, len(markdownReserved)*2)
	for _, ch := range markdownReserved {
		pairs = append(pairs, string(ch), `\`+string(ch))
	}
	return strings.NewReplacer(pairs...)
}

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

var categoryEmoji = map[string]string{
	"lamps":       "💡",
	"telescopes":  "🔭",
	"binoculars":  "🔭",
	"kids_toys":   "🧸",
	"electronics": "📱",
}

func emojiFor(category string) string {
	if emoji, ok := categoryEmoji[category]; ok {
		return emoji
	}
	return "📦"
}

// Notifier sends formatted digests to a single Telegram chat.
type Notifier struct {
	client *resty.Client
	chatID string
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Notifier for the given bot token and destination chat.
func New(baseURL, botToken, chatID string, timeout time.Duration, logger *zap.Logger) *Notifier {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/") + "/bot" + botToken).
		SetTimeout(timeout)
	return &Notifier{
		client: client,
		chatID: chatID,
		logger: logger,
		now:    time.Now,
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// SendDigest formats ranked listings into one or more size-bounded messages
// and delivers them. The reported result is that of the final buffer; earlier
// chunk failures are logged but do not abort the remaining sends. An empty
// input sends a single "no results" notice and reports false.
func (n *Notifier) SendDigest(ctx context.Context, ranked []scout.RankedListing, sessionLabel string) bool {
	if len(ranked) == 0 {
		n.sendMessage(ctx, `⚠️ No products found today\. Will try again tomorrow\!`)
		return false
	}

	title := defaultTitle
	if sessionLabel != "" {
		title = sessionLabel + " Product Scout"
	}
	header := fmt.Sprintf("🔥 *%s* 🔥\n📅 %s\n📊 %s\n%s\n\n",
		escapeMarkdown(title),
		escapeMarkdown(n.now().Format("02/01/2006")),
		escapeMarkdown(fmt.Sprintf("%d picks", len(ranked))),
		divider,
	)

	current := header
	for i, item := range ranked {
		entry := formatEntry(i+1, item)
		if len(current)+len(entry) > softLimit {
			if !n.sendMessage(ctx, current) {
				n.logger.Warn("digest chunk delivery failed")
			}
			current = entry
			continue
		}
		current += entry
	}

	current += divider + "\n" + footerMarker
	return n.sendMessage(ctx, current)
}

// SendErrorAlert delivers a single escaped error notice.
func (n *Notifier) SendErrorAlert(ctx context.Context, message string) bool {
	return n.sendMessage(ctx, "⚠️ *Product Scout Error*\n\n"+escapeMarkdown(message))
}

// formatEntry renders one listing. Every listing field is escaped; the raw
// link URL inside the link construct must not be.
func formatEntry(position int, item scout.RankedListing) string {
	var b strings.Builder
	fmt.Fprintf(&b, `%s *%d\. %s*`+"\n", emojiFor(item.Category), position, escapeMarkdown(scout.TruncateName(item.Name, 80)))
	b.WriteString("💰 " + escapeMarkdown(item.Price) + "\n")
	if item.MinOrder != "" {
		b.WriteString("📦 MOQ: " + escapeMarkdown(item.MinOrder) + "\n")
	}
	if item.OrdersOrReviews != "" {
		b.WriteString("🔥 " + escapeMarkdown(item.OrdersOrReviews) + "\n")
	}
	if item.Supplier != "" {
		b.WriteString("🏭 " + escapeMarkdown(item.Supplier) + "\n")
	}
	fmt.Fprintf(&b, "⭐ Score: %d/100\n", item.Score)
	if item.Reason != "" {
		b.WriteString("💡 " + escapeMarkdown(item.Reason) + "\n")
	}
	fmt.Fprintf(&b, "🔗 [Open on %s](%s)\n\n", escapeMarkdown(string(item.Source)), item.Link)
	return b.String()
}

// sendMessage posts one message. On a rejected status it retries once in
// degraded mode: HTML parse mode with the escape prefixes stripped. Network
// errors convert to false and never propagate.
func (n *Notifier) sendMessage(ctx context.Context, text string) bool {
	accepted, err := n.post(ctx, text, "MarkdownV2")
	if err != nil {
		n.logger.Error("telegram send failed", zap.Error(err))
		metrics.ObserveTelegramSend("error")
		return false
	}
	if accepted {
		metrics.ObserveTelegramSend("ok")
		return true
	}

	accepted, err = n.post(ctx, strings.ReplaceAll(text, `\`, ""), "HTML")
	if err != nil {
		n.logger.Error("telegram degraded send failed", zap.Error(err))
		metrics.ObserveTelegramSend("error")
		return false
	}
	if accepted {
		metrics.ObserveTelegramSend("degraded")
	} else {
		metrics.ObserveTelegramSend("rejected")
	}
	return accepted
}

func (n *Notifier) post(ctx context.Context, text, parseMode string) (bool, error) {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{
			ChatID:                n.chatID,
			Text:                  text,
			ParseMode:             parseMode,
			DisableWebPagePreview: true,
		}).
		Post("/sendMessage")
	if err != nil {
		return false, fmt.Errorf("telegram sendMessage: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		n.logger.Error("telegram API rejected message",
			zap.Int("status", resp.StatusCode()),
			zap.String("parse_mode", parseMode),
			zap.String("body", resp.String()),
		)
		return false, nil
	}
	return true, nil
}
