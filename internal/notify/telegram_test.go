package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

type recordedMessage struct {
	Text      string
	ParseMode string
	ChatID    string
}

type botServer struct {
	srv *httptest.Server
	mu  sync.Mutex
	// rejectMarkdown simulates Telegram bouncing MarkdownV2 payloads.
	rejectMarkdown bool
	got            []recordedMessage
}

func newBotServer(t *testing.T) *botServer {
	t.Helper()
	b := &botServer{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		var req sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.DisableWebPagePreview)

		b.mu.Lock()
		b.got = append(b.got, recordedMessage{Text: req.Text, ParseMode: req.ParseMode, ChatID: req.ChatID})
		reject := b.rejectMarkdown && req.ParseMode == "MarkdownV2"
		b.mu.Unlock()

		if reject {
			http.Error(w, `{"ok":false,"description":"can't parse entities"}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *botServer) messages() []recordedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedMessage(nil), b.got...)
}

func newTestNotifier(b *botServer) *Notifier {
	n := New(b.srv.URL, "test-token", "12345", 5*time.Second, zap.NewNop())
	n.now = func() time.Time { return time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC) }
	return n
}

func TestEscapeMarkdown(t *testing.T) {
	require.Equal(t, `Deal \(50% off\)\!`, escapeMarkdown("Deal (50% off)!"))
	require.Equal(t, `\#1 \- top\_pick\.`, escapeMarkdown("#1 - top_pick."))
	require.Equal(t, "plain words", escapeMarkdown("plain words"))
}

func TestSendDigestFormatting(t *testing.T) {
	b := newBotServer(t)
	n := newTestNotifier(b)

	ranked := []scout.RankedListing{
		{
			Listing: scout.Listing{
				Name:            "LED Galaxy Lamp (USB)",
				Price:           "$7.99",
				Link:            "https://www.alibaba.com/product-detail/lamp_1.html",
				Source:          scout.SourceAlibaba,
				Category:        "lamps",
				MinOrder:        "2 pieces",
				OrdersOrReviews: "1,200 sold",
				Supplier:        "Shenzhen Light Co.",
			},
			Score:  92,
			Reason: "Trending on TikTok.",
		},
	}

	ok := n.SendDigest(context.Background(), ranked, "")
	require.True(t, ok)

	msgs := b.messages()
	require.Len(t, msgs, 1)
	msg := msgs[0]
	require.Equal(t, "MarkdownV2", msg.ParseMode)
	require.Equal(t, "12345", msg.ChatID)

	require.Contains(t, msg.Text, "🔥 *Daily Viral Products Scout* 🔥")
	require.Contains(t, msg.Text, `28/08/2026`)
	require.Contains(t, msg.Text, `1 picks`)
	require.Contains(t, msg.Text, `💡 *1\. LED Galaxy Lamp \(USB\)*`)
	require.Contains(t, msg.Text, `💰 $7\.99`)
	require.Contains(t, msg.Text, `📦 MOQ: 2 pieces`)
	require.Contains(t, msg.Text, `🔥 1,200 sold`)
	require.Contains(t, msg.Text, `⭐ Score: 92/100`)
	// The link URL inside the Markdown link stays raw.
	require.Contains(t, msg.Text, `](https://www.alibaba.com/product-detail/lamp_1.html)`)
	require.Contains(t, msg.Text, footerMarker)
}

func TestSendDigestSessionLabelTitle(t *testing.T) {
	b := newBotServer(t)
	n := newTestNotifier(b)

	ok := n.SendDigest(context.Background(), []scout.RankedListing{{
		Listing: scout.Listing{Name: "X", Price: "$1", Link: "https://x", Category: "misc"},
		Score:   50,
	}}, "Morning")
	require.True(t, ok)

	msgs := b.messages()
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0].Text, "*Morning Product Scout*")
}

func TestSendDigestSplitsLongDigests(t *testing.T) {
	b := newBotServer(t)
	n := newTestNotifier(b)

	longReason := strings.Repeat("very compelling resale rationale ", 20)
	var ranked []scout.RankedListing
	for i := 0; i < 12; i++ {
		ranked = append(ranked, scout.RankedListing{
			Listing: scout.Listing{
				Name:     fmt.Sprintf("Product %d", i),
				Price:    "$9.99",
				Link:     fmt.Sprintf("https://example.test/p/%d", i),
				Category: "misc",
			},
			Score:  90 - i,
			Reason: longReason,
		})
	}

	ok := n.SendDigest(context.Background(), ranked, "")
	require.True(t, ok)

	msgs := b.messages()
	require.Greater(t, len(msgs), 1, "a long digest is split into chunks")
	for _, m := range msgs[:len(msgs)-1] {
		require.LessOrEqual(t, len(m.Text), softLimit)
	}
	// Only the final chunk carries the footer.
	for i, m := range msgs {
		if i == len(msgs)-1 {
			require.Contains(t, m.Text, footerMarker)
		} else {
			require.NotContains(t, m.Text, footerMarker)
		}
	}
}

func TestSendDigestEmptySendsNotice(t *testing.T) {
	b := newBotServer(t)
	n := newTestNotifier(b)

	ok := n.SendDigest(context.Background(), nil, "")
	require.False(t, ok, "empty digest reports failure even when the notice is delivered")

	msgs := b.messages()
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0].Text, "No products found today")
}

func TestSendMessageDegradedRetry(t *testing.T) {
	b := newBotServer(t)
	b.rejectMarkdown = true
	n := newTestNotifier(b)

	ok := n.SendErrorAlert(context.Background(), "scrape failed: timeout!")
	require.True(t, ok)

	msgs := b.messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "MarkdownV2", msgs[0].ParseMode)
	require.Equal(t, "HTML", msgs[1].ParseMode)
	require.NotContains(t, msgs[1].Text, `\`, "degraded retry strips escape prefixes")
}

func TestSendMessageNetworkErrorIsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	n := New(srv.URL, "test-token", "12345", time.Second, zap.NewNop())
	require.False(t, n.SendErrorAlert(context.Background(), "unreachable"))
}
