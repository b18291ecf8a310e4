package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockNewsTracker/internal/domain"
)

// dispatchTimeout bounds the wait for one gateway send.
const dispatchTimeout = 30 * time.Second

// markdownSpecials lists every character the Telegram MarkdownV2 parser
// treats as markup.
const markdownSpecials = "_*[]()~`>#+-=|{}.!"

// EscapeMarkdownV2 escapes markup characters so arbitrary article text
// survives the gateway without being rejected as malformed.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 128 && strings.ContainsRune(markdownSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func severity(score float64) string {
	switch {
	case score >= 0.8:
		return "urgent"
	case score >= 0.7:
		return "high"
	default:
		return "medium"
	}
}

// BuildMessage renders the MarkdownV2 notification body for an evaluation.
// NoAction yields an empty message.
func BuildMessage(ev domain.ItemEnrichedEvent, eval Evaluation) string {
	switch eval.Decision {
	case KeywordMatch:
		return keywordMessage(ev, eval.Matched)
	case HighImpact:
		return impactMessage(ev)
	default:
		return ""
	}
}

func enrichmentOrDefault(ev domain.ItemEnrichedEvent) domain.EnrichmentPayload {
	if ev.Enrichment != nil {
		return *ev.Enrichment
	}
	return domain.EnrichmentPayload{Category: "Tin tức"}
}

func keywordMessage(ev domain.ItemEnrichedEvent, matched []string) string {
	e := enrichmentOrDefault(ev)
	lines := []string{
		"🎯 *WATCHLIST ALERT*",
		fmt.Sprintf("📂 %s \\| 📊 %s \\| 💭 %s",
			EscapeMarkdownV2(strings.ToUpper(e.Category)),
			EscapeMarkdownV2(e.ImpactText),
			EscapeMarkdownV2(e.SentimentText)),
		fmt.Sprintf("🔍 Từ khóa: *%s*", EscapeMarkdownV2(strings.Join(matched, ", "))),
		"\\-\\-\\-",
		fmt.Sprintf("*%s*", EscapeMarkdownV2(ev.Title)),
		fmt.Sprintf("_%s_", EscapeMarkdownV2(e.Rationale)),
		"",
		fmt.Sprintf("[Đọc ngay](%s)", EscapeMarkdownV2(ev.URL)),
	}
	return strings.Join(lines, "\n")
}

func impactMessage(ev domain.ItemEnrichedEvent) string {
	e := enrichmentOrDefault(ev)
	marker := severity(e.ImpactScore)
	emoji := "⚡"
	if marker == "urgent" {
		emoji = "🔥"
	}
	lines := []string{
		fmt.Sprintf("%s *TIN TÁC ĐỘNG \\[%s\\]*", emoji, EscapeMarkdownV2(strings.ToUpper(marker))),
		fmt.Sprintf("📂 %s \\| 💭 %s",
			EscapeMarkdownV2(strings.ToUpper(e.Category)),
			EscapeMarkdownV2(e.SentimentText)),
		"\\-\\-\\-",
		fmt.Sprintf("*%s*", EscapeMarkdownV2(ev.Title)),
		fmt.Sprintf("_%s_", EscapeMarkdownV2(e.Rationale)),
		"",
		fmt.Sprintf("[Đọc ngay](%s)", EscapeMarkdownV2(ev.URL)),
	}
	return strings.Join(lines, "\n")
}

// TelegramDispatcher formats and sends notifications through the Telegram
// Bot API.
type TelegramDispatcher struct {
	botToken string
	chatID   string // default destination when the caller passes none
	apiBase  string
	client   *http.Client
	logger   *slog.Logger
}

// NewTelegramDispatcher registers the bot token and default chat identifier.
func NewTelegramDispatcher(botToken, chatID string, logger *slog.Logger) *TelegramDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramDispatcher{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  "https://api.telegram.org",
		client:   &http.Client{Timeout: dispatchTimeout},
		logger:   logger,
	}
}

// Dispatch sends the message for the evaluation outcome. It never returns an
// error: gateway failures, missing configuration and timeouts are logged with
// distinct reasons and reported as false. The send runs on its own goroutine
// with a bounded wait so a stalled gateway cannot wedge the consumer loop.
func (t *TelegramDispatcher) Dispatch(ctx context.Context, chatID string, ev domain.ItemEnrichedEvent, eval Evaluation) bool {
	if eval.Decision == NoAction {
		return false
	}
	if chatID == "" {
		chatID = t.chatID
	}
	if t.botToken == "" || chatID == "" {
		t.logger.Error("dispatch skipped: telegram credentials missing", "item_id", ev.ItemID)
		return false
	}

	message := BuildMessage(ev, eval)

	sendCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- t.send(sendCtx, chatID, message) }()

	select {
	case err := <-done:
		if err != nil {
			t.logger.Error("telegram send failed", "chat_id", chatID, "item_id", ev.ItemID, "error", err)
			return false
		}
		t.logger.Info("notification sent", "chat_id", chatID, "item_id", ev.ItemID, "decision", eval.Decision.String())
		return true
	case <-sendCtx.Done():
		t.logger.Error("telegram send timed out", "chat_id", chatID, "item_id", ev.ItemID)
		return false
	}
}

func (t *TelegramDispatcher) send(ctx context.Context, chatID, message string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", message)
	form.Set("parse_mode", "MarkdownV2")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	return nil
}
