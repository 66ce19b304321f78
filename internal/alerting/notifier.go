package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier delivers fired alert events. Implementations receive the full
// batch fired in one tick for one network and decide how to render it.
type Notifier interface {
	Notify(ctx context.Context, events []Event) error
}

// TelegramNotifier pushes alert messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken  string
	chatID    string
	baseURL   string
	parseMode string
	client    *http.Client
	logger    zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL, parseMode string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	if parseMode == "" {
		parseMode = "HTML"
	}

	return &TelegramNotifier{
		botToken:  botToken,
		chatID:    chatID,
		baseURL:   strings.TrimRight(baseURL, "/"),
		parseMode: parseMode,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify sends one message per batch: a single-tier format when exactly one
// tier fired, a consolidated format otherwise.
func (n *TelegramNotifier) Notify(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	var text string
	if len(events) == 1 {
		text = FormatAlert(events[0])
	} else {
		text = FormatAlerts(events)
	}

	payload := map[string]any{
		"chat_id":                  n.chatID,
		"text":                     text,
		"parse_mode":               n.parseMode,
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().
		Str("network", events[0].Network).
		Int("tiers", len(events)).
		Msg("alert delivered")
	return nil
}

// FormatAlert renders a single fired tier.
func FormatAlert(e Event) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("%s <b>GAS ALERT: %s</b>\n", TierEmoji(e.Tier), e.NetworkName))
	builder.WriteString(fmt.Sprintf("Type: %s\n", TierLabel(e.Tier)))
	builder.WriteString(fmt.Sprintf("Current: %s Gwei\n", e.Value.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Base: %s Gwei\n", e.BaseFee.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Priority: %s Gwei\n", e.Priority.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Threshold: %s Gwei\n", e.Threshold.String()))
	builder.WriteString(fmt.Sprintf("Percentile: %s\n", e.Percentile))
	builder.WriteString(fmt.Sprintf("Block: #%d\n", e.BlockNumber))
	builder.WriteString(fmt.Sprintf("Time: %s\n", e.Timestamp.UTC().Format("15:04:05")))

	if rec := TierRecommendation(e.Tier); rec != "" {
		builder.WriteString(fmt.Sprintf("\n<i>%s</i>", rec))
	}
	if link := e.ExplorerLink(); link != "" {
		builder.WriteString(fmt.Sprintf("\n🔗 %s", link))
	}
	return builder.String()
}

// FormatAlerts renders a consolidated message for several tiers fired in the
// same tick. The header names the single shared network and block when all
// events agree, and falls back to a multi-network header otherwise.
func FormatAlerts(events []Event) string {
	if len(events) == 0 {
		return ""
	}

	networkLabel := events[0].NetworkName
	sameBlock := true
	for _, e := range events[1:] {
		if e.NetworkName != networkLabel {
			networkLabel = "Multiple Networks"
		}
		if e.BlockNumber != events[0].BlockNumber {
			sameBlock = false
		}
	}

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("⛽ <b>GAS ALERTS: %s</b>\n", networkLabel))
	if sameBlock && networkLabel != "Multiple Networks" {
		builder.WriteString(fmt.Sprintf("Block: #%d\n", events[0].BlockNumber))
	}
	builder.WriteString(fmt.Sprintf("Time: %s\n\n", events[0].Timestamp.UTC().Format("15:04:05")))

	for i, e := range events {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("%s <b>%s</b>: %s Gwei (threshold %s, base %s, priority %s, %s)",
			TierEmoji(e.Tier), TierLabel(e.Tier),
			e.Value.StringFixed(2), e.Threshold.String(),
			e.BaseFee.StringFixed(2), e.Priority.StringFixed(2), e.Percentile))
		if rec := TierRecommendation(e.Tier); rec != "" {
			builder.WriteString(fmt.Sprintf("\n<i>%s</i>", rec))
		}
	}

	if sameBlock && networkLabel != "Multiple Networks" {
		if link := events[0].ExplorerLink(); link != "" {
			builder.WriteString(fmt.Sprintf("\n\n🔗 %s", link))
		}
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
