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

	"coldwatch/internal/forecast"
)

// Notification carries one breach-risk alert out to a channel.
type Notification struct {
	DeviceID        string
	At              time.Time
	AlertType       forecast.AlertType
	Severity        forecast.Severity
	CurrentTemp     float64
	PredictedTemp   float64
	MinutesToBreach int
	AccuracyPct     float64
	Actions         []string
}

// Notifier dispatches alert notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes alert messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram channel.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify sends the rendered alert via the sendMessage API.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
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
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
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
		Str("device", note.DeviceID).
		Str("alert_type", string(note.AlertType)).
		Str("severity", string(note.Severity)).
		Int("minutes_to_breach", note.MinutesToBreach).
		Msg("alert dispatched (telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[Cold-Chain Alert] %s %s\n", note.Severity, note.AlertType))
	builder.WriteString(fmt.Sprintf("Device: %s\n", note.DeviceID))
	builder.WriteString(fmt.Sprintf("Time: %s UTC\n", note.At.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf("Current: %.1f°C\n", note.CurrentTemp))
	builder.WriteString(fmt.Sprintf("Predicted: %.1f°C in %d min\n", note.PredictedTemp, note.MinutesToBreach))
	// Accuracy is the display heuristic from the model fit, not calibrated skill.
	builder.WriteString(fmt.Sprintf("Model accuracy: %.1f%%\n", note.AccuracyPct))
	if len(note.Actions) > 0 {
		builder.WriteString("Recommended actions:\n")
		for _, action := range note.Actions {
			builder.WriteString(fmt.Sprintf("- %s\n", action))
		}
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
