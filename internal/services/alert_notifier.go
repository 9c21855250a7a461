package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/session-audit/backend/internal/events"
	"go.uber.org/zap"
)

// AlertNotifier forwards command alerts to an HTTP webhook.
type AlertNotifier struct {
	webhookURL string
	httpClient *http.Client
	log        *zap.Logger
}

func NewAlertNotifier(webhookURL string, log *zap.Logger) *AlertNotifier {
	return &AlertNotifier{
		webhookURL: strings.TrimSpace(webhookURL),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type alertNotification struct {
	Type     string         `json:"type"`
	TenantID string         `json:"tenant_id"`
	Text     string         `json:"text"`
	Alert    map[string]any `json:"alert,omitempty"`
}

// Notify posts one alert event. Events of other types are ignored.
func (n *AlertNotifier) Notify(ctx context.Context, event events.Event) error {
	if event.Type != events.EventCommandAlert || n.webhookURL == "" {
		return nil
	}

	alert, _ := event.Payload["alert"].(map[string]any)
	body, err := json.Marshal(alertNotification{
		Type:     event.Type,
		TenantID: event.TenantID,
		Text:     alertText(alert),
		Alert:    alert,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("alert webhook unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("alert webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func alertText(alert map[string]any) string {
	str := func(k string) string {
		s, _ := alert[k].(string)
		return s
	}
	level := "unknown"
	if rl, ok := alert["risk_level"].(map[string]any); ok {
		if l, ok := rl["label"].(string); ok {
			level = l
		}
	}
	return fmt.Sprintf("Insecure command [%s] by %s on %s: %s (session %s)",
		level, str("user"), str("asset"), str("input"), str("session"))
}
