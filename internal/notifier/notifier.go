package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"voucherpos/internal/pkg/config"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notice is one operator-facing feedback message. Audience entries are
// free-form ("operator", "admin"); downstream bridges may use them for
// routing.
type Notice struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Audience []string `json:"audience,omitempty"`
}

// Notifier delivers action feedback. Implementations are fire-and-forget:
// delivery failure must never fail the mutation that produced the notice.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// LogNotifier writes every notice to the structured log. Always active.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, notice Notice) {
	n.logger.Info("notice",
		"title", notice.Title,
		"message", notice.Message,
		"severity", string(notice.Severity),
	)
}

// WebhookNotifier POSTs each notice as JSON to a configured endpoint,
// falling back to log-only when no URL is set.
type WebhookNotifier struct {
	url    string
	client *http.Client
	log    *LogNotifier
}

func NewWebhookNotifier(cfg config.NotifierConfig, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: cfg.WebhookTimeout},
		log:    NewLogNotifier(logger),
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, notice Notice) {
	n.log.Notify(ctx, notice)
	if n.url == "" {
		return
	}

	body, err := json.Marshal(notice)
	if err != nil {
		n.log.logger.Warn("failed to encode notice", "error", err.Error())
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.log.logger.Warn("failed to build webhook request", "error", err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.logger.Warn("webhook delivery failed", "error", err.Error())
		return
	}
	resp.Body.Close()
}

// New picks the webhook-backed notifier when a URL is configured.
func New(cfg config.NotifierConfig, logger *slog.Logger) Notifier {
	if cfg.WebhookURL != "" {
		return NewWebhookNotifier(cfg, logger)
	}
	return NewLogNotifier(logger)
}
