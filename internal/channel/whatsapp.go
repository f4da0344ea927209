// Package channel holds the outbound messengers and the alternate-channel
// adapters that feed normalized deliveries into the router.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"edobot/internal/config"
)

const whatsappAPIBase = "https://graph.facebook.com/v21.0"

// WhatsApp sends text messages through the WhatsApp Cloud API. It implements
// domain.Messenger.
type WhatsApp struct {
	cfg    config.WhatsAppConfig
	base   string
	client *http.Client
	logger *slog.Logger
}

func NewWhatsApp(cfg config.WhatsAppConfig, logger *slog.Logger) *WhatsApp {
	base := cfg.APIBase
	if base == "" {
		base = whatsappAPIBase
	}
	return &WhatsApp{
		cfg:    cfg,
		base:   base,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// SendText posts one text message via the Cloud API. The context bounds the
// whole call; retries, if any, belong to the platform, not here.
func (w *WhatsApp) SendText(ctx context.Context, to, text string) error {
	url := fmt.Sprintf("%s/%s/messages", w.base, w.cfg.PhoneNumberID)

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.cfg.AccessToken)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp API %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
