// Package notify – Telegram Bot API sender.
//
// A minimal hand-rolled client over the Bot API sendMessage method. Only the
// single call the bot needs is implemented; richer markup, media, and
// session handling are out of scope.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBase     = "https://api.telegram.org"
	defaultSendTimeout = 10 * time.Second
)

// TelegramSender delivers messages through the Telegram Bot API.
type TelegramSender struct {
	apiBase string
	token   string
	httpc   *http.Client
}

// TelegramOptions configures a TelegramSender.
type TelegramOptions struct {
	// Token is the bot token issued by BotFather. Required.
	Token string
	// APIBase overrides the Bot API root, mainly for tests. Defaults to the
	// public endpoint.
	APIBase string
	// Timeout bounds each send round trip. Zero selects a default.
	Timeout time.Duration
}

// NewTelegramSender builds a TelegramSender from opts.
func NewTelegramSender(opts TelegramOptions) (*TelegramSender, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, fmt.Errorf("notify: bot token is required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.APIBase), "/")
	if base == "" {
		base = defaultAPIBase
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &TelegramSender{
		apiBase: base,
		token:   opts.Token,
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// sendMessageResponse is the subset of the Bot API envelope we care about.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts one sendMessage call for chatID. Any transport failure, non-2xx
// status, or ok=false envelope (blocked bot, unknown chat, etc.) is returned
// as an error; callers decide whether to record or retry.
func (s *TelegramSender) Send(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	var envelope sendMessageResponse
	if uerr := json.Unmarshal(raw, &envelope); uerr == nil && envelope.OK {
		return nil
	}
	if envelope.Description != "" {
		return fmt.Errorf("notify: sendMessage to %d failed (%d): %s", chatID, resp.StatusCode, envelope.Description)
	}
	return fmt.Errorf("notify: sendMessage to %d failed with status %d", chatID, resp.StatusCode)
}
