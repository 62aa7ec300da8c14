// Package telegram is a thin client for the Bot API sendMessage call. The
// server runs two bots: the notify bot messages employees, the report bot
// messages employers.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Bot selects which bot token signs the request.
type Bot int

const (
	BotNotify Bot = iota
	BotReport
)

type Sender interface {
	Send(ctx context.Context, chatId, text string, bot Bot) error
}

type Client struct {
	http        *http.Client
	baseURL     string
	notifyToken string
	reportToken string
	logger      *log.Logger
}

func NewClient(baseURL, notifyToken, reportToken string, logger *log.Logger) *Client {
	return &Client{
		http:        &http.Client{Timeout: 10 * time.Second},
		baseURL:     baseURL,
		notifyToken: notifyToken,
		reportToken: reportToken,
		logger:      logger,
	}
}

type sendMessageRequest struct {
	ChatId    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendMessageResponse struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *Client) Send(ctx context.Context, chatId, text string, bot Bot) error {
	token := c.notifyToken
	if bot == BotReport {
		token = c.reportToken
	}
	if token == "" || chatId == "" {
		return fmt.Errorf("telegram: missing token or chat id")
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatId:    chatId,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	defer resp.Body.Close()

	var result sendMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&result); err != nil {
		return fmt.Errorf("telegram: decode response: %w", err)
	}

	if !result.Ok {
		return fmt.Errorf("telegram: api error: %s", result.Description)
	}

	return nil
}
