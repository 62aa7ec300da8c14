// Package push sends mobile notifications through the FCM legacy HTTP API.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Batch size accepted by the FCM multicast endpoint.
const maxTokensPerRequest = 500

type Sender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

type Client struct {
	http      *http.Client
	endpoint  string
	serverKey string
	logger    *log.Logger
}

func NewClient(endpoint, serverKey string, logger *log.Logger) *Client {
	return &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		endpoint:  endpoint,
		serverKey: serverKey,
		logger:    logger,
	}
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmRequest struct {
	RegistrationIds []string          `json:"registration_ids"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// Send fans the notification out to every token, batching requests at the
// endpoint's multicast limit. Tokens FCM rejects are logged, not returned:
// stale device registrations are expected.
func (c *Client) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if c.serverKey == "" {
		return fmt.Errorf("push: no server key configured")
	}
	if len(tokens) == 0 {
		return nil
	}

	for start := 0; start < len(tokens); start += maxTokensPerRequest {
		end := start + maxTokensPerRequest
		if end > len(tokens) {
			end = len(tokens)
		}

		if err := c.sendBatch(ctx, tokens[start:end], title, body, data); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) sendBatch(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	payload, err := json.Marshal(fcmRequest{
		RegistrationIds: tokens,
		Notification:    fcmNotification{Title: title, Body: body},
		Data:            data,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("push: send batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push: unexpected status %d", resp.StatusCode)
	}

	var result fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("push: decode response: %w", err)
	}

	if result.Failure > 0 {
		c.logger.Printf("push: %d of %d tokens rejected", result.Failure, len(tokens))
	}

	return nil
}
