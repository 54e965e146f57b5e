package scorereport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Score is one player's final result as posted to the webhook.
type Score struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Client posts final scores to an external HTTP endpoint.
type Client struct {
	url     string
	client  *http.Client
	headers map[string]string
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Report posts one score. Any non-2xx response is an error.
func (c *Client) Report(ctx context.Context, s Score) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("score endpoint returned status code: %d, response: %s", resp.StatusCode, string(responseBody))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
