package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/thumblify/internal/logger"
)

// maxErrorDetail bounds how much of an upstream error body is surfaced.
const maxErrorDetail = 200

// ClipdropClient calls the Clipdrop text-to-image API.
type ClipdropClient struct {
	client   *resty.Client
	endpoint string
}

// ClipdropConfig holds configuration for the Clipdrop client.
type ClipdropConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type clipdropRequest struct {
	Prompt string `json:"prompt"`
}

// NewClipdropClient creates a new Clipdrop text-to-image client.
func NewClipdropClient(cfg *ClipdropConfig) *ClipdropClient {
	client := resty.New()
	client.SetHeader("x-api-key", cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	// Generation can take a while; bound it so no request leaks indefinitely
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://clipdrop-api.co"
	}

	return &ClipdropClient{
		client:   client,
		endpoint: strings.TrimSuffix(baseURL, "/") + "/text-to-image/v1",
	}
}

// Generate sends the prompt to the provider and returns the raw image bytes.
// Non-2xx responses come back as *Error with the upstream status and a
// truncated error detail.
func (c *ClipdropClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(clipdropRequest{Prompt: prompt}).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call image provider: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &Error{
			StatusCode: resp.StatusCode(),
			Detail:     truncate(string(resp.Body()), maxErrorDetail),
		}
	}

	body := resp.Body()
	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldSize:       len(body),
	}).Info(ctx, "Provider call completed: status=%d", resp.StatusCode())

	return body, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
