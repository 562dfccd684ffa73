package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultAPIURL = "https://api.postmarkapp.com"

var ErrNotConfigured = errors.New("email client not configured: missing server token")

// Client sends transactional email through the Postmark API.
type Client struct {
	serverToken string
	fromEmail   string
	client      *resty.Client
}

type Option func(*Client)

// WithAPIURL points the client at a different Postmark-compatible endpoint.
func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		if apiURL != "" {
			c.client.SetBaseURL(strings.TrimRight(apiURL, "/"))
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.SetTimeout(d)
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		client: resty.New().
			SetBaseURL(defaultAPIURL).
			SetTimeout(10 * time.Second).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

type postmarkError struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// SendLoginLink emails the one-time login link to the given address.
func (c *Client) SendLoginLink(ctx context.Context, toEmail, link string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "Your login link for Superlists",
		TextBody: fmt.Sprintf("Use this link to log in:\n\n%s", link),
		HtmlBody: fmt.Sprintf(`<p>Use this link to log in:</p><p><a href="%s">%s</a></p>`, link, link),
	}

	var apiErr postmarkError
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Postmark-Server-Token", c.serverToken).
		SetBody(payload).
		SetError(&apiErr).
		Post("/email")
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		if apiErr.Message != "" {
			return fmt.Errorf("postmark API error: status %d: %s", resp.StatusCode(), apiErr.Message)
		}
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode())
	}

	return nil
}
