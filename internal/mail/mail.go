// Package mail sends transactional email through the Resend HTTP API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Resend endpoint.
const DefaultBaseURL = "https://api.resend.com"

// Recipient is a destination address.
type Recipient struct {
	Email string
	Name  string
}

// Message is an HTML email.
type Message struct {
	Subject     string
	HTML        string
	SenderName  string
	SenderEmail string
}

// Client talks to a Resend-compatible API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used in tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a mail client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendParams struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers one message to all recipients in a single email.
func (c *Client) Send(ctx context.Context, recipients []Recipient, msg Message) error {
	params := buildParams(recipients, msg)
	return c.post(ctx, "/emails", params)
}

// SendBatch delivers one message per recipient in a single API call.
func (c *Client) SendBatch(ctx context.Context, recipients []Recipient, msg Message) error {
	batch := make([]sendParams, len(recipients))
	for i, r := range recipients {
		batch[i] = buildParams([]Recipient{r}, msg)
	}
	return c.post(ctx, "/emails/batch", batch)
}

func buildParams(recipients []Recipient, msg Message) sendParams {
	to := make([]string, len(recipients))
	for i, r := range recipients {
		to[i] = r.Email
	}
	return sendParams{
		From:    fmt.Sprintf("%s <%s>", msg.SenderName, msg.SenderEmail),
		To:      to,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail API returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
