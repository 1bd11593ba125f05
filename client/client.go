// Package client talks to the remote scraping service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Tharun-raj-u/WebScrapper/config"
	"github.com/Tharun-raj-u/WebScrapper/models"
)

// Version is sent in the User-Agent header.
const Version = "0.1.0"

const maxBodyBytes = 10 * 1024 * 1024 // 10 MB cap

// Client POSTs scrape requests to a single fixed endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	log      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for response warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client for the configured endpoint.
//
// The client itself has no timeout; callers bound each call through the
// context so that a timeout surfaces as a transport failure.
func New(cfg config.RemoteConfig, opts ...Option) *Client {
	c := &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{},
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Endpoint returns the URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Scrape sends exactly one request and returns the decoded envelope.
//
// Any non-2xx status or network failure is returned as a
// *models.TransportError. A 2xx body that is not a JSON object yields an
// empty envelope, which reads as an unsuccessful scrape.
func (c *Client) Scrape(ctx context.Context, req *models.ScrapeRequest) (*models.Envelope, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("client: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &models.TransportError{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "webscrapper/"+Version)
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &models.TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &models.TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("read response: %w", err),
		}
	}
	if len(respBody) > maxBodyBytes {
		return nil, &models.TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response body exceeds %d bytes", maxBodyBytes),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		te := &models.TransportError{StatusCode: resp.StatusCode}
		if json.Valid(respBody) {
			te.Payload = respBody
		}
		return nil, te
	}

	var env models.Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		c.log.Warn("scrape response is not a JSON object",
			"endpoint", c.endpoint,
			"status", resp.StatusCode,
			"error", err,
		)
		return &models.Envelope{}, nil
	}
	return &env, nil
}
