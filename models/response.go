package models

import (
	"bytes"
	"encoding/json"
)

// Envelope is the body returned by the remote scraping service.
//
// Every field is kept raw because the service is not consistent about
// shapes: errors may be a list or a scalar, error may be a string or an
// object. Interpretation happens in the controller.
type Envelope struct {
	Success json.RawMessage `json:"success,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// Succeeded reports whether the envelope carries success == true.
func (e *Envelope) Succeeded() bool {
	if e == nil {
		return false
	}
	return bytes.Equal(bytes.TrimSpace(e.Success), []byte("true"))
}

// ScrapeResult is the payload of a successful scrape.
//
// Raw holds the bytes exactly as the service sent them; the remaining
// fields are a read-only summary decoded from Raw for display.
type ScrapeResult struct {
	Raw json.RawMessage

	SiteTitle string
	BaseURL   string
	Pages     []json.RawMessage
}

type resultSummary struct {
	SiteTitle string            `json:"siteTitle"`
	BaseURL   string            `json:"baseUrl"`
	Pages     []json.RawMessage `json:"pages"`
}

// NewScrapeResult wraps the data field of a successful envelope.
// A missing data field is held as JSON null.
func NewScrapeResult(data json.RawMessage) *ScrapeResult {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 {
		raw = []byte("null")
	}
	r := &ScrapeResult{Raw: append(json.RawMessage(nil), raw...)}

	// Page records and the other fields are owned by the service; a shape
	// we cannot summarise still counts as a result.
	var s resultSummary
	if err := json.Unmarshal(raw, &s); err == nil {
		r.SiteTitle = s.SiteTitle
		r.BaseURL = s.BaseURL
		r.Pages = s.Pages
	}
	return r
}

// DisplayTitle returns the site title, or a generic label when absent.
func (r *ScrapeResult) DisplayTitle() string {
	if r.SiteTitle != "" {
		return r.SiteTitle
	}
	return "Scraped Content"
}

// PageCount returns the number of page records in the result.
func (r *ScrapeResult) PageCount() int {
	return len(r.Pages)
}

// MarshalJSON emits the original bytes so the result round-trips unchanged.
func (r *ScrapeResult) MarshalJSON() ([]byte, error) {
	if r == nil || len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

// StateResponse is the local API view of a controller snapshot.
type StateResponse struct {
	State  string        `json:"state"`
	Busy   bool          `json:"busy"`
	Result *ScrapeResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// APIResponse wraps failures of the local API itself (auth, rate limit,
// bad input, busy), as opposed to scrape failures which live in StateResponse.
type APIResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
}
