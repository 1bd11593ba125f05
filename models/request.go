package models

import (
	"bytes"
	"encoding/json"
)

// Page-count bounds offered by the selector.
const (
	MinMaxPages     = 1
	MaxMaxPages     = 5
	DefaultMaxPages = 5
)

// ScrapeRequest is the body POSTed to the remote scraping service.
// It is built from trimmed user input and never mutated after dispatch.
type ScrapeRequest struct {
	// URL is the site to scrape. Required, already trimmed.
	URL string `json:"url"`

	// MaxPages bounds how many pages the remote crawler visits.
	MaxPages int `json:"maxPages"`
}

// SubmitForm is the payload of the HTML form.
//
// MaxPages is kept as a string so the controller applies its own
// leading-integer parsing to whatever the caller sent.
type SubmitForm struct {
	URL      string `form:"url"`
	MaxPages string `form:"maxPages"`
}

// APISubmitRequest is the JSON body of POST /api/v1/scrape. maxPages may
// arrive as a number or a string.
type APISubmitRequest struct {
	URL      string          `json:"url"`
	MaxPages json.RawMessage `json:"maxPages"`
}

// MaxPagesText returns maxPages as text for the controller's parser.
func (r *APISubmitRequest) MaxPagesText() string {
	raw := bytes.TrimSpace(r.MaxPages)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
