// Package exporter turns a held scrape result into a downloadable JSON file.
package exporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Tharun-raj-u/WebScrapper/models"
)

// ContentType of every exported artifact.
const ContentType = "application/json"

// ErrNoResult is returned when there is nothing to export.
var ErrNoResult = errors.New("exporter: no result to export")

// Artifact is a serialized result ready to hand to the host.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Filename returns scraped-<YYYY-MM-DD>.json for the UTC date of now.
func Filename(now time.Time) string {
	return "scraped-" + now.UTC().Format("2006-01-02") + ".json"
}

// ExportJSON pretty-prints the result with two-space indentation,
// preserving the key order the service sent.
func ExportJSON(result *models.ScrapeResult, now time.Time) (*Artifact, error) {
	if result == nil {
		return nil, ErrNoResult
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("exporter: marshal result: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("exporter: indent result: %w", err)
	}
	buf.WriteByte('\n')

	return &Artifact{
		Filename:    Filename(now),
		ContentType: ContentType,
		Body:        buf.Bytes(),
	}, nil
}

// MustExportJSON is ExportJSON for a result known to be present. The
// payload comes from a trusted contract, so a serialization failure is a
// programming error and panics.
func MustExportJSON(result *models.ScrapeResult, now time.Time) *Artifact {
	a, err := ExportJSON(result, now)
	if err != nil {
		panic(err)
	}
	return a
}
