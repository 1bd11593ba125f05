// Package controller drives the scrape request lifecycle: validate, dispatch
// one call, and settle into exactly one of a result or an error message.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Tharun-raj-u/WebScrapper/models"
)

// ErrBusy is returned when a submission arrives while another is in flight.
var ErrBusy = errors.New("controller: a scrape is already in progress")

// Dispatcher issues the single outbound call for a submission.
type Dispatcher interface {
	Scrape(ctx context.Context, req *models.ScrapeRequest) (*models.Envelope, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout bounds each dispatched call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// Controller owns the lifecycle state. It has one writer (Submit) and any
// number of readers.
type Controller struct {
	dispatcher Dispatcher
	timeout    time.Duration
	log        *slog.Logger

	mu     sync.RWMutex
	state  models.LifecycleState
	result *models.ScrapeResult
	errMsg string
	req    models.ScrapeRequest
}

// New creates an idle Controller.
func New(d Dispatcher, opts ...Option) *Controller {
	c := &Controller{
		dispatcher: d,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit validates raw user input and runs one scrape to completion.
//
// It returns ErrBusy without touching state when a submission is already
// in flight. Every other outcome, including validation failure, is
// reported through the returned snapshot, never as an error.
func (c *Controller) Submit(ctx context.Context, rawURL, rawMaxPages string) (models.Snapshot, error) {
	return c.SubmitRequest(ctx, models.ScrapeRequest{
		URL:      rawURL,
		MaxPages: ParseMaxPages(rawMaxPages),
	})
}

// SubmitRequest is Submit for callers that already hold typed input.
// The URL is trimmed and checked the same way.
func (c *Controller) SubmitRequest(ctx context.Context, req models.ScrapeRequest) (models.Snapshot, error) {
	snap, finish, err := c.Start(req)
	if err != nil {
		return snap, err
	}
	return finish(ctx), nil
}

// Finish runs the dispatch claimed by Start and returns the terminal snapshot.
type Finish func(ctx context.Context) models.Snapshot

// Start validates req and claims the Submitting state without blocking.
//
// It returns ErrBusy when a submission is already in flight. Otherwise the
// returned snapshot is Submitting, or Failed for an empty URL, and finish
// must be called exactly once to settle the terminal state. Callers that
// want to show progress call finish from another goroutine.
func (c *Controller) Start(req models.ScrapeRequest) (models.Snapshot, Finish, error) {
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		snap, err := c.rejectEmptyURL(req)
		if err != nil {
			return snap, nil, err
		}
		return snap, func(context.Context) models.Snapshot { return snap }, nil
	}

	c.mu.Lock()
	if c.state == models.StateSubmitting {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil, ErrBusy
	}
	c.state = models.StateSubmitting
	c.result = nil
	c.errMsg = ""
	c.req = req
	snap := c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	var final models.Snapshot
	finish := func(ctx context.Context) models.Snapshot {
		once.Do(func() { final = c.run(ctx, req) })
		return final
	}
	return snap, finish, nil
}

// run dispatches req and records the outcome. The caller holds the
// Submitting claim.
func (c *Controller) run(ctx context.Context, req models.ScrapeRequest) models.Snapshot {
	start := time.Now()
	c.log.Info("scrape dispatched", "url", req.URL, "maxPages", req.MaxPages)

	result, msg := c.dispatch(ctx, &req)

	c.mu.Lock()
	if result != nil {
		c.state = models.StateSucceeded
		c.result = result
	} else {
		c.state = models.StateFailed
		c.errMsg = msg
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	attrs := []any{
		"url", req.URL,
		"state", snap.State.String(),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	}
	if result != nil {
		c.log.Info("scrape finished", append(attrs, "pages", result.PageCount())...)
	} else {
		c.log.Warn("scrape finished", append(attrs, "error", msg)...)
	}
	return snap
}

// dispatch performs the outbound call and reduces its outcome to either a
// result or a message.
func (c *Controller) dispatch(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResult, string) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	env, err := c.dispatcher.Scrape(ctx, req)
	if err != nil {
		var te *models.TransportError
		if !errors.As(err, &te) {
			te = &models.TransportError{Err: err}
		}
		return nil, TransportMessage(te)
	}

	if env.Succeeded() {
		return models.NewScrapeResult(env.Data), ""
	}
	return nil, BusinessMessage(env)
}

func (c *Controller) rejectEmptyURL(req models.ScrapeRequest) (models.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == models.StateSubmitting {
		return c.snapshotLocked(), ErrBusy
	}
	c.state = models.StateFailed
	c.result = nil
	c.errMsg = MsgEmptyURL
	c.req = req
	return c.snapshotLocked(), nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() models.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() models.Snapshot {
	return models.Snapshot{State: c.state, Result: c.result, Error: c.errMsg, Request: c.req}
}

// State returns the current lifecycle state.
func (c *Controller) State() models.LifecycleState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Busy reports whether a submission is in flight.
func (c *Controller) Busy() bool {
	return c.State() == models.StateSubmitting
}

// Result returns the held result, or nil.
func (c *Controller) Result() *models.ScrapeResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

// ParseMaxPages reads the leading integer of s, ignoring surrounding
// whitespace ("3", " 3 ", "3 pages" all give 3). Input with no leading
// integer yields models.DefaultMaxPages.
func ParseMaxPages(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return models.DefaultMaxPages
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return models.DefaultMaxPages
	}
	return n
}
