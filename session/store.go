// Package session keeps one scrape controller per browser session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tharun-raj-u/WebScrapper/controller"
)

// Factory builds the controller for a new session.
type Factory func() *controller.Controller

// entry holds a session controller with its last access time.
type entry struct {
	ctrl     *controller.Controller
	lastSeen time.Time
}

// Store is an in-memory map from session id to controller.
// It is safe for concurrent use. Nothing is persisted.
type Store struct {
	mu         sync.Mutex
	store      map[string]*entry
	maxEntries int
	idleTTL    time.Duration
	factory    Factory
	now        func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once

	inflight sync.WaitGroup
}

// New creates a Store holding at most maxEntries sessions. A background
// goroutine evicts sessions idle for longer than idleTTL; call Close to
// stop it.
func New(maxEntries int, idleTTL time.Duration, factory Factory) *Store {
	s := &Store{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		idleTTL:    idleTTL,
		factory:    factory,
		now:        time.Now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	go s.cleanupLoop()
	return s
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// Get returns the controller for id, creating one when id is unknown.
// The returned id differs from the input when a new session was created
// for an empty or malformed id.
func (s *Store) Get(id string) (string, *controller.Controller) {
	if _, err := uuid.Parse(id); err != nil {
		id = NewID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.store[id]; ok {
		e.lastSeen = s.now()
		return id, e.ctrl
	}

	if s.maxEntries > 0 && len(s.store) >= s.maxEntries {
		s.evictOneLocked()
	}

	e := &entry{ctrl: s.factory(), lastSeen: s.now()}
	s.store[id] = e
	return id, e.ctrl
}

// Peek returns the controller for id without creating or touching it.
func (s *Store) Peek(id string) (*controller.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.store[id]
	if !ok {
		return nil, false
	}
	return e.ctrl, true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.store)
}

// Go runs fn in the background as work owned by a session. Wait blocks
// until every such call has returned.
func (s *Store) Go(fn func()) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		fn()
	}()
}

// Wait blocks until background work started with Go has finished or ctx
// is done.
func (s *Store) Wait(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Close has been called. Background work tied to the
// store's lifetime selects on it.
func (s *Store) Done() <-chan struct{} {
	return s.stop
}

// Close stops the cleanup goroutine.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// evictOneLocked drops the least recently seen idle session. Sessions
// with a scrape in flight are skipped; if every session is busy the
// oldest one goes anyway.
func (s *Store) evictOneLocked() {
	var victim string
	var oldest time.Time
	for k, e := range s.store {
		if e.ctrl.Busy() {
			continue
		}
		if victim == "" || e.lastSeen.Before(oldest) {
			victim, oldest = k, e.lastSeen
		}
	}
	if victim == "" {
		for k, e := range s.store {
			if victim == "" || e.lastSeen.Before(oldest) {
				victim, oldest = k, e.lastSeen
			}
		}
	}
	delete(s.store, victim)
}

// Sweep evicts idle sessions that are not mid-scrape. It returns the
// number evicted.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.store {
		if e.lastSeen.Before(cutoff) && !e.ctrl.Busy() {
			delete(s.store, k)
			n++
		}
	}
	return n
}

// cleanupLoop sweeps idle sessions every 5 minutes.
func (s *Store) cleanupLoop() {
	defer close(s.done)
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
