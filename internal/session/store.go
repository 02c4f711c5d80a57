// Package session keeps one LocationState per form client in a bounded,
// thread-safe LRU store.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/couchcryptid/delivery-eta-service/internal/domain"
	"github.com/couchcryptid/delivery-eta-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrSessionNotFound is returned for unknown or evicted session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Session is a snapshot of one client's form state.
type Session struct {
	ID        string               `json:"id"`
	Location  domain.LocationState `json:"location"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Store holds at most maxEntries sessions and evicts the least recently used
// one when full. Get and Update count as use.
type Store struct {
	maxEntries int
	clock      clockwork.Clock
	metrics    *observability.Metrics

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	session Session
	prev    *entry
	next    *entry
}

// NewStore creates an empty store. maxEntries below 1 is treated as 1.
func NewStore(maxEntries int, metrics *observability.Metrics) *Store {
	return &Store{
		maxEntries: max(maxEntries, 1),
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
		entries:    make(map[string]*entry),
	}
}

// Create stores a new session holding loc and returns it.
func (s *Store) Create(loc domain.LocationState) Session {
	now := s.clock.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		Location:  loc,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{session: sess}
	s.entries[sess.ID] = e
	s.addToFront(e)
	if len(s.entries) > s.maxEntries {
		s.evictTail()
	}
	s.metrics.ActiveSessions.Set(float64(len(s.entries)))
	return sess
}

// Get returns the session with the given ID.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	s.moveToFront(e)
	return e.session, nil
}

// Update runs fn on a copy of the session's location and stores the result
// only when fn succeeds, so a failed edit leaves the session untouched. fn
// runs under the store lock and must not call back into the store.
func (s *Store) Update(id string, fn func(loc *domain.LocationState) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	s.moveToFront(e)

	loc := e.session.Location
	if err := fn(&loc); err != nil {
		return e.session, err
	}
	e.session.Location = loc
	e.session.UpdatedAt = s.clock.Now().UTC()
	return e.session, nil
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return false
	}
	delete(s.entries, id)
	s.remove(e)
	s.metrics.ActiveSessions.Set(float64(len(s.entries)))
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) moveToFront(e *entry) {
	if e == s.head {
		return
	}
	s.remove(e)
	s.addToFront(e)
}

func (s *Store) addToFront(e *entry) {
	e.next = s.head
	e.prev = nil
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *Store) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (s *Store) evictTail() {
	if s.tail == nil {
		return
	}
	delete(s.entries, s.tail.session.ID)
	s.remove(s.tail)
	s.metrics.SessionEvictions.Inc()
}
