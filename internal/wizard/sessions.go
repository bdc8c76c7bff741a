package wizard

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("wizard: session not found")

// defaultIdleTTL is how long an untouched session survives before it is
// treated as abandoned and its draft discarded.
const defaultIdleTTL = 2 * time.Hour

// Sessions holds one wizard per active visitor. Each wizard owns its
// draft exclusively; the map itself is the only shared structure.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	newDeps func() Deps
	idleTTL time.Duration
}

type sessionEntry struct {
	wizard   *Wizard
	lastSeen time.Time
}

// NewSessions creates a session manager. newDeps builds the collaborator
// set for each fresh wizard.
func NewSessions(newDeps func() Deps) *Sessions {
	return &Sessions{
		entries: make(map[string]*sessionEntry),
		newDeps: newDeps,
		idleTTL: defaultIdleTTL,
	}
}

// Create mounts a new wizard and returns its session id.
func (s *Sessions) Create() (string, *Wizard) {
	id := newSessionID()
	w := New(s.newDeps())

	s.mu.Lock()
	s.entries[id] = &sessionEntry{wizard: w, lastSeen: time.Now()}
	s.mu.Unlock()

	log.Printf("[session] created %s", id)
	return id, w
}

// Get returns the wizard for a session id, refreshing its idle clock.
func (s *Sessions) Get(id string) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = time.Now()
	return e.wizard, nil
}

// Delete tears a session down, abandoning its draft.
func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Sweep drops sessions idle past the TTL. Run periodically from main.
func (s *Sessions) Sweep() int {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[session] swept %d abandoned session(s)", removed)
	}
	return removed
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// rand.Read only fails if the OS entropy source is broken.
		return hex.EncodeToString([]byte(time.Now().String()))[:32]
	}
	return hex.EncodeToString(b)
}
