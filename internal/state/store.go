package state

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the browser state for sinks and
// status displays.
type Snapshot struct {
	Query               Query
	Loading             bool
	Categories          []string
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has failed several fetches in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store records the outcome of catalog fetches. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records a fetch outcome. When err is non-nil the failure streak
// grows; a nil err resets it.
func (s *Store) Update(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Reset forgets all recorded outcomes.
func (s *Store) Reset() {
	s.mu.Lock()
	s.snapshot = Snapshot{}
	s.mu.Unlock()
}

// Snapshot returns the recorded outcome fields merged over base.
func (s *Store) Snapshot(base Snapshot) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base.LastUpdated = s.snapshot.LastUpdated
	base.ConsecutiveFailures = s.snapshot.ConsecutiveFailures
	base.LastError = nil
	if s.snapshot.LastError != nil {
		base.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return base
}
