package status

import (
	"sync"
	"time"
)

// Snapshot represents the latest status available to the display.
type Snapshot struct {
	Status      NodeStatus
	HasStatus   bool
	LastUpdated time.Time
	Generation  uint64 // incremented on every replacement
}

// Store holds the current NodeStatus. Values are only ever swapped whole.
// The zero value is ready to use and starts with the placeholder status.
type Store struct {
	once     sync.Once
	mu       sync.RWMutex
	snapshot Snapshot
	changed  chan struct{}
}

func (s *Store) init() {
	s.once.Do(func() {
		s.snapshot.Status = Initial()
		s.changed = make(chan struct{})
	})
}

// Replace swaps in next as the current status. Nothing from the previous value
// survives: fields absent from the payload stay at their zero value.
func (s *Store) Replace(next NodeStatus) {
	s.init()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = Snapshot{
		Status:      normalize(next.Clone()),
		HasStatus:   true,
		LastUpdated: time.Now(),
		Generation:  s.snapshot.Generation + 1,
	}
	close(s.changed)
	s.changed = make(chan struct{})
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.init()
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Status = s.snapshot.Status.Clone()
	return snap
}

// Changed returns a channel that is closed by the next Replace.
func (s *Store) Changed() <-chan struct{} {
	s.init()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}
