// Package state holds the dashboard's observable state.
package state

import (
	"sync"

	"github.com/CaioWing/repairdesk/internal/domain"
)

type Listener func(domain.DashboardState)

// Store owns one DashboardState. Mutations go through Update, which notifies
// listeners once with the complete new snapshot.
type Store struct {
	mu        sync.RWMutex
	state     domain.DashboardState
	nextID    uint64
	listeners map[uint64]Listener
	order     []uint64
}

func NewStore() *Store {
	return &Store{
		state:     domain.NewDashboardState(),
		listeners: make(map[uint64]Listener),
	}
}

// Get returns a copy of the current state.
func (s *Store) Get() domain.DashboardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update applies fn under the store lock, then notifies listeners with the
// resulting snapshot.
func (s *Store) Update(fn func(*domain.DashboardState)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state.Clone()
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = l
	s.order = append(s.order, id)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.listeners[id]; !ok {
			return
		}
		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Reset restores the initial state and drops every listener.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.NewDashboardState()
	s.listeners = make(map[uint64]Listener)
	s.order = nil
}

func (s *Store) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.listeners[id])
	}
	return out
}
