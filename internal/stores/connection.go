package stores

import (
	"sync"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
)

// ConnectionStore tracks the backend the app is talking to. At most one
// backend is active at a time; establishing a new one implicitly drops
// the previous.
type ConnectionStore struct {
	mu     sync.RWMutex
	signal *Signal
	bus    eventbus.EventBus

	url       string
	info      domain.ServerInfo
	connected bool
}

// NewConnectionStore creates a disconnected store.
func NewConnectionStore(bus eventbus.EventBus) *ConnectionStore {
	return &ConnectionStore{signal: NewSignal(), bus: bus}
}

// Establish records a reachable backend and publishes BackendConnectedEvent.
func (s *ConnectionStore) Establish(url string, info domain.ServerInfo) {
	s.mu.Lock()
	s.url = url
	s.info = info
	s.connected = true
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.BackendConnectedEvent{URL: url, Info: info})
}

// Clear drops the active backend. Publishes BackendClearedEvent only if a
// backend was actually set.
func (s *ConnectionStore) Clear() {
	s.mu.Lock()
	was := s.connected
	s.url = ""
	s.info = domain.ServerInfo{}
	s.connected = false
	s.signal.broadcast()
	s.mu.Unlock()

	if was {
		publish(s.bus, domain.BackendClearedEvent{})
	}
}

// Connected reports whether a backend is active.
func (s *ConnectionStore) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// URL returns the active backend URL, or "" when disconnected.
func (s *ConnectionStore) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Info returns the server-provided metadata of the active backend.
func (s *ConnectionStore) Info() domain.ServerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Changed returns a channel closed on the next mutation.
func (s *ConnectionStore) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signal.wait()
}
