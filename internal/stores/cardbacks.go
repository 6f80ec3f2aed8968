package stores

import (
	"sync"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
)

// CardbacksStore holds the identifiers of cardbacks eligible under the
// active search settings, in backend preference order. Like the results
// cache it is generation-guarded: clearing it invalidates in-flight
// fetches issued before the clear.
type CardbacksStore struct {
	mu     sync.RWMutex
	signal *Signal
	bus    eventbus.EventBus

	epoch     uint64
	cardbacks []string
	loaded    bool
}

// NewCardbacksStore creates an empty store.
func NewCardbacksStore(bus eventbus.EventBus) *CardbacksStore {
	return &CardbacksStore{signal: NewSignal(), bus: bus}
}

// BeginFetch returns a token for a fetch starting now.
func (s *CardbacksStore) BeginFetch() FetchToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FetchToken{epoch: s.epoch}
}

// Apply replaces the cardback list and publishes CardbacksFetchedEvent.
// It reports false, storing nothing, when the store was cleared after
// the token was issued.
func (s *CardbacksStore) Apply(tok FetchToken, cardbacks []string) bool {
	cp := append([]string(nil), cardbacks...)

	s.mu.Lock()
	if tok.epoch != s.epoch {
		s.mu.Unlock()
		return false
	}
	s.cardbacks = cp
	s.loaded = true
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.CardbacksFetchedEvent{Cardbacks: append([]string(nil), cp...)})
	return true
}

// All returns the cardbacks in preference order.
func (s *CardbacksStore) All() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.cardbacks...)
}

// First returns the default cardback (the backend's first) or "".
func (s *CardbacksStore) First() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.cardbacks) == 0 {
		return ""
	}
	return s.cardbacks[0]
}

// Contains reports whether the identifier is an eligible cardback.
func (s *CardbacksStore) Contains(identifier string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.cardbacks {
		if id == identifier {
			return true
		}
	}
	return false
}

// Loaded reports whether a cardback list has been fetched.
func (s *CardbacksStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Clear wipes the list and starts a new generation.
func (s *CardbacksStore) Clear() {
	s.mu.Lock()
	s.epoch++
	s.cardbacks = nil
	s.loaded = false
	s.signal.broadcast()
	s.mu.Unlock()
}

// Changed returns a channel closed on the next mutation.
func (s *CardbacksStore) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signal.wait()
}
