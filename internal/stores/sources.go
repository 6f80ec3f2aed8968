package stores

import (
	"sort"
	"sync"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
)

// SourcesStore holds the backend's contributor list in backend order.
type SourcesStore struct {
	mu     sync.RWMutex
	signal *Signal
	bus    eventbus.EventBus

	sources []domain.Source
	byPK    map[int]domain.Source
	loaded  bool
}

// NewSourcesStore creates an empty store.
func NewSourcesStore(bus eventbus.EventBus) *SourcesStore {
	return &SourcesStore{signal: NewSignal(), bus: bus, byPK: make(map[int]domain.Source)}
}

// Set replaces the source list and publishes SourcesFetchedEvent.
func (s *SourcesStore) Set(sources []domain.Source) {
	cp := append([]domain.Source(nil), sources...)

	s.mu.Lock()
	s.sources = cp
	s.byPK = make(map[int]domain.Source, len(cp))
	for _, src := range cp {
		s.byPK[src.PK] = src
	}
	s.loaded = true
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.SourcesFetchedEvent{Sources: append([]domain.Source(nil), cp...)})
}

// Clear drops the list, for when the backend connection goes away.
func (s *SourcesStore) Clear() {
	s.mu.Lock()
	s.sources = nil
	s.byPK = make(map[int]domain.Source)
	s.loaded = false
	s.signal.broadcast()
	s.mu.Unlock()
}

// Get looks a source up by primary key.
func (s *SourcesStore) Get(pk int) (domain.Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.byPK[pk]
	return src, ok
}

// All returns the sources in backend order.
func (s *SourcesStore) All() []domain.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Source(nil), s.sources...)
}

// Loaded reports whether a source list has been fetched.
func (s *SourcesStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Keys returns every source key, sorted. The sorted key set identifies a
// backend's source population for settings persistence.
func (s *SourcesStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		keys = append(keys, src.Key)
	}
	sort.Strings(keys)
	return keys
}

// Changed returns a channel closed on the next mutation.
func (s *SourcesStore) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signal.wait()
}
