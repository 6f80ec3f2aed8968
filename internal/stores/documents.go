package stores

import (
	"sync"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
)

// DocumentsStore caches card metadata by identifier. Documents are
// immutable on the backend, so the cache only grows until invalidated.
type DocumentsStore struct {
	mu     sync.RWMutex
	signal *Signal
	bus    eventbus.EventBus

	docs map[string]domain.CardDocument
}

// NewDocumentsStore creates an empty cache.
func NewDocumentsStore(bus eventbus.EventBus) *DocumentsStore {
	return &DocumentsStore{signal: NewSignal(), bus: bus, docs: make(map[string]domain.CardDocument)}
}

// Add merges fetched documents and publishes DocumentsUpdatedEvent.
func (s *DocumentsStore) Add(docs map[string]domain.CardDocument) {
	if len(docs) == 0 {
		return
	}
	s.mu.Lock()
	for id, doc := range docs {
		s.docs[id] = doc
	}
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.DocumentsUpdatedEvent{Count: len(docs)})
}

// Get looks a document up by identifier.
func (s *DocumentsStore) Get(identifier string) (domain.CardDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[identifier]
	return doc, ok
}

// Missing filters identifiers down to the ones not yet cached,
// deduplicated, preserving first-seen order.
func (s *DocumentsStore) Missing(identifiers []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(identifiers))
	var missing []string
	for _, id := range identifiers {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := s.docs[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Clear wipes the cache.
func (s *DocumentsStore) Clear() {
	s.mu.Lock()
	s.docs = make(map[string]domain.CardDocument)
	s.signal.broadcast()
	s.mu.Unlock()
}

// Len returns the number of cached documents.
func (s *DocumentsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Changed returns a channel closed on the next mutation.
func (s *DocumentsStore) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signal.wait()
}
