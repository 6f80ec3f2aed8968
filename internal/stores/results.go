package stores

import (
	"sync"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
)

// FetchToken ties an in-flight fetch to the cache generation it was issued
// under. Clearing the store starts a new generation, so completions of
// fetches issued before the clear are silently dropped instead of
// resurrecting results that no longer match the active settings.
type FetchToken struct {
	epoch uint64
}

// ResultsStore caches search results: the ordered identifier list the
// backend returned for each query.
type ResultsStore struct {
	mu     sync.RWMutex
	signal *Signal
	bus    eventbus.EventBus

	epoch   uint64
	results map[domain.SearchQuery][]string
}

// NewResultsStore creates an empty cache.
func NewResultsStore(bus eventbus.EventBus) *ResultsStore {
	return &ResultsStore{
		signal:  NewSignal(),
		bus:     bus,
		results: make(map[domain.SearchQuery][]string),
	}
}

// BeginFetch returns a token for a fetch starting now.
func (s *ResultsStore) BeginFetch() FetchToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FetchToken{epoch: s.epoch}
}

// Apply merges fetched results into the cache, replacing each query's list.
// It reports false, storing nothing, when the cache was cleared after the
// token was issued. Queries that hit nothing are stored as present-but-empty
// so they are not refetched on every pass.
func (s *ResultsStore) Apply(tok FetchToken, results map[domain.SearchQuery][]string) bool {
	s.mu.Lock()
	if tok.epoch != s.epoch {
		s.mu.Unlock()
		return false
	}
	queries := make([]domain.SearchQuery, 0, len(results))
	for q, ids := range results {
		s.results[q] = append([]string(nil), ids...)
		queries = append(queries, q)
	}
	s.signal.broadcast()
	s.mu.Unlock()

	if len(queries) > 0 {
		publish(s.bus, domain.ResultsUpdatedEvent{Queries: queries})
	}
	return true
}

// Get returns the cached identifiers for a query and whether the query has
// been fetched at all. An empty non-nil slice means "searched, no hits".
func (s *ResultsStore) Get(q domain.SearchQuery) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.results[q]
	if !ok {
		return nil, false
	}
	return append([]string(nil), ids...), true
}

// ResultsForQueryOrDefault returns the list a slot face picks its image
// from: the cached results for its query when it has one, else the given
// cardback list for back faces. Queryless front faces have nothing to
// pick from. The second return reports whether any list applies.
func (s *ResultsStore) ResultsForQueryOrDefault(q *domain.SearchQuery, face domain.Face, cardbacks []string) ([]string, bool) {
	if q != nil {
		return s.Get(*q)
	}
	if face == domain.FaceBack {
		return append([]string(nil), cardbacks...), true
	}
	return nil, false
}

// Has reports whether results for the query are cached.
func (s *ResultsStore) Has(q domain.SearchQuery) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.results[q]
	return ok
}

// Missing filters queries down to the ones not yet cached, deduplicated,
// preserving first-seen order.
func (s *ResultsStore) Missing(queries []domain.SearchQuery) []domain.SearchQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[domain.SearchQuery]struct{}, len(queries))
	var missing []domain.SearchQuery
	for _, q := range queries {
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		if _, ok := s.results[q]; !ok {
			missing = append(missing, q)
		}
	}
	return missing
}

// Clear wipes the cache and starts a new generation, invalidating every
// outstanding FetchToken. Publishes ResultsClearedEvent.
func (s *ResultsStore) Clear() {
	s.mu.Lock()
	s.epoch++
	s.results = make(map[domain.SearchQuery][]string)
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.ResultsClearedEvent{})
}

// Len returns the number of cached queries.
func (s *ResultsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Changed returns a channel closed on the next mutation.
func (s *ResultsStore) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signal.wait()
}
