package stores

import (
	"sort"
	"sync"
	"time"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
)

// Error keys for the background operations that report here.
const (
	ErrKeyConnect       = "connect"
	ErrKeySources       = "sources"
	ErrKeySearchResults = "search-results"
	ErrKeyCards         = "cards"
	ErrKeyCardbacks     = "cardbacks"
	ErrKeyImport        = "import"
	ErrKeyPersist       = "persist"
)

// ErrorRecord is one reported failure.
type ErrorRecord struct {
	Key     string
	Name    string
	Message string
	At      time.Time
}

// ErrorsStore collects failures from fire-and-forget operations, keyed by
// operation, so the UI can surface them without any operation retrying.
// A repeated failure of an operation replaces its previous record rather
// than piling up.
type ErrorsStore struct {
	mu     sync.RWMutex
	signal *Signal
	bus    eventbus.EventBus

	records map[string]ErrorRecord
	now     func() time.Time
}

// NewErrorsStore creates an empty store.
func NewErrorsStore(bus eventbus.EventBus) *ErrorsStore {
	return &ErrorsStore{
		signal:  NewSignal(),
		bus:     bus,
		records: make(map[string]ErrorRecord),
		now:     time.Now,
	}
}

// Report records a failure and publishes ErrorReportedEvent.
func (s *ErrorsStore) Report(key, name, message string) {
	s.mu.Lock()
	s.records[key] = ErrorRecord{Key: key, Name: name, Message: message, At: s.now()}
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.ErrorReportedEvent{Key: key, Name: name, Message: message})
}

// Dismiss drops the record for one operation, if present.
func (s *ErrorsStore) Dismiss(key string) {
	s.mu.Lock()
	_, ok := s.records[key]
	if ok {
		delete(s.records, key)
		s.signal.broadcast()
	}
	s.mu.Unlock()

	if ok {
		publish(s.bus, domain.ErrorDismissedEvent{Key: key})
	}
}

// DismissAll drops every record.
func (s *ErrorsStore) DismissAll() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	s.records = make(map[string]ErrorRecord)
	if len(keys) > 0 {
		s.signal.broadcast()
	}
	s.mu.Unlock()

	for _, k := range keys {
		publish(s.bus, domain.ErrorDismissedEvent{Key: k})
	}
}

// Get returns the record for one operation.
func (s *ErrorsStore) Get(key string) (ErrorRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

// All returns every record, oldest first.
func (s *ErrorsStore) All() []ErrorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ErrorRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// Count returns the number of records.
func (s *ErrorsStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Changed returns a channel closed on the next mutation.
func (s *ErrorsStore) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signal.wait()
}
