package stores

import (
	"sync"

	"github.com/google/go-cmp/cmp"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
)

// SettingsStore holds the active search settings. Settings are not
// considered ready until they have been written once (normally right after
// the source list for a backend is known), which gates the reactions that
// need them.
type SettingsStore struct {
	mu     sync.RWMutex
	signal *Signal
	bus    eventbus.EventBus

	settings domain.SearchSettings
	ready    bool
}

// NewSettingsStore creates an empty, not-yet-ready store.
func NewSettingsStore(bus eventbus.EventBus) *SettingsStore {
	return &SettingsStore{signal: NewSignal(), bus: bus}
}

// Set replaces the settings. It reports whether the value actually changed;
// an identical write is a no-op and publishes nothing, so repeated saves of
// an untouched settings dialog do not trigger refetch cascades. userEdited
// marks explicit edits, the only ones the coordinator persists.
func (s *SettingsStore) Set(settings domain.SearchSettings, userEdited bool) bool {
	s.mu.Lock()
	if s.ready && cmp.Equal(s.settings, settings) {
		s.mu.Unlock()
		return false
	}
	s.settings = settings.Clone()
	s.ready = true
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.SettingsChangedEvent{Settings: settings.Clone(), UserEdited: userEdited})
	return true
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() domain.SearchSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// Ready reports whether settings have been written at least once.
func (s *SettingsStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Changed returns a channel closed on the next mutation.
func (s *SettingsStore) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signal.wait()
}
