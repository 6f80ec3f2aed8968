package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"deckforge/internal/backend"
	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
	"deckforge/internal/stores"
)

// ErrNotConnected is returned by import paths that need the backend while
// no backend is adopted.
var ErrNotConnected = errors.New("no backend connected")

// Service applies decklists to the project. It keeps its own backend
// client for the import-only routes (DFC pairs, import sites, site
// decklists), built from the connection events on the bus.
type Service struct {
	bus    eventbus.EventBus
	stores *stores.Stores
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	client   *backend.Client
	pairs    map[string]string // normalized DFC front name → back name
	maxBatch int               // 0 means only the project size cap applies

	unsubscribe []func()
}

// New creates the import service. Call Run to register its subscriptions.
func New(bus eventbus.EventBus, st *stores.Stores, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		bus:    bus,
		stores: st,
		logger: logger.Named("importer"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run subscribes to connection lifecycle and import request events.
func (s *Service) Run() {
	sub := func(t eventbus.EventType, h eventbus.EventHandler) {
		s.unsubscribe = append(s.unsubscribe, s.bus.Subscribe(t, h))
	}
	sub(domain.EventBackendConnected, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.BackendConnectedEvent); ok {
			s.onBackendConnected(ev)
		}
	})
	sub(domain.EventBackendCleared, func(e eventbus.DomainEvent) {
		if _, ok := e.(eventbus.BackendClearedEvent); ok {
			s.setClient(nil, nil)
		}
	})
	sub(domain.EventImportRequested, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.ImportRequestedEvent); ok {
			s.ImportText(ev.Text, ev.Replace)
		}
	})
}

// Stop unregisters the subscriptions and cancels in-flight fetches.
func (s *Service) Stop() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.unsubscribe = nil
	s.cancel()
	s.wg.Wait()
}

// ImportText parses decklist text and applies it to the project, replacing
// the current slots when replace is set.
func (s *Service) ImportText(text string, replace bool) (added int, truncated bool) {
	return s.apply(ParseText(text), replace)
}

// ImportCSV parses a Quantity,Front,Back CSV decklist and applies it.
func (s *Service) ImportCSV(data []byte, replace bool) (int, bool, error) {
	entries, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		return 0, false, err
	}
	added, truncated := s.apply(entries, replace)
	return added, truncated, nil
}

// ImportFile reads a decklist file, choosing the CSV parser by extension.
func (s *Service) ImportFile(path string, replace bool) (int, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read decklist: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return s.ImportCSV(data, replace)
	}
	added, truncated := s.ImportText(string(data), replace)
	return added, truncated, nil
}

// ImportURL asks the backend to read a decklist from a deck-building site
// URL and applies it as text.
func (s *Service) ImportURL(url string, replace bool) (int, bool, error) {
	client := s.backendClient()
	if client == nil {
		return 0, false, ErrNotConnected
	}
	text, err := client.ImportSiteDecklist(s.ctx, url)
	if err != nil {
		return 0, false, err
	}
	added, truncated := s.ImportText(text, replace)
	return added, truncated, nil
}

// ImportSites lists the deck-building sites the backend can import from.
func (s *Service) ImportSites() ([]domain.ImportSite, error) {
	client := s.backendClient()
	if client == nil {
		return nil, ErrNotConnected
	}
	return client.ImportSites(s.ctx)
}

// DFCPairs returns the current pairing table. The returned map is shared
// and must be treated as read-only.
func (s *Service) DFCPairs() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pairs
}

// SetMaxBatch caps how many slots a single import may add. Zero or
// negative clears the cap; the project size limit always applies.
func (s *Service) SetMaxBatch(n int) {
	s.mu.Lock()
	s.maxBatch = n
	s.mu.Unlock()
}

func (s *Service) batchLimit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxBatch
}

// apply expands the entries and writes them to the project store, then
// announces the outcome. Replacing keeps the project's identity, name and
// cardback; only the slots change.
func (s *Service) apply(entries []Entry, replace bool) (added int, truncated bool) {
	slots := BuildSlots(entries, s.DFCPairs())
	if limit := s.batchLimit(); limit > 0 && len(slots) > limit {
		slots = slots[:limit]
		truncated = true
	}
	if replace {
		snap := s.stores.Project.Snapshot()
		added = len(slots)
		if added > domain.MaxProjectSize {
			added = domain.MaxProjectSize
			truncated = true
		}
		s.stores.Project.Replace(domain.Project{
			Key:      snap.Key,
			Name:     snap.Name,
			Cardback: snap.Cardback,
			Slots:    slots,
		})
	} else {
		var capped bool
		added, capped = s.stores.Project.AddMembers(slots)
		truncated = truncated || capped
	}
	s.stores.Errors.Dismiss(stores.ErrKeyImport)
	s.bus.Publish(domain.ImportCompletedEvent{SlotsAdded: added, Truncated: truncated})
	return added, truncated
}

// onBackendConnected builds a client for the new backend and loads its DFC
// pairing table. Pair fetch failures are logged only; imports still work,
// just without auto-paired backs.
func (s *Service) onBackendConnected(ev eventbus.BackendConnectedEvent) {
	client := backend.New(ev.URL, s.logger)
	s.setClient(client, nil)

	pairs, err := client.DFCPairs(s.ctx)
	if err != nil {
		s.logger.Warn("dfc pair fetch failed", zap.Error(err))
		return
	}
	table := make(map[string]string, len(pairs))
	for _, p := range pairs {
		table[NormalizeQuery(p.Front)] = NormalizeQuery(p.Back)
	}

	s.mu.Lock()
	if s.client == client {
		s.pairs = table
	}
	s.mu.Unlock()
	s.logger.Debug("dfc pairs loaded", zap.Int("pairs", len(table)))
}

func (s *Service) setClient(client *backend.Client, pairs map[string]string) {
	s.mu.Lock()
	s.client = client
	s.pairs = pairs
	s.mu.Unlock()
}

func (s *Service) backendClient() *backend.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}
