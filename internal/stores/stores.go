// Package stores holds the mutable application state, split into explicit
// containers. Every container is safe for concurrent use, hands out copies
// rather than internal references, publishes a typed event after each
// effective mutation, and exposes a change channel so callers can wait for
// conditions over its state with Await.
package stores

import (
	"deckforge/internal/eventbus"
)

// Stores bundles every state container. One instance is built at startup
// and shared by the coordinator, the importer, persistence and the UI.
type Stores struct {
	Connection *ConnectionStore
	Settings   *SettingsStore
	Sources    *SourcesStore
	Results    *ResultsStore
	Documents  *DocumentsStore
	Cardbacks  *CardbacksStore
	Project    *ProjectStore
	Invalid    *InvalidStore
	Modal      *ModalStore
	Errors     *ErrorsStore
}

// New creates all stores wired to the given bus.
func New(bus eventbus.EventBus) *Stores {
	return &Stores{
		Connection: NewConnectionStore(bus),
		Settings:   NewSettingsStore(bus),
		Sources:    NewSourcesStore(bus),
		Results:    NewResultsStore(bus),
		Documents:  NewDocumentsStore(bus),
		Cardbacks:  NewCardbacksStore(bus),
		Project:    NewProjectStore(bus),
		Invalid:    NewInvalidStore(bus),
		Modal:      NewModalStore(bus),
		Errors:     NewErrorsStore(bus),
	}
}

// publish forwards an event to the bus, tolerating a nil bus in tests
// that exercise a store in isolation.
func publish(bus eventbus.EventBus, event eventbus.DomainEvent) {
	if bus != nil {
		bus.Publish(event)
	}
}
