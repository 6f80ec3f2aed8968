package eventbus

import (
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"deckforge/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventConnectRequested = domain.EventConnectRequested
	EventBackendConnected = domain.EventBackendConnected
	EventBackendCleared   = domain.EventBackendCleared
	EventSourcesFetched   = domain.EventSourcesFetched
	EventSettingsChanged  = domain.EventSettingsChanged
	EventMembersAdded     = domain.EventMembersAdded
	EventSlotsDeleted     = domain.EventSlotsDeleted
	EventQueryChanged     = domain.EventQueryChanged
	EventImagesSelected   = domain.EventImagesSelected
	EventSelectionChanged = domain.EventSelectionChanged
	EventCardbackChanged  = domain.EventCardbackChanged
	EventProjectReset     = domain.EventProjectReset
	EventResultsUpdated   = domain.EventResultsUpdated
	EventResultsCleared   = domain.EventResultsCleared
	EventCardbacksFetched = domain.EventCardbacksFetched
	EventDocumentsUpdated = domain.EventDocumentsUpdated
	EventInvalidChanged   = domain.EventInvalidChanged
	EventModalChanged     = domain.EventModalChanged
	EventErrorReported    = domain.EventErrorReported
	EventErrorDismissed   = domain.EventErrorDismissed
	EventImportRequested  = domain.EventImportRequested
	EventImportCompleted  = domain.EventImportCompleted
)

// Re-export domain event types
type ConnectRequestedEvent = domain.ConnectRequestedEvent
type BackendConnectedEvent = domain.BackendConnectedEvent
type BackendClearedEvent = domain.BackendClearedEvent
type SourcesFetchedEvent = domain.SourcesFetchedEvent
type SettingsChangedEvent = domain.SettingsChangedEvent
type MembersAddedEvent = domain.MembersAddedEvent
type SlotsDeletedEvent = domain.SlotsDeletedEvent
type QueryChangedEvent = domain.QueryChangedEvent
type ImagesSelectedEvent = domain.ImagesSelectedEvent
type SelectionChangedEvent = domain.SelectionChangedEvent
type CardbackChangedEvent = domain.CardbackChangedEvent
type ProjectResetEvent = domain.ProjectResetEvent
type ResultsUpdatedEvent = domain.ResultsUpdatedEvent
type ResultsClearedEvent = domain.ResultsClearedEvent
type CardbacksFetchedEvent = domain.CardbacksFetchedEvent
type DocumentsUpdatedEvent = domain.DocumentsUpdatedEvent
type InvalidChangedEvent = domain.InvalidChangedEvent
type ModalChangedEvent = domain.ModalChangedEvent
type ErrorReportedEvent = domain.ErrorReportedEvent
type ErrorDismissedEvent = domain.ErrorDismissedEvent
type ImportRequestedEvent = domain.ImportRequestedEvent
type ImportCompletedEvent = domain.ImportCompletedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

// New creates a new event bus and starts its dispatcher
func New(logger *zap.Logger) EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
		logger:    logger,
	}

	// Start the event dispatcher
	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers. It never blocks; if the
// bus buffer is full the event is dropped and logged.
func (b *bus) Publish(event DomainEvent) {
	select {
	case <-b.quit:
		return
	default:
	}

	select {
	case b.eventChan <- event:
	default:
		b.logger.Warn("event bus buffer full, dropping event",
			zap.String("event", string(event.Type())))
	}
}

// Subscribe subscribes to events of a specific type.
// Returns an unsubscribe function.
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher. Events already buffered are discarded;
// handlers already started are allowed to finish on their own.
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
		b.wg.Wait()
	})
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.mu.RLock()
			subs := b.handlers[event.Type()]
			// Copy so handlers run without the lock held
			subsCopy := make([]subscription, len(subs))
			copy(subsCopy, subs)
			b.mu.RUnlock()

			for _, sub := range subsCopy {
				// Each handler runs in its own goroutine so a slow
				// subscriber cannot stall the dispatcher
				go func(h EventHandler, eventType EventType) {
					defer func() {
						if r := recover(); r != nil {
							b.logger.Error("event handler panic",
								zap.String("event", string(eventType)),
								zap.Any("panic", r),
								zap.ByteString("stack", debug.Stack()))
						}
					}()
					h(event)
				}(sub.handler, event.Type())
			}

		case <-b.quit:
			// Drain remaining events
			for {
				select {
				case <-b.eventChan:
				default:
					return
				}
			}
		}
	}
}
