package stores

import (
	"sync"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
)

// ModalKind names an overlay dialog.
type ModalKind string

const (
	ModalNone          ModalKind = ""
	ModalCardDetail    ModalKind = "card-detail"
	ModalChangeVersion ModalKind = "change-version"
	ModalChangeQuery   ModalKind = "change-query"
	ModalCardback      ModalKind = "cardback"
	ModalSettings      ModalKind = "settings"
	ModalInvalidReview ModalKind = "invalid-review"
	ModalImport        ModalKind = "import"
	ModalExport        ModalKind = "export"
	ModalSaveProject   ModalKind = "save-project"
	ModalLoadProject   ModalKind = "load-project"
	ModalConfirmDelete ModalKind = "confirm-delete"
)

// ModalState is the active overlay dialog plus the slot face it targets,
// when it targets one.
type ModalState struct {
	Kind ModalKind
	Slot int // -1 when not slot-scoped
	Face domain.Face
}

// ModalStore tracks which overlay dialog is open. At most one is open at
// a time; opening a dialog replaces the previous one.
type ModalStore struct {
	mu     sync.RWMutex
	signal *Signal
	bus    eventbus.EventBus

	state ModalState
}

// NewModalStore creates a store with no open dialog.
func NewModalStore(bus eventbus.EventBus) *ModalStore {
	return &ModalStore{signal: NewSignal(), bus: bus, state: ModalState{Slot: -1}}
}

// Open shows a dialog not scoped to a slot.
func (s *ModalStore) Open(kind ModalKind) {
	s.set(ModalState{Kind: kind, Slot: -1})
}

// OpenForFace shows a dialog targeting one slot face.
func (s *ModalStore) OpenForFace(kind ModalKind, slot int, face domain.Face) {
	s.set(ModalState{Kind: kind, Slot: slot, Face: face})
}

// Close dismisses the open dialog, if any.
func (s *ModalStore) Close() {
	s.set(ModalState{Slot: -1})
}

func (s *ModalStore) set(next ModalState) {
	s.mu.Lock()
	if s.state == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.ModalChangedEvent{Kind: string(next.Kind)})
}

// Get returns the current dialog state.
func (s *ModalStore) Get() ModalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsOpen reports whether any dialog is open.
func (s *ModalStore) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Kind != ModalNone
}

// Changed returns a channel closed on the next mutation.
func (s *ModalStore) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signal.wait()
}
