package stores

import (
	"sort"
	"sync"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
)

// FaceRef addresses one face of one slot.
type FaceRef struct {
	Slot int
	Face domain.Face
}

// InvalidRecord is one remembered mismatch: the identifier a slot face had
// picked before it vanished from that query's results.
type InvalidRecord struct {
	Ref FaceRef
	domain.InvalidIdentifier
}

// InvalidStore remembers selections that stopped matching their query's
// results, so the user can review what was silently dropped. Records live
// until the user edits the face's query, dismisses them, or the slots are
// deleted.
type InvalidStore struct {
	mu     sync.RWMutex
	signal *Signal
	bus    eventbus.EventBus

	records map[FaceRef]domain.InvalidIdentifier
}

// NewInvalidStore creates an empty ledger.
func NewInvalidStore(bus eventbus.EventBus) *InvalidStore {
	return &InvalidStore{signal: NewSignal(), bus: bus, records: make(map[FaceRef]domain.InvalidIdentifier)}
}

// Record notes that a slot face's picked identifier vanished from results.
// A newer record for the same face replaces the older one.
func (s *InvalidStore) Record(ref FaceRef, rec domain.InvalidIdentifier) {
	if rec.Query != nil {
		q := *rec.Query
		rec.Query = &q
	}
	s.mu.Lock()
	s.records[ref] = rec
	count := len(s.records)
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.InvalidChangedEvent{Count: count})
}

// ClearFaces drops the records for the given faces, if any.
func (s *InvalidStore) ClearFaces(refs []FaceRef) {
	s.mu.Lock()
	changed := false
	for _, ref := range refs {
		if _, ok := s.records[ref]; ok {
			delete(s.records, ref)
			changed = true
		}
	}
	count := len(s.records)
	if changed {
		s.signal.broadcast()
	}
	s.mu.Unlock()

	if changed {
		publish(s.bus, domain.InvalidChangedEvent{Count: count})
	}
}

// RemoveSlots drops records for deleted slots and renumbers the rest to
// match the project's post-deletion indices. indices are the pre-deletion
// positions removed, ascending.
func (s *InvalidStore) RemoveSlots(indices []int) {
	if len(indices) == 0 {
		return
	}
	s.mu.Lock()
	gone := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		gone[i] = struct{}{}
	}
	next := make(map[FaceRef]domain.InvalidIdentifier, len(s.records))
	changed := false
	for ref, rec := range s.records {
		if _, dropped := gone[ref.Slot]; dropped {
			changed = true
			continue
		}
		shift := 0
		for _, i := range indices {
			if i < ref.Slot {
				shift++
			}
		}
		if shift > 0 {
			changed = true
		}
		next[FaceRef{Slot: ref.Slot - shift, Face: ref.Face}] = rec
	}
	s.records = next
	count := len(next)
	if changed {
		s.signal.broadcast()
	}
	s.mu.Unlock()

	if changed {
		publish(s.bus, domain.InvalidChangedEvent{Count: count})
	}
}

// Reset drops every record.
func (s *InvalidStore) Reset() {
	s.mu.Lock()
	changed := len(s.records) > 0
	s.records = make(map[FaceRef]domain.InvalidIdentifier)
	if changed {
		s.signal.broadcast()
	}
	s.mu.Unlock()

	if changed {
		publish(s.bus, domain.InvalidChangedEvent{Count: 0})
	}
}

// Get returns the record for one face.
func (s *InvalidStore) Get(ref FaceRef) (domain.InvalidIdentifier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[ref]
	return rec, ok
}

// All returns every record ordered by slot, then front before back.
func (s *InvalidStore) All() []InvalidRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]InvalidRecord, 0, len(s.records))
	for ref, rec := range s.records {
		out = append(out, InvalidRecord{Ref: ref, InvalidIdentifier: rec})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ref.Slot != out[j].Ref.Slot {
			return out[i].Ref.Slot < out[j].Ref.Slot
		}
		return out[i].Ref.Face == domain.FaceFront && out[j].Ref.Face == domain.FaceBack
	})
	return out
}

// Count returns the number of records.
func (s *InvalidStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Changed returns a channel closed on the next mutation.
func (s *InvalidStore) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signal.wait()
}
