package stores

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
)

// ProjectStore holds the working project: the ordered slots, their
// per-face queries and picked images, and the project-wide cardback.
//
// Slots are normalized on entry: both faces always exist, and a back face
// without a query starts out showing the project cardback. Indices are
// dense; deleting slots renumbers everything after them.
type ProjectStore struct {
	mu     sync.RWMutex
	signal *Signal
	bus    eventbus.EventBus

	project domain.Project
}

// NewProjectStore creates a store holding an empty untitled project.
func NewProjectStore(bus eventbus.EventBus) *ProjectStore {
	return &ProjectStore{
		signal:  NewSignal(),
		bus:     bus,
		project: domain.Project{Key: uuid.New(), Name: "untitled"},
	}
}

// normalizeSlot fills in absent faces so every slot has two members.
func normalizeSlot(slot domain.Slot, cardback string) domain.Slot {
	s := slot.Clone()
	if s.Front == nil {
		s.Front = &domain.ProjectMember{}
	}
	if s.Back == nil {
		s.Back = &domain.ProjectMember{}
	}
	if s.Back.Query == nil && s.Back.SelectedImage == "" {
		s.Back.SelectedImage = cardback
	}
	return s
}

// Replace swaps in a whole project (load from disk, import with replace).
// Publishes ProjectResetEvent.
func (s *ProjectStore) Replace(p domain.Project) {
	s.mu.Lock()
	slots := make([]domain.Slot, 0, min(len(p.Slots), domain.MaxProjectSize))
	for _, slot := range p.Slots {
		if len(slots) == domain.MaxProjectSize {
			break
		}
		slots = append(slots, normalizeSlot(slot, p.Cardback))
	}
	s.project = domain.Project{Key: p.Key, Name: p.Name, Slots: slots, Cardback: p.Cardback}
	if s.project.Key == uuid.Nil {
		s.project.Key = uuid.New()
	}
	count := len(slots)
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.ProjectResetEvent{SlotCount: count})
}

// Reset replaces the project with a fresh empty one.
func (s *ProjectStore) Reset(name string) {
	if name == "" {
		name = "untitled"
	}
	s.mu.Lock()
	s.project = domain.Project{Key: uuid.New(), Name: name}
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.ProjectResetEvent{SlotCount: 0})
}

// AddMembers appends slots, stopping at the project size cap. It returns
// how many slots were actually added and whether the cap cut the batch
// short. Publishes MembersAddedEvent carrying the distinct queries the
// new slots introduced.
func (s *ProjectStore) AddMembers(slots []domain.Slot) (added int, truncated bool) {
	s.mu.Lock()
	room := domain.MaxProjectSize - len(s.project.Slots)
	if room <= 0 {
		s.mu.Unlock()
		return 0, len(slots) > 0
	}
	batch := slots
	if len(batch) > room {
		batch = batch[:room]
		truncated = true
	}

	first := len(s.project.Slots)
	seen := make(map[domain.SearchQuery]struct{})
	var newQueries []domain.SearchQuery
	for _, slot := range batch {
		n := normalizeSlot(slot, s.project.Cardback)
		s.project.Slots = append(s.project.Slots, n)
		for _, face := range domain.Faces {
			if q := n.Member(face).Query; q != nil {
				if _, dup := seen[*q]; !dup {
					seen[*q] = struct{}{}
					newQueries = append(newQueries, *q)
				}
			}
		}
	}
	added = len(batch)
	if added > 0 {
		s.signal.broadcast()
	}
	s.mu.Unlock()

	if added > 0 {
		publish(s.bus, domain.MembersAddedEvent{FirstSlot: first, Count: added, NewQueries: newQueries})
	}
	return added, truncated
}

// DeleteSlots removes the given slots and renumbers the rest. Out-of-range
// and duplicate indices are ignored. Publishes SlotsDeletedEvent with the
// pre-deletion indices actually removed, ascending.
func (s *ProjectStore) DeleteSlots(indices []int) {
	s.mu.Lock()
	drop := make(map[int]struct{}, len(indices))
	var removed []int
	for _, i := range indices {
		if i < 0 || i >= len(s.project.Slots) {
			continue
		}
		if _, dup := drop[i]; dup {
			continue
		}
		drop[i] = struct{}{}
		removed = append(removed, i)
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return
	}
	sort.Ints(removed)

	kept := make([]domain.Slot, 0, len(s.project.Slots)-len(removed))
	for i, slot := range s.project.Slots {
		if _, gone := drop[i]; !gone {
			kept = append(kept, slot)
		}
	}
	s.project.Slots = kept
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.SlotsDeletedEvent{Indices: removed})
}

// SetQuery points the given face of the given slots at a new query,
// dropping each changed member's picked image. Clearing a back face's
// query reverts it to the project cardback. Members whose query already
// equals the new one are untouched. deliberate marks a user edit.
func (s *ProjectStore) SetQuery(slots []int, face domain.Face, query *domain.SearchQuery, deliberate bool) {
	s.mu.Lock()
	var changed []int
	for _, i := range slots {
		if i < 0 || i >= len(s.project.Slots) {
			continue
		}
		m := s.project.Slots[i].Member(face)
		if queriesEqual(m.Query, query) {
			continue
		}
		if query != nil {
			q := *query
			m.Query = &q
			m.SelectedImage = ""
		} else {
			m.Query = nil
			if face == domain.FaceBack {
				m.SelectedImage = s.project.Cardback
			} else {
				m.SelectedImage = ""
			}
		}
		changed = append(changed, i)
	}
	if len(changed) > 0 {
		s.signal.broadcast()
	}
	s.mu.Unlock()

	if len(changed) > 0 {
		var q *domain.SearchQuery
		if query != nil {
			qq := *query
			q = &qq
		}
		publish(s.bus, domain.QueryChangedEvent{Slots: changed, Face: face, Query: q, Deliberate: deliberate})
	}
}

// ClearQueries is SetQuery with no query, as a deliberate edit.
func (s *ProjectStore) ClearQueries(slots []int, face domain.Face) {
	s.SetQuery(slots, face, nil, true)
}

func queriesEqual(a, b *domain.SearchQuery) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// SetSelectedImages sets the picked image for the given face of the given
// slots. Publishes ImagesSelectedEvent with the slots that actually changed.
func (s *ProjectStore) SetSelectedImages(face domain.Face, slots []int, identifier string) {
	s.mu.Lock()
	var changed []int
	for _, i := range slots {
		if i < 0 || i >= len(s.project.Slots) {
			continue
		}
		m := s.project.Slots[i].Member(face)
		if m.SelectedImage == identifier {
			continue
		}
		m.SelectedImage = identifier
		changed = append(changed, i)
	}
	if len(changed) > 0 {
		s.signal.broadcast()
	}
	s.mu.Unlock()

	if len(changed) > 0 {
		publish(s.bus, domain.ImagesSelectedEvent{Face: face, Slots: changed})
	}
}

// SetSelectedImage sets the picked image for a single slot face.
func (s *ProjectStore) SetSelectedImage(slot int, face domain.Face, identifier string) {
	s.SetSelectedImages(face, []int{slot}, identifier)
}

// SetSelected flags one slot face for bulk operations.
func (s *ProjectStore) SetSelected(slot int, face domain.Face, selected bool) {
	s.mu.Lock()
	changed := false
	if slot >= 0 && slot < len(s.project.Slots) {
		m := s.project.Slots[slot].Member(face)
		if m.Selected != selected {
			m.Selected = selected
			changed = true
		}
	}
	count := s.selectedCountLocked()
	if changed {
		s.signal.broadcast()
	}
	s.mu.Unlock()

	if changed {
		publish(s.bus, domain.SelectionChangedEvent{SelectedCount: count})
	}
}

// SetAllSelected flags every slot's given face.
func (s *ProjectStore) SetAllSelected(face domain.Face, selected bool) {
	s.mu.Lock()
	changed := false
	for i := range s.project.Slots {
		m := s.project.Slots[i].Member(face)
		if m.Selected != selected {
			m.Selected = selected
			changed = true
		}
	}
	count := s.selectedCountLocked()
	if changed {
		s.signal.broadcast()
	}
	s.mu.Unlock()

	if changed {
		publish(s.bus, domain.SelectionChangedEvent{SelectedCount: count})
	}
}

func (s *ProjectStore) selectedCountLocked() int {
	n := 0
	for _, slot := range s.project.Slots {
		for _, face := range domain.Faces {
			if m := slot.Member(face); m != nil && m.Selected {
				n++
			}
		}
	}
	return n
}

// SelectedSlots returns the slots whose given face is flagged, ascending.
func (s *ProjectStore) SelectedSlots(face domain.Face) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int
	for i, slot := range s.project.Slots {
		if m := slot.Member(face); m != nil && m.Selected {
			out = append(out, i)
		}
	}
	return out
}

// SetCardback changes the project-wide cardback. A same-value write is a
// no-op. Back faces tracking the cardback, meaning queryless faces whose
// picked image is the old cardback or nothing, move to the new one in the
// same transaction; individually overridden backs keep their pick.
// Publishes CardbackChangedEvent, plus ImagesSelectedEvent when any back
// face moved.
func (s *ProjectStore) SetCardback(identifier string) {
	s.mu.Lock()
	old := s.project.Cardback
	if old == identifier {
		s.mu.Unlock()
		return
	}
	s.project.Cardback = identifier
	var retargeted []int
	for i := range s.project.Slots {
		back := s.project.Slots[i].Back
		if back.Query != nil {
			continue
		}
		if back.SelectedImage == old || back.SelectedImage == "" {
			if back.SelectedImage != identifier {
				back.SelectedImage = identifier
				retargeted = append(retargeted, i)
			}
		}
	}
	s.signal.broadcast()
	s.mu.Unlock()

	publish(s.bus, domain.CardbackChangedEvent{Identifier: identifier})
	if len(retargeted) > 0 {
		publish(s.bus, domain.ImagesSelectedEvent{Face: domain.FaceBack, Slots: retargeted})
	}
}

// SetName renames the project.
func (s *ProjectStore) SetName(name string) {
	s.mu.Lock()
	if s.project.Name == name {
		s.mu.Unlock()
		return
	}
	s.project.Name = name
	s.signal.broadcast()
	s.mu.Unlock()
}

// Member returns a copy of one slot face, or nil when out of range.
func (s *ProjectStore) Member(slot int, face domain.Face) *domain.ProjectMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if slot < 0 || slot >= len(s.project.Slots) {
		return nil
	}
	return s.project.Slots[slot].Member(face).Clone()
}

// Slot returns a copy of one slot.
func (s *ProjectStore) Slot(i int) (domain.Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.project.Slots) {
		return domain.Slot{}, false
	}
	return s.project.Slots[i].Clone(), true
}

// SlotCount returns the number of slots.
func (s *ProjectStore) SlotCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.project.Slots)
}

// Name returns the project name.
func (s *ProjectStore) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project.Name
}

// Key returns the project's stable identity.
func (s *ProjectStore) Key() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project.Key
}

// Cardback returns the project-wide cardback identifier, or "".
func (s *ProjectStore) Cardback() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project.Cardback
}

// AllQueries returns every distinct query in the project, front and back,
// in first-appearance order.
func (s *ProjectStore) AllQueries() []domain.SearchQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domain.SearchQuery]struct{})
	var out []domain.SearchQuery
	for _, slot := range s.project.Slots {
		for _, face := range domain.Faces {
			if q := slot.Member(face).Query; q != nil {
				if _, dup := seen[*q]; !dup {
					seen[*q] = struct{}{}
					out = append(out, *q)
				}
			}
		}
	}
	return out
}

// SlotsWithQuery returns the slots whose given face searches for q.
func (s *ProjectStore) SlotsWithQuery(face domain.Face, q domain.SearchQuery) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int
	for i, slot := range s.project.Slots {
		if mq := slot.Member(face).Query; mq != nil && *mq == q {
			out = append(out, i)
		}
	}
	return out
}

// QuerylessBackSlots returns the slots whose back face has no query and
// therefore tracks the project cardback.
func (s *ProjectStore) QuerylessBackSlots() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int
	for i, slot := range s.project.Slots {
		if slot.Back.Query == nil {
			out = append(out, i)
		}
	}
	return out
}

// AllIdentifiers returns every distinct identifier referenced by the
// project: picked images and the cardback, in first-appearance order.
func (s *ProjectStore) AllIdentifiers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(s.project.Cardback)
	for _, slot := range s.project.Slots {
		for _, face := range domain.Faces {
			if m := slot.Member(face); m != nil {
				add(m.SelectedImage)
			}
		}
	}
	return out
}

// Snapshot returns a deep copy of the whole project.
func (s *ProjectStore) Snapshot() domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := domain.Project{Key: s.project.Key, Name: s.project.Name, Cardback: s.project.Cardback}
	p.Slots = make([]domain.Slot, len(s.project.Slots))
	for i, slot := range s.project.Slots {
		p.Slots[i] = slot.Clone()
	}
	return p
}

// Changed returns a channel closed on the next mutation.
func (s *ProjectStore) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signal.wait()
}
