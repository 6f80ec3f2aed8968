// Package state holds the UI's session state: focus, scrolling, transient
// modal working data. Everything that outlives the session, or that other
// components react to, lives in the stores instead.
package state

import (
	"deckforge/internal/domain"
	"deckforge/internal/ui/logic"
)

// PickerItem is one row of a list picker overlay.
type PickerItem struct {
	ID     string // identifier the confirm action operates on
	Label  string
	Detail string // secondary text, may be empty
}

// Picker is the working state of the generic list picker. Which entity is
// being picked follows from the open modal kind.
type Picker struct {
	Items []PickerItem
	Index int
}

// Settings editor rows come in a fixed prefix followed by one row per
// configured source.
const (
	RowFuzzy = iota
	RowFilterCardbacks
	RowMinDPI
	RowMaxDPI
	RowMaxSize
	RowSourceStart // first per-source row
)

const settingsFixedRows = RowSourceStart

const (
	dpiStep  = 50
	sizeStep = 5
	dpiMax   = 3000
	sizeMax  = 1000
)

// SettingsEditor holds the draft being edited in the settings overlay.
// The draft is applied to the settings store only on confirm.
type SettingsEditor struct {
	Draft   domain.SearchSettings
	Sources []domain.Source // known sources, for row labels
	Row     int
}

// State is the mutable UI session state.
type State struct {
	Width  int
	Height int

	FocusedSlot    int
	FocusedFace    domain.Face
	ViewportOffset int

	StatusMessage string
	StatusIsError bool
	statusSeq     int

	ImportReplace bool

	Picker      Picker
	Settings    SettingsEditor
	ReviewIndex int
}

// New returns session state focused on the first slot's front.
func New() *State {
	return &State{FocusedFace: domain.FaceFront}
}

// MoveFocus moves the focused slot by delta, clamped to the project.
func (s *State) MoveFocus(delta, slotCount int) {
	s.FocusedSlot = logic.MoveFocus(s.FocusedSlot, delta, slotCount)
}

// ClampFocus pulls the focus back into range after slots were removed.
func (s *State) ClampFocus(slotCount int) {
	if slotCount == 0 {
		s.FocusedSlot = 0
		return
	}
	s.FocusedSlot = logic.Clamp(s.FocusedSlot, 0, slotCount-1)
}

// FlipFace switches the focused face between front and back.
func (s *State) FlipFace() {
	s.FocusedFace = s.FocusedFace.Other()
}

// EnsureVisible scrolls the grid viewport so the focused slot's row is
// shown. cols is the current column count, height the visible row count.
func (s *State) EnsureVisible(slotCount, cols, height int) {
	if cols < 1 {
		cols = 1
	}
	rows := (slotCount + cols - 1) / cols
	s.ViewportOffset = logic.ScrollOffset(s.ViewportOffset, s.FocusedSlot/cols, rows, height)
}

// SetStatus records a status bar message and returns a sequence number
// the matching clear must present, so a delayed clear cannot wipe a
// newer message.
func (s *State) SetStatus(msg string, isErr bool) int {
	s.StatusMessage = msg
	s.StatusIsError = isErr
	s.statusSeq++
	return s.statusSeq
}

// ClearStatus clears the status message if it is still the one the given
// sequence number was issued for.
func (s *State) ClearStatus(seq int) {
	if seq == s.statusSeq {
		s.StatusMessage = ""
		s.StatusIsError = false
	}
}

// OpenPicker initializes the list picker with the given rows, cursor on
// index (clamped).
func (s *State) OpenPicker(items []PickerItem, index int) {
	s.Picker = Picker{Items: items, Index: logic.Clamp(index, 0, len(items)-1)}
}

// MovePicker moves the picker cursor, clamped to the list.
func (s *State) MovePicker(delta int) {
	s.Picker.Index = logic.Clamp(s.Picker.Index+delta, 0, len(s.Picker.Items)-1)
}

// CurrentPickerItem returns the row under the cursor.
func (s *State) CurrentPickerItem() (PickerItem, bool) {
	if len(s.Picker.Items) == 0 {
		return PickerItem{}, false
	}
	return s.Picker.Items[s.Picker.Index], true
}

// ClosePicker drops the picker state.
func (s *State) ClosePicker() {
	s.Picker = Picker{}
}

// BeginSettings opens the settings editor around a draft copy.
func (s *State) BeginSettings(draft domain.SearchSettings, sources []domain.Source) {
	s.Settings = SettingsEditor{Draft: draft.Clone(), Sources: sources}
}

// EndSettings drops the editor state.
func (s *State) EndSettings() {
	s.Settings = SettingsEditor{}
}

// SettingsRowCount is the number of editable rows.
func (s *State) SettingsRowCount() int {
	return settingsFixedRows + len(s.Settings.Draft.SourceSettings.Sources)
}

// MoveSettingsRow moves the editor cursor, clamped.
func (s *State) MoveSettingsRow(delta int) {
	s.Settings.Row = logic.Clamp(s.Settings.Row+delta, 0, s.SettingsRowCount()-1)
}

// ToggleSettingsRow flips the boolean under the cursor. Rows holding
// numbers ignore it.
func (s *State) ToggleSettingsRow() {
	d := &s.Settings.Draft
	switch s.Settings.Row {
	case RowFuzzy:
		d.SearchTypeSettings.FuzzySearch = !d.SearchTypeSettings.FuzzySearch
	case RowFilterCardbacks:
		d.SearchTypeSettings.FilterCardbacks = !d.SearchTypeSettings.FilterCardbacks
	case RowMinDPI, RowMaxDPI, RowMaxSize:
	default:
		if i := s.Settings.Row - settingsFixedRows; i >= 0 && i < len(d.SourceSettings.Sources) {
			d.SourceSettings.Sources[i].Enabled = !d.SourceSettings.Sources[i].Enabled
		}
	}
}

// AdjustSettingsRow steps the number under the cursor by sign(delta)
// increments. Boolean rows ignore it.
func (s *State) AdjustSettingsRow(delta int) {
	d := &s.Settings.Draft
	switch s.Settings.Row {
	case RowMinDPI:
		d.FilterSettings.MinDPI = logic.Clamp(d.FilterSettings.MinDPI+delta*dpiStep, 0, dpiMax)
	case RowMaxDPI:
		d.FilterSettings.MaxDPI = logic.Clamp(d.FilterSettings.MaxDPI+delta*dpiStep, 0, dpiMax)
	case RowMaxSize:
		d.FilterSettings.MaxSize = logic.Clamp(d.FilterSettings.MaxSize+delta*sizeStep, 0, sizeMax)
	}
}

// MoveSettingsSource reorders the source under the cursor by delta
// positions. The search honours source order, so order is editable.
func (s *State) MoveSettingsSource(delta int) {
	i := s.Settings.Row - settingsFixedRows
	sources := s.Settings.Draft.SourceSettings.Sources
	if i < 0 || i >= len(sources) {
		return
	}
	j := logic.Clamp(i+delta, 0, len(sources)-1)
	if i == j {
		return
	}
	sources[i], sources[j] = sources[j], sources[i]
	s.Settings.Row = j + settingsFixedRows
}

// SourceName resolves a source PK to its display name, falling back to
// the PK itself when the source list does not know it.
func (s *State) SourceName(pk int) string {
	for _, src := range s.Settings.Sources {
		if src.PK == pk {
			return src.Name
		}
	}
	return ""
}

// MoveReview moves the invalid-review cursor, clamped to count rows.
func (s *State) MoveReview(delta, count int) {
	s.ReviewIndex = logic.Clamp(s.ReviewIndex+delta, 0, count-1)
	if count == 0 {
		s.ReviewIndex = 0
	}
}
