package ui

import (
	"deckforge/internal/domain"
	"deckforge/internal/ui/input/types"
)

// modelContext adapts the model into the read-only view input modes get.
type modelContext struct {
	m *Model
}

func (m *Model) inputContext() types.Context {
	return modelContext{m: m}
}

func (c modelContext) SlotCount() int {
	return c.m.stores.Project.SlotCount()
}

func (c modelContext) FocusedSlot() int {
	return c.m.uiState.FocusedSlot
}

func (c modelContext) FocusedFace() domain.Face {
	return c.m.uiState.FocusedFace
}

func (c modelContext) SelectionCount() int {
	return len(c.m.selectedSlots())
}

func (c modelContext) Connected() bool {
	return c.m.stores.Connection.Connected()
}

func (c modelContext) ProjectName() string {
	return c.m.stores.Project.Name()
}

// FocusedQueryText spells the focused face's query the way the import
// grammar writes it, so the edit overlay round-trips through the parser.
func (c modelContext) FocusedQueryText() string {
	member := c.m.stores.Project.Member(c.m.uiState.FocusedSlot, c.m.uiState.FocusedFace)
	if member == nil || member.Query == nil {
		return ""
	}
	return queryDisplay(*member.Query)
}

func (c modelContext) ImportReplace() bool {
	return c.m.uiState.ImportReplace
}

func (c modelContext) InvalidCount() int {
	return c.m.stores.Invalid.Count()
}

func (c modelContext) PickerSize() int {
	return len(c.m.uiState.Picker.Items)
}

func (c modelContext) DefaultExportDir() string {
	return c.m.exportDir
}
