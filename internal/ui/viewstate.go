package ui

import (
	"fmt"
	"strings"

	"deckforge/internal/domain"
	"deckforge/internal/stores"
	"deckforge/internal/ui/logic"
	"deckforge/internal/ui/views"
)

// viewState assembles the denormalized per-frame snapshot the renderer
// consumes. Reading the stores fresh every frame keeps the view honest
// without any change tracking.
func (m *Model) viewState() views.ViewState {
	p := m.stores.Project.Snapshot()
	face := m.uiState.FocusedFace

	cells := make([]views.SlotCell, len(p.Slots))
	for i, slot := range p.Slots {
		cells[i] = m.buildCell(i, slot, face)
	}

	selected := m.selectedSlots()
	errs := m.stores.Errors.All()
	lastError := ""
	if len(errs) > 0 {
		lastError = errs[len(errs)-1].Message
	}

	server := m.stores.Connection.Info().Name
	if server == "" {
		server = m.stores.Connection.URL()
	}

	vs := views.ViewState{
		Width:  m.uiState.Width,
		Height: m.uiState.Height,

		Cells:          cells,
		ViewportOffset: m.uiState.ViewportOffset,
		FocusedSlot:    m.uiState.FocusedSlot,
		FrontFace:      face == domain.FaceFront,

		ProjectName:   p.Name,
		SlotCount:     len(p.Slots),
		SelectedCount: len(selected),
		Cardback:      m.displayName(p.Cardback),

		Connected:      m.stores.Connection.Connected(),
		ServerName:     server,
		PendingQueries: m.pendingQueries(),
		InvalidCount:   m.stores.Invalid.Count(),
		ErrorCount:     len(errs),
		LastError:      lastError,

		StatusMessage: m.uiState.StatusMessage,
		StatusIsError: m.uiState.StatusIsError,

		Mode:          m.handler.CurrentMode().String(),
		Modal:         m.stores.Modal.Get().Kind,
		ImportReplace: m.uiState.ImportReplace,

		Picker:      m.uiState.Picker,
		Settings:    m.uiState.Settings,
		ReviewIndex: m.uiState.ReviewIndex,

		Detail:       m.detailData(p),
		ConfirmCount: len(selected),
	}

	if ti := m.handler.TextInput(); ti != nil {
		vs.InputView = ti.View()
	}
	if vs.Modal == stores.ModalInvalidReview {
		vs.ReviewRows = m.reviewRows()
		vs.ReviewIndex = logic.Clamp(vs.ReviewIndex, 0, len(vs.ReviewRows)-1)
	}
	return vs
}

// buildCell prepares one grid cell for the focused face of one slot.
func (m *Model) buildCell(i int, slot domain.Slot, face domain.Face) views.SlotCell {
	cell := views.SlotCell{Index: i}
	member := slot.Member(face)
	if member == nil {
		cell.Empty = true
		return cell
	}
	cell.Selected = member.Selected

	if member.Query == nil {
		cell.Title = m.displayName(member.SelectedImage)
		if face == domain.FaceBack {
			cardbacks := m.stores.Cardbacks.All()
			if idx := indexOf(cardbacks, member.SelectedImage); idx >= 0 {
				cell.Position = fmt.Sprintf("%d/%d", idx+1, len(cardbacks))
			}
			if member.SelectedImage == m.stores.Project.Cardback() {
				cell.Note = "project cardback"
			}
		}
		cell.Empty = cell.Title == ""
		return cell
	}

	cell.Query = queryDisplay(*member.Query)
	if results, ok := m.stores.Results.Get(*member.Query); ok {
		if idx := indexOf(results, member.SelectedImage); idx >= 0 {
			cell.Position = fmt.Sprintf("%d/%d", idx+1, len(results))
		} else {
			cell.Position = fmt.Sprintf("0/%d", len(results))
		}
	}
	if _, bad := m.stores.Invalid.Get(stores.FaceRef{Slot: i, Face: face}); bad {
		cell.Invalid = true
	}
	cell.Title = m.displayName(member.SelectedImage)
	if cell.Title == "" {
		cell.Title = cell.Query
	}
	return cell
}

// detailData prepares the focused slot's two face lines.
func (m *Model) detailData(p domain.Project) views.DetailData {
	focus := logic.Clamp(m.uiState.FocusedSlot, 0, len(p.Slots)-1)
	d := views.DetailData{Slot: focus}
	if focus < 0 || focus >= len(p.Slots) {
		return d
	}
	slot := p.Slots[focus]
	for _, face := range domain.Faces {
		member := slot.Member(face)
		fd := views.FaceDetail{Face: strings.ToLower(string(face))}
		if member == nil {
			d.Faces = append(d.Faces, fd)
			continue
		}
		fd.Image = m.displayName(member.SelectedImage)
		if member.Query == nil {
			if face == domain.FaceBack && member.SelectedImage != "" {
				if member.SelectedImage == p.Cardback {
					fd.Source = "project cardback"
				} else if doc, ok := m.stores.Documents.Get(member.SelectedImage); ok {
					fd.Source = doc.SourceName
				}
			}
			d.Faces = append(d.Faces, fd)
			continue
		}
		fd.Query = queryDisplay(*member.Query)
		if results, ok := m.stores.Results.Get(*member.Query); ok {
			if idx := indexOf(results, member.SelectedImage); idx >= 0 {
				fd.Position = fmt.Sprintf("%d/%d", idx+1, len(results))
			}
		}
		if _, bad := m.stores.Invalid.Get(stores.FaceRef{Slot: focus, Face: face}); bad {
			fd.Invalid = true
		}
		if doc, ok := m.stores.Documents.Get(member.SelectedImage); ok {
			fd.Source = doc.SourceName
			extra := make([]string, 0, 3)
			if doc.DPI > 0 {
				extra = append(extra, fmt.Sprintf("%d dpi", doc.DPI))
			}
			if doc.Size > 0 {
				extra = append(extra, humanSize(doc.Size))
			}
			if doc.Date != "" {
				extra = append(extra, doc.Date)
			}
			fd.Extra = strings.Join(extra, ", ")
		}
		d.Faces = append(d.Faces, fd)
	}
	return d
}

// reviewRows prepares the invalid-selection ledger for the review overlay.
func (m *Model) reviewRows() []views.ReviewRow {
	records := m.stores.Invalid.All()
	rows := make([]views.ReviewRow, len(records))
	for i, rec := range records {
		q := ""
		if rec.Query != nil {
			q = queryDisplay(*rec.Query)
		}
		rows[i] = views.ReviewRow{
			Slot:       rec.Ref.Slot,
			Face:       string(rec.Ref.Face),
			Query:      q,
			Identifier: m.displayName(rec.Identifier),
		}
	}
	return rows
}

// pendingQueries counts project queries with no cached results yet.
// Offline nothing is pending; the coordinator fetches on reconnect.
func (m *Model) pendingQueries() int {
	if !m.stores.Connection.Connected() {
		return 0
	}
	return len(m.stores.Results.Missing(m.stores.Project.AllQueries()))
}
