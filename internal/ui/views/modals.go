package views

import (
	"fmt"
	"strings"

	"deckforge/internal/stores"
	"deckforge/internal/ui/state"
)

const pickerWindow = 12

// renderOverlay draws the open modal dialog.
func (r *Renderer) renderOverlay(vs ViewState) string {
	switch vs.Modal {
	case stores.ModalImport:
		return r.renderImport(vs)
	case stores.ModalChangeQuery:
		face := "front"
		if !vs.FrontFace {
			face = "back"
		}
		return r.renderTextOverlay(fmt.Sprintf("edit query (slot %d, %s)", vs.FocusedSlot+1, face), vs.InputView)
	case stores.ModalExport:
		return r.renderTextOverlay("export decklist + order xml", vs.InputView)
	case stores.ModalSaveProject:
		return r.renderTextOverlay("save project as", vs.InputView)
	case stores.ModalChangeVersion:
		return r.renderPicker("change version", vs.Picker)
	case stores.ModalCardback:
		return r.renderPicker("project cardback", vs.Picker)
	case stores.ModalLoadProject:
		return r.renderPicker("open project", vs.Picker)
	case stores.ModalSettings:
		return r.renderSettings(vs.Settings)
	case stores.ModalInvalidReview:
		return r.renderReview(vs)
	case stores.ModalCardDetail:
		return r.renderCardDetail(vs)
	case stores.ModalConfirmDelete:
		return r.renderConfirm(vs)
	}
	return ""
}

func (r *Renderer) renderTextOverlay(title, input string) string {
	var b strings.Builder
	b.WriteString(r.styles.OverlayTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(input)
	return r.styles.Overlay.Render(b.String())
}

func (r *Renderer) renderImport(vs ViewState) string {
	mode := "append"
	if vs.ImportReplace {
		mode = "replace"
	}
	var b strings.Builder
	b.WriteString(r.styles.OverlayTitle.Render("import cards"))
	b.WriteString("\n")
	b.WriteString(vs.InputView)
	b.WriteString("\n\n")
	b.WriteString(r.styles.Dim.Render("mode: "))
	b.WriteString(r.styles.StatusWarning.Render(mode))
	b.WriteString(r.styles.Dim.Render("  (ctrl+r to switch)"))
	return r.styles.Overlay.Render(b.String())
}

func (r *Renderer) renderPicker(title string, p state.Picker) string {
	var b strings.Builder
	b.WriteString(r.styles.OverlayTitle.Render(title))
	b.WriteString("\n")

	if len(p.Items) == 0 {
		b.WriteString(r.styles.Dim.Render("nothing to pick"))
		return r.styles.Overlay.Render(b.String())
	}

	start := 0
	if p.Index >= pickerWindow {
		start = p.Index - pickerWindow + 1
	}
	end := start + pickerWindow
	if end > len(p.Items) {
		end = len(p.Items)
	}

	if start > 0 {
		b.WriteString(r.styles.Dim.Render("  ↑ more"))
		b.WriteString("\n")
	}
	for i := start; i < end; i++ {
		item := p.Items[i]
		cursor := "  "
		label := truncate(item.Label, 44)
		if i == p.Index {
			cursor = r.styles.PickerCursor.Render("▸ ")
			label = r.styles.PickerCursor.Render(label)
		}
		b.WriteString(cursor + label)
		if item.Detail != "" {
			b.WriteString(r.styles.PickerDetail.Render("  " + truncate(item.Detail, 30)))
		}
		b.WriteString("\n")
	}
	if end < len(p.Items) {
		b.WriteString(r.styles.Dim.Render("  ↓ more"))
		b.WriteString("\n")
	}
	b.WriteString(r.styles.Dim.Render(fmt.Sprintf("\n%d/%d", p.Index+1, len(p.Items))))

	return r.styles.Overlay.Render(b.String())
}

func (r *Renderer) renderSettings(ed state.SettingsEditor) string {
	var b strings.Builder
	b.WriteString(r.styles.OverlayTitle.Render("search settings"))
	b.WriteString("\n")

	d := ed.Draft
	rows := []string{
		fmt.Sprintf("fuzzy search        %s", onOff(d.SearchTypeSettings.FuzzySearch)),
		fmt.Sprintf("filter cardbacks    %s", onOff(d.SearchTypeSettings.FilterCardbacks)),
		fmt.Sprintf("min dpi             %d", d.FilterSettings.MinDPI),
		fmt.Sprintf("max dpi             %d", d.FilterSettings.MaxDPI),
		fmt.Sprintf("max size            %d MB", d.FilterSettings.MaxSize),
	}
	for _, src := range d.SourceSettings.Sources {
		name := ""
		for _, known := range ed.Sources {
			if known.PK == src.PK {
				name = known.Name
				break
			}
		}
		if name == "" {
			name = fmt.Sprintf("source %d", src.PK)
		}
		rows = append(rows, fmt.Sprintf("[%s] %s", checkmark(src.Enabled), truncate(name, 36)))
	}

	for i, row := range rows {
		if i == state.RowSourceStart {
			b.WriteString(r.styles.Dim.Render("  sources (J/K reorder)"))
			b.WriteString("\n")
		}
		cursor := "  "
		if i == ed.Row {
			cursor = r.styles.PickerCursor.Render("▸ ")
			row = r.styles.PickerCursor.Render(row)
		}
		b.WriteString(cursor + row)
		b.WriteString("\n")
	}

	return r.styles.Overlay.Render(b.String())
}

func (r *Renderer) renderReview(vs ViewState) string {
	var b strings.Builder
	b.WriteString(r.styles.OverlayTitle.Render("invalid selections"))
	b.WriteString("\n")

	if len(vs.ReviewRows) == 0 {
		b.WriteString(r.styles.Dim.Render("nothing dropped. all picks match their results."))
		return r.styles.Overlay.Render(b.String())
	}

	b.WriteString(r.styles.Dim.Render("these picks vanished from their query's results:"))
	b.WriteString("\n\n")
	for i, row := range vs.ReviewRows {
		cursor := "  "
		line := fmt.Sprintf("slot %-4d %-5s %-24s %s", row.Slot+1, strings.ToLower(row.Face),
			truncate(row.Query, 24), truncate(row.Identifier, 28))
		if i == vs.ReviewIndex {
			cursor = r.styles.PickerCursor.Render("▸ ")
			line = r.styles.PickerCursor.Render(line)
		}
		b.WriteString(cursor + line)
		b.WriteString("\n")
	}

	return r.styles.Overlay.Render(b.String())
}

func (r *Renderer) renderCardDetail(vs ViewState) string {
	var b strings.Builder
	b.WriteString(r.styles.OverlayTitle.Render(fmt.Sprintf("slot %d", vs.Detail.Slot+1)))
	b.WriteString("\n")
	for _, f := range vs.Detail.Faces {
		b.WriteString(r.styles.DetailLabel.Render(f.Face))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  query     %s\n", orDim(r, f.Query, "(none)")))
		b.WriteString(fmt.Sprintf("  image     %s", orDim(r, f.Image, "(none)")))
		if f.Invalid {
			b.WriteString(r.styles.Invalid.Render("  !invalid"))
		}
		b.WriteString("\n")
		if f.Position != "" {
			b.WriteString(fmt.Sprintf("  version   %s\n", f.Position))
		}
		if f.Source != "" {
			b.WriteString(fmt.Sprintf("  source    %s\n", f.Source))
		}
		if f.Extra != "" {
			b.WriteString(fmt.Sprintf("  %s\n", r.styles.Dim.Render(f.Extra)))
		}
		b.WriteString("\n")
	}
	return r.styles.Overlay.Render(strings.TrimRight(b.String(), "\n"))
}

func (r *Renderer) renderConfirm(vs ViewState) string {
	msg := fmt.Sprintf("delete %d selected slot(s)?", vs.ConfirmCount)
	body := r.styles.Confirm.Render(msg) + "\n\n" +
		r.styles.Key.Render("y") + r.styles.Dim.Render(" delete   ") +
		r.styles.Key.Render("n") + r.styles.Dim.Render(" keep")
	return r.styles.Overlay.Render(body)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func checkmark(v bool) string {
	if v {
		return "x"
	}
	return " "
}

func orDim(r *Renderer, s, fallback string) string {
	if s == "" {
		return r.styles.Dim.Render(fallback)
	}
	return s
}
