package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"deckforge/internal/ui/logic"
)

const (
	cellInnerWidth  = 20
	cellOuterWidth  = cellInnerWidth + 4 // border + padding
	cellOuterHeight = 5                  // 3 content lines + border
)

// Columns returns how many grid cells fit at the given terminal width.
// The model uses the same computation to translate row movement into
// slot deltas.
func Columns(width int) int {
	return logic.GridColumns(width-2, cellOuterWidth)
}

// GridRows returns how many cell rows fit in a body of the given total
// terminal height, after the title, detail pane and status chrome.
func GridRows(height int) int {
	rows := (height - detailPaneHeight - 3) / cellOuterHeight
	if rows < 1 {
		rows = 1
	}
	return rows
}

// renderGrid draws the visible window of slot cells for the focused face.
func (r *Renderer) renderGrid(vs ViewState, height int) string {
	cols := Columns(vs.Width)
	visibleRows := height / cellOuterHeight
	if visibleRows < 1 {
		visibleRows = 1
	}

	header := r.styles.Dim.Render(fmt.Sprintf(" showing %s", FaceTag(vs.FrontFace)))
	if len(vs.Cells) == 0 {
		empty := r.styles.Dim.Render("no cards yet. press i to import a decklist.")
		return lipgloss.JoinVertical(lipgloss.Left, header,
			lipgloss.Place(vs.Width, height-1, lipgloss.Center, lipgloss.Center, empty))
	}

	totalRows := (len(vs.Cells) + cols - 1) / cols
	offset := logic.Clamp(vs.ViewportOffset, 0, totalRows-1)

	lines := []string{header}
	for row := offset; row < totalRows && row < offset+visibleRows; row++ {
		cells := make([]string, 0, cols)
		for col := 0; col < cols; col++ {
			i := row*cols + col
			if i >= len(vs.Cells) {
				break
			}
			cells = append(cells, r.renderCell(vs.Cells[i], i == vs.FocusedSlot))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	if offset > 0 || offset+visibleRows < totalRows {
		lines = append(lines, r.styles.Dim.Render(
			fmt.Sprintf(" rows %d-%d of %d", offset+1, min(offset+visibleRows, totalRows), totalRows)))
	}

	return strings.Join(lines, "\n")
}

// renderCell draws one slot cell: name line, query line, position line.
func (r *Renderer) renderCell(c SlotCell, focused bool) string {
	style := r.styles.Cell
	switch {
	case focused:
		style = r.styles.CellFocused
	case c.Selected:
		style = r.styles.CellSelected
	case c.Empty:
		style = r.styles.CellEmpty
	}

	title := truncate(c.Title, cellInnerWidth)
	if title == "" {
		title = "·"
	}

	query := r.styles.Dim.Render(truncate(c.Query, cellInnerWidth))
	if c.Note != "" {
		query = r.styles.Dim.Render(truncate(c.Note, cellInnerWidth))
	}

	marks := ""
	if c.Selected {
		marks += "*"
	}
	if c.Invalid {
		marks += r.styles.Invalid.Render("!")
	}
	position := fmt.Sprintf("#%d  %s", c.Index+1, c.Position)
	last := pad(position, cellInnerWidth-lipgloss.Width(marks)) + marks

	content := pad(title, cellInnerWidth) + "\n" + pad(query, cellInnerWidth) + "\n" + r.styles.Position.Render(last)
	return style.Render(content)
}
