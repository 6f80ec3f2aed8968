package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// detailPaneHeight is the fixed height of the focused-slot pane under
// the grid, border included.
const detailPaneHeight = 8

// renderDetail draws the focused slot's pane: one line per face with
// query, picked image and its provenance.
func (r *Renderer) renderDetail(vs ViewState) string {
	width := vs.Width - 2
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	if vs.SlotCount == 0 {
		b.WriteString(r.styles.Dim.Render("empty project"))
	} else {
		b.WriteString(r.styles.DetailLabel.Render(fmt.Sprintf("slot %d", vs.Detail.Slot+1)))
		if vs.Cardback != "" {
			b.WriteString(r.styles.Dim.Render("   cardback: " + truncate(vs.Cardback, 40)))
		}
		b.WriteString("\n")
		for _, f := range vs.Detail.Faces {
			b.WriteString(r.renderFaceLine(f, width))
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(lipgloss.Color("238")).
		Width(width).
		Height(detailPaneHeight - 1).
		Render(b.String())
}

func (r *Renderer) renderFaceLine(f FaceDetail, width int) string {
	label := r.styles.DetailLabel.Render(pad(f.Face, 6))

	query := f.Query
	if query == "" {
		query = "(no query)"
	}

	image := f.Image
	if image == "" {
		image = "(no image)"
	}
	if f.Invalid {
		image = r.styles.Invalid.Render(image + " !")
	}

	line := fmt.Sprintf("%s %s  →  %s", label, r.styles.DetailValue.Render(truncate(query, 32)), image)
	if f.Position != "" {
		line += r.styles.Position.Render("  " + f.Position)
	}
	if f.Source != "" || f.Extra != "" {
		meta := strings.TrimSpace(f.Source + "  " + f.Extra)
		line += "\n" + pad("", 7) + r.styles.Dim.Render(truncate(meta, width-8))
	}
	return line
}
