package views

import (
	"fmt"
	"strings"
)

// renderStatusBar draws the bottom bar: connection, selection, invalid
// and error counters, then the transient status message.
func (r *Renderer) renderStatusBar(vs ViewState) string {
	parts := []string{}

	if vs.Connected {
		name := vs.ServerName
		if name == "" {
			name = "connected"
		}
		parts = append(parts, r.styles.StatusSuccess.Render("● "+name))
	} else {
		parts = append(parts, r.styles.Dim.Render("○ offline"))
	}

	if vs.SelectedCount > 0 {
		parts = append(parts, r.styles.StatusWarning.Render(fmt.Sprintf("%d selected", vs.SelectedCount)))
	}
	if vs.InvalidCount > 0 {
		parts = append(parts, r.styles.StatusError.Render(fmt.Sprintf("%d invalid (w)", vs.InvalidCount)))
	}
	if vs.ErrorCount > 0 {
		msg := fmt.Sprintf("%d errors", vs.ErrorCount)
		if vs.LastError != "" {
			msg += ": " + truncate(vs.LastError, 48)
		}
		parts = append(parts, r.styles.StatusError.Render(msg))
	}

	if vs.StatusMessage != "" {
		style := r.styles.Status
		if vs.StatusIsError {
			style = r.styles.StatusError
		}
		parts = append(parts, style.Render(vs.StatusMessage))
	}

	return " " + strings.Join(parts, r.styles.Dim.Render("  │  "))
}
