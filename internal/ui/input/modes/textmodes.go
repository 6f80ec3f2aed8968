package modes

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"deckforge/internal/ui/input/types"
)

// ImportMode reads a decklist source: inline text, a file path or an
// import-site URL. ctrl+r flips between appending and replacing.
type ImportMode struct {
	TextInputMode
}

func NewImportMode(ti *textinput.Model) *ImportMode {
	return &ImportMode{
		TextInputMode: NewTextInputMode(types.ModeImport, "import",
			"decklist text, file path, or URL", nil, ti),
	}
}

func (m *ImportMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	if msg.String() == "ctrl+r" {
		return []types.Action{types.ToggleImportReplaceAction{}}, true
	}
	return m.TextInputMode.HandleKey(msg, ctx)
}

// NewQueryEditMode edits the focused face's search query, starting from
// its current text. Submitting empty clears the query.
func NewQueryEditMode(ti *textinput.Model) TextInputMode {
	return NewTextInputMode(types.ModeQueryEdit, "query-edit",
		"query ('t:' token, 'b:' cardback; empty clears)",
		func(ctx types.Context) string { return ctx.FocusedQueryText() }, ti)
}

// NewExportMode reads the directory the decklist and order XML are
// written to.
func NewExportMode(ti *textinput.Model) TextInputMode {
	return NewTextInputMode(types.ModeExport, "export",
		"directory to export into",
		func(ctx types.Context) string { return ctx.DefaultExportDir() }, ti)
}

// NewSaveMode reads the name the project is saved under.
func NewSaveMode(ti *textinput.Model) TextInputMode {
	return NewTextInputMode(types.ModeSaveProject, "save-project",
		"project name",
		func(ctx types.Context) string { return ctx.ProjectName() }, ti)
}
