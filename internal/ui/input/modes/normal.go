package modes

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"deckforge/internal/ui/input/types"
)

// NormalMode is the default browse mode over the project grid.
type NormalMode struct {
	gPressed bool
	gTime    time.Time
}

func NewNormalMode() *NormalMode {
	return &NormalMode{}
}

func (m *NormalMode) Name() string {
	return "normal"
}

func (m *NormalMode) Enter(ctx types.Context) []types.Action {
	m.gPressed = false
	return nil
}

func (m *NormalMode) Exit(ctx types.Context) []types.Action {
	return nil
}

func (m *NormalMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	key := msg.String()

	// gg jumps to the first slot; the prefix expires like a vim timeout.
	if m.gPressed {
		m.gPressed = false
		if key == "g" && time.Since(m.gTime) < 500*time.Millisecond {
			return []types.Action{types.FocusAction{Index: 0}}, true
		}
	}

	switch key {
	case "ctrl+c":
		return []types.Action{types.QuitAction{Force: true}}, true
	case "q":
		return []types.Action{types.QuitAction{}}, true

	case "up", "k":
		return []types.Action{types.MoveFocusAction{DY: -1}}, true
	case "down", "j":
		return []types.Action{types.MoveFocusAction{DY: 1}}, true
	case "left", "h":
		return []types.Action{types.MoveFocusAction{DX: -1}}, true
	case "right", "l":
		return []types.Action{types.MoveFocusAction{DX: 1}}, true
	case "g":
		m.gPressed = true
		m.gTime = time.Now()
		return nil, true
	case "G":
		return []types.Action{types.FocusAction{Index: ctx.SlotCount() - 1}}, true

	case "[":
		return []types.Action{types.CycleImageAction{Delta: -1}}, true
	case "]":
		return []types.Action{types.CycleImageAction{Delta: 1}}, true
	case "f":
		return []types.Action{types.FlipFaceAction{}}, true

	case " ":
		return []types.Action{types.ToggleSelectAction{}}, true
	case "a":
		return []types.Action{types.SelectAllAction{Selected: true}}, true
	case "A":
		return []types.Action{types.SelectAllAction{Selected: false}}, true
	case "esc":
		return []types.Action{types.ClearTransientAction{}}, true

	case "d":
		return []types.Action{types.RequestDeleteAction{}}, true

	case "i":
		return []types.Action{types.OpenImportAction{}}, true
	case "/":
		return []types.Action{types.OpenQueryEditAction{}}, true
	case "e":
		return []types.Action{types.OpenExportAction{}}, true
	case "S":
		return []types.Action{types.OpenSaveAction{}}, true
	case "O":
		return []types.Action{types.OpenLoadAction{}}, true
	case "v":
		return []types.Action{types.OpenVersionPickerAction{}}, true
	case "c":
		return []types.Action{types.OpenCardbackPickerAction{}}, true
	case "s":
		return []types.Action{types.OpenSettingsAction{}}, true
	case "w":
		return []types.Action{types.OpenReviewAction{}}, true
	case "enter":
		return []types.Action{types.OpenDetailAction{}}, true

	case "?":
		return []types.Action{types.ShowHelpAction{}}, true
	}

	return nil, false
}
