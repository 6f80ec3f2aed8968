package modes

import (
	tea "github.com/charmbracelet/bubbletea"

	"deckforge/internal/ui/input/types"
)

// DetailMode shows the focused face's full image metadata. Image cycling
// and face flipping stay live so versions can be compared in place.
type DetailMode struct{}

func NewDetailMode() *DetailMode {
	return &DetailMode{}
}

func (m *DetailMode) Name() string {
	return "detail"
}

func (m *DetailMode) Enter(ctx types.Context) []types.Action {
	return nil
}

func (m *DetailMode) Exit(ctx types.Context) []types.Action {
	return nil
}

func (m *DetailMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.String() {
	case "ctrl+c":
		return []types.Action{types.QuitAction{Force: true}}, true
	case "[":
		return []types.Action{types.CycleImageAction{Delta: -1}}, true
	case "]":
		return []types.Action{types.CycleImageAction{Delta: 1}}, true
	case "f":
		return []types.Action{types.FlipFaceAction{}}, true
	case "esc", "q", "enter":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeNormal}}, true
	}
	return nil, false
}
