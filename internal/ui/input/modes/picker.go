package modes

import (
	tea "github.com/charmbracelet/bubbletea"

	"deckforge/internal/ui/input/types"
)

// PickerMode drives the generic list picker. The same mode serves the
// change-version, cardback and open-project overlays; the open modal
// kind tells the model what a confirmed row means.
type PickerMode struct{}

func NewPickerMode() *PickerMode {
	return &PickerMode{}
}

func (m *PickerMode) Name() string {
	return "picker"
}

func (m *PickerMode) Enter(ctx types.Context) []types.Action {
	return nil
}

func (m *PickerMode) Exit(ctx types.Context) []types.Action {
	return nil
}

func (m *PickerMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.String() {
	case "ctrl+c":
		return []types.Action{types.QuitAction{Force: true}}, true
	case "up", "k":
		return []types.Action{types.MovePickerAction{Delta: -1}}, true
	case "down", "j":
		return []types.Action{types.MovePickerAction{Delta: 1}}, true
	case "pgup":
		return []types.Action{types.MovePickerAction{Delta: -10}}, true
	case "pgdown":
		return []types.Action{types.MovePickerAction{Delta: 10}}, true
	case "g":
		return []types.Action{types.MovePickerAction{Delta: -ctx.PickerSize()}}, true
	case "G":
		return []types.Action{types.MovePickerAction{Delta: ctx.PickerSize()}}, true
	case "enter":
		return []types.Action{
			types.ConfirmPickerAction{},
			types.ChangeModeAction{Mode: types.ModeNormal},
		}, true
	case "esc", "q":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeNormal}}, true
	}
	return nil, false
}
