package modes

import (
	tea "github.com/charmbracelet/bubbletea"

	"deckforge/internal/ui/input/types"
)

// SettingsMode edits the search settings draft. Changes apply on enter;
// esc throws the draft away.
type SettingsMode struct{}

func NewSettingsMode() *SettingsMode {
	return &SettingsMode{}
}

func (m *SettingsMode) Name() string {
	return "settings"
}

func (m *SettingsMode) Enter(ctx types.Context) []types.Action {
	return nil
}

func (m *SettingsMode) Exit(ctx types.Context) []types.Action {
	return nil
}

func (m *SettingsMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.String() {
	case "ctrl+c":
		return []types.Action{types.QuitAction{Force: true}}, true
	case "up", "k":
		return []types.Action{types.SettingsMoveAction{Delta: -1}}, true
	case "down", "j":
		return []types.Action{types.SettingsMoveAction{Delta: 1}}, true
	case " ":
		return []types.Action{types.SettingsToggleAction{}}, true
	case "left", "h", "-":
		return []types.Action{types.SettingsAdjustAction{Delta: -1}}, true
	case "right", "l", "+", "=":
		return []types.Action{types.SettingsAdjustAction{Delta: 1}}, true
	case "K":
		return []types.Action{types.SettingsReorderAction{Delta: -1}}, true
	case "J":
		return []types.Action{types.SettingsReorderAction{Delta: 1}}, true
	case "enter":
		return []types.Action{
			types.SettingsApplyAction{},
			types.ChangeModeAction{Mode: types.ModeNormal},
		}, true
	case "esc", "q":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeNormal}}, true
	}
	return nil, false
}
