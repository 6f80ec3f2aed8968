package modes

import (
	tea "github.com/charmbracelet/bubbletea"

	"deckforge/internal/ui/input/types"
)

// ReviewMode pages through the invalid-identifier ledger: selections
// that stopped matching their query's results.
type ReviewMode struct{}

func NewReviewMode() *ReviewMode {
	return &ReviewMode{}
}

func (m *ReviewMode) Name() string {
	return "review"
}

func (m *ReviewMode) Enter(ctx types.Context) []types.Action {
	return nil
}

func (m *ReviewMode) Exit(ctx types.Context) []types.Action {
	return nil
}

func (m *ReviewMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.String() {
	case "ctrl+c":
		return []types.Action{types.QuitAction{Force: true}}, true
	case "up", "k":
		return []types.Action{types.ReviewMoveAction{Delta: -1}}, true
	case "down", "j":
		return []types.Action{types.ReviewMoveAction{Delta: 1}}, true
	case "d":
		return []types.Action{types.ReviewDismissAction{}}, true
	case "D":
		return []types.Action{types.ReviewDismissAction{All: true}}, true
	case "esc", "q", "enter":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeNormal}}, true
	}
	return nil, false
}
