package modes

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"deckforge/internal/ui/input/types"
)

// TextInputMode is a base for modes that accept a line of text. The text
// input itself is shared and owned by the handler; the base wires focus,
// prefill and the cancel/submit keys.
type TextInputMode struct {
	mode        types.Mode
	name        string
	placeholder string
	prefill     func(types.Context) string // nil means start empty
	textInput   *textinput.Model
}

func NewTextInputMode(mode types.Mode, name, placeholder string, prefill func(types.Context) string, ti *textinput.Model) TextInputMode {
	return TextInputMode{
		mode:        mode,
		name:        name,
		placeholder: placeholder,
		prefill:     prefill,
		textInput:   ti,
	}
}

func (m TextInputMode) Name() string {
	return m.name
}

func (m TextInputMode) Enter(ctx types.Context) []types.Action {
	if m.textInput != nil {
		m.textInput.Reset()
		m.textInput.Placeholder = m.placeholder
		m.textInput.Prompt = "" // the overlay draws its own label
		if m.prefill != nil {
			m.textInput.SetValue(m.prefill(ctx))
			m.textInput.CursorEnd()
		}
		m.textInput.Focus()
	}
	return nil
}

func (m TextInputMode) Exit(ctx types.Context) []types.Action {
	if m.textInput != nil {
		m.textInput.Blur()
		m.textInput.Reset()
	}
	return nil
}

func (m TextInputMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.String() {
	case "ctrl+c":
		return []types.Action{types.QuitAction{Force: true}}, true
	case "esc":
		return []types.Action{
			types.CancelTextAction{},
			types.ChangeModeAction{Mode: types.ModeNormal},
		}, true
	case "enter":
		text := ""
		if m.textInput != nil {
			text = m.textInput.Value()
		}
		return []types.Action{
			types.SubmitTextAction{Text: text, Mode: m.mode},
			types.ChangeModeAction{Mode: types.ModeNormal},
		}, true
	default:
		// Unconsumed; the handler feeds the key to the text input.
		return nil, false
	}
}
