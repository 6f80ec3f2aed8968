// Package input routes key events through the active input mode and
// turns them into actions for the model to apply.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"deckforge/internal/ui/input/modes"
	"deckforge/internal/ui/input/types"
)

// Handler dispatches keys to the active mode and owns the text input
// shared by all text modes. Mode changes flow back to the model as
// actions so it can keep the modal store in step; the model applies
// them through ChangeMode.
type Handler struct {
	currentMode types.Mode
	modes       map[types.Mode]types.ModeHandler
	textInput   *textinput.Model
}

// New builds a handler with all modes registered, starting in normal.
func New() *Handler {
	ti := textinput.New()
	ti.CharLimit = 0

	h := &Handler{
		currentMode: types.ModeNormal,
		textInput:   &ti,
		modes:       make(map[types.Mode]types.ModeHandler),
	}

	h.modes[types.ModeNormal] = modes.NewNormalMode()
	h.modes[types.ModeImport] = modes.NewImportMode(h.textInput)
	h.modes[types.ModeQueryEdit] = modes.NewQueryEditMode(h.textInput)
	h.modes[types.ModeExport] = modes.NewExportMode(h.textInput)
	h.modes[types.ModeSaveProject] = modes.NewSaveMode(h.textInput)
	h.modes[types.ModeConfirmDelete] = modes.NewConfirmMode()
	h.modes[types.ModePicker] = modes.NewPickerMode()
	h.modes[types.ModeSettings] = modes.NewSettingsMode()
	h.modes[types.ModeReview] = modes.NewReviewMode()
	h.modes[types.ModeDetail] = modes.NewDetailMode()

	return h
}

// HandleKey feeds a key to the active mode and returns the actions it
// produced. Unconsumed keys in text modes go to the shared text input.
func (h *Handler) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, tea.Cmd) {
	handler := h.modes[h.currentMode]
	if handler == nil {
		return nil, nil
	}

	actions, consumed := handler.HandleKey(msg, ctx)

	if !consumed && !h.isTextMode(h.currentMode) {
		return nil, nil
	}

	var cmd tea.Cmd
	if h.isTextMode(h.currentMode) && !consumed {
		var textCmd tea.Cmd
		*h.textInput, textCmd = h.textInput.Update(msg)
		cmd = textCmd
		actions = append(actions, types.UpdateTextAction{Text: h.textInput.Value()})
	}

	return actions, cmd
}

// ChangeMode switches the active mode, running the exit and enter hooks.
// It returns any actions those hooks emitted plus the blink command when
// the new mode reads text.
func (h *Handler) ChangeMode(mode types.Mode, ctx types.Context) ([]types.Action, tea.Cmd) {
	var all []types.Action

	if current := h.modes[h.currentMode]; current != nil {
		all = append(all, current.Exit(ctx)...)
	}

	h.currentMode = mode

	if next := h.modes[h.currentMode]; next != nil {
		all = append(all, next.Enter(ctx)...)
	}

	var cmd tea.Cmd
	if h.isTextMode(h.currentMode) {
		cmd = textinput.Blink
	}
	return all, cmd
}

// CurrentMode returns the active mode.
func (h *Handler) CurrentMode() types.Mode {
	return h.currentMode
}

// TextInput exposes the shared input while a text mode is active, for
// rendering. Nil otherwise.
func (h *Handler) TextInput() *textinput.Model {
	if h.isTextMode(h.currentMode) {
		return h.textInput
	}
	return nil
}

func (h *Handler) isTextMode(mode types.Mode) bool {
	switch mode {
	case types.ModeImport, types.ModeQueryEdit, types.ModeExport, types.ModeSaveProject:
		return true
	}
	return false
}
