// Package types defines the input layer's contracts: modes, the actions
// modes emit, and the read-only view of the application they consult.
// Keeping these in their own package lets mode implementations and the
// handler depend on the same vocabulary without import cycles.
package types

import (
	tea "github.com/charmbracelet/bubbletea"

	"deckforge/internal/domain"
)

// Mode identifies an input mode. Exactly one mode is active at a time.
type Mode int

const (
	ModeNormal Mode = iota
	ModeImport
	ModeQueryEdit
	ModeExport
	ModeSaveProject
	ModeConfirmDelete
	ModePicker
	ModeSettings
	ModeReview
	ModeDetail
)

// String returns the mode name used in logs and tests.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeImport:
		return "import"
	case ModeQueryEdit:
		return "query-edit"
	case ModeExport:
		return "export"
	case ModeSaveProject:
		return "save-project"
	case ModeConfirmDelete:
		return "confirm-delete"
	case ModePicker:
		return "picker"
	case ModeSettings:
		return "settings"
	case ModeReview:
		return "review"
	case ModeDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// Context is the read-only application view handed to mode handlers.
// The model implements it; modes never mutate state directly.
type Context interface {
	SlotCount() int
	FocusedSlot() int
	FocusedFace() domain.Face
	SelectionCount() int
	Connected() bool
	ProjectName() string
	FocusedQueryText() string
	ImportReplace() bool
	InvalidCount() int
	PickerSize() int
	DefaultExportDir() string
}

// ModeHandler is one input mode. HandleKey returns the actions the key
// produced and whether the key was consumed; unconsumed keys in text
// modes fall through to the shared text input.
type ModeHandler interface {
	HandleKey(msg tea.KeyMsg, ctx Context) ([]Action, bool)
	Enter(ctx Context) []Action
	Exit(ctx Context) []Action
	Name() string
}

// Action is a request from the input layer to the model.
type Action interface {
	isAction()
}

// ChangeModeAction switches the active input mode.
type ChangeModeAction struct {
	Mode Mode
}

// QuitAction exits the program. Force skips the autosave.
type QuitAction struct {
	Force bool
}

// MoveFocusAction moves the focused slot. DX steps within a grid row,
// DY steps whole rows; the model converts rows into slot positions.
type MoveFocusAction struct {
	DX int
	DY int
}

// FocusAction jumps the focus to an absolute slot index.
type FocusAction struct {
	Index int
}

// FlipFaceAction switches the focused face.
type FlipFaceAction struct{}

// CycleImageAction steps the focused face's selected image through its
// query results, wrapping at both ends.
type CycleImageAction struct {
	Delta int
}

// ToggleSelectAction toggles the focused slot's bulk-selection mark.
type ToggleSelectAction struct{}

// SelectAllAction marks or unmarks every slot.
type SelectAllAction struct {
	Selected bool
}

// ClearTransientAction is esc in normal mode: drop the selection, the
// status message and any recorded errors.
type ClearTransientAction struct{}

// RequestDeleteAction asks for the selected slots to be deleted; the
// model opens the confirmation dialog when something is selected.
type RequestDeleteAction struct{}

// DeleteSelectedAction deletes the selected slots. Emitted by the
// confirmation mode.
type DeleteSelectedAction struct{}

// Overlay openers. The model opens the matching modal, prepares its
// working state and switches mode.
type (
	OpenImportAction         struct{}
	OpenQueryEditAction      struct{}
	OpenExportAction         struct{}
	OpenSaveAction           struct{}
	OpenLoadAction           struct{}
	OpenVersionPickerAction  struct{}
	OpenCardbackPickerAction struct{}
	OpenSettingsAction       struct{}
	OpenReviewAction         struct{}
	OpenDetailAction         struct{}
)

// UpdateTextAction mirrors the shared text input's current value after a
// keystroke the mode did not consume.
type UpdateTextAction struct {
	Text string
}

// SubmitTextAction is enter in a text mode. Mode tells the model which
// operation the text feeds.
type SubmitTextAction struct {
	Text string
	Mode Mode
}

// CancelTextAction is esc in a text mode.
type CancelTextAction struct{}

// ToggleImportReplaceAction flips the import overlay between appending
// to and replacing the current project.
type ToggleImportReplaceAction struct{}

// MovePickerAction moves the picker cursor.
type MovePickerAction struct {
	Delta int
}

// ConfirmPickerAction applies the picker row under the cursor; the open
// modal kind determines what that means.
type ConfirmPickerAction struct{}

// Settings editor actions.
type (
	SettingsMoveAction    struct{ Delta int }
	SettingsToggleAction  struct{}
	SettingsAdjustAction  struct{ Delta int }
	SettingsReorderAction struct{ Delta int }
	SettingsApplyAction   struct{}
)

// ReviewMoveAction moves the invalid-review cursor.
type ReviewMoveAction struct {
	Delta int
}

// ReviewDismissAction drops the invalid record under the cursor, or all
// of them.
type ReviewDismissAction struct {
	All bool
}

// ShowHelpAction opens the key reference in the pager.
type ShowHelpAction struct{}

func (ChangeModeAction) isAction()          {}
func (QuitAction) isAction()                {}
func (MoveFocusAction) isAction()           {}
func (FocusAction) isAction()               {}
func (FlipFaceAction) isAction()            {}
func (CycleImageAction) isAction()          {}
func (ToggleSelectAction) isAction()        {}
func (SelectAllAction) isAction()           {}
func (ClearTransientAction) isAction()      {}
func (RequestDeleteAction) isAction()       {}
func (DeleteSelectedAction) isAction()      {}
func (OpenImportAction) isAction()          {}
func (OpenQueryEditAction) isAction()       {}
func (OpenExportAction) isAction()          {}
func (OpenSaveAction) isAction()            {}
func (OpenLoadAction) isAction()            {}
func (OpenVersionPickerAction) isAction()   {}
func (OpenCardbackPickerAction) isAction()  {}
func (OpenSettingsAction) isAction()        {}
func (OpenReviewAction) isAction()          {}
func (OpenDetailAction) isAction()          {}
func (UpdateTextAction) isAction()          {}
func (SubmitTextAction) isAction()          {}
func (CancelTextAction) isAction()          {}
func (ToggleImportReplaceAction) isAction() {}
func (MovePickerAction) isAction()          {}
func (ConfirmPickerAction) isAction()       {}
func (SettingsMoveAction) isAction()        {}
func (SettingsToggleAction) isAction()      {}
func (SettingsAdjustAction) isAction()      {}
func (SettingsReorderAction) isAction()     {}
func (SettingsApplyAction) isAction()       {}
func (ReviewMoveAction) isAction()          {}
func (ReviewDismissAction) isAction()       {}
func (ShowHelpAction) isAction()            {}
