// Package views renders the UI from a denormalized ViewState snapshot.
// Views never touch stores; the model assembles the snapshot each frame.
package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"deckforge/internal/stores"
	"deckforge/internal/ui/state"
)

// SlotCell is one prepared grid cell: the focused face of one slot.
type SlotCell struct {
	Index    int
	Title    string // selected image name, or the query when unresolved
	Query    string
	Position string // "i/N" within the query's results
	Invalid  bool
	Selected bool
	Empty    bool   // face has no member
	Note     string // e.g. marker for backs tracking the project cardback
}

// FaceDetail is one face's block in the detail pane.
type FaceDetail struct {
	Face     string
	Query    string
	Image    string
	Source   string
	Extra    string // dpi / size / date line
	Position string
	Invalid  bool
}

// DetailData is the focused slot's detail pane content.
type DetailData struct {
	Slot  int
	Faces []FaceDetail
}

// ReviewRow is one invalid-identifier record prepared for display.
type ReviewRow struct {
	Slot       int
	Face       string
	Query      string
	Identifier string
}

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width  int
	Height int

	Cells          []SlotCell
	ViewportOffset int
	FocusedSlot    int
	FrontFace      bool

	ProjectName   string
	SlotCount     int
	SelectedCount int
	Cardback      string

	Connected      bool
	ServerName     string
	PendingQueries int
	InvalidCount   int
	ErrorCount     int
	LastError      string

	StatusMessage string
	StatusIsError bool

	Mode          string
	Modal         stores.ModalKind
	InputView     string
	ImportReplace bool

	Picker      state.Picker
	Settings    state.SettingsEditor
	ReviewRows  []ReviewRow
	ReviewIndex int
	Detail      DetailData

	ConfirmCount int
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Render produces the complete view
func (r *Renderer) Render(vs ViewState) string {
	if vs.Width <= 0 || vs.Height <= 0 {
		return "loading..."
	}

	title := r.renderTitle(vs)
	status := r.renderStatusBar(vs)
	hint := r.renderHintLine(vs)

	bodyHeight := vs.Height - lipgloss.Height(title) - lipgloss.Height(status) - lipgloss.Height(hint)
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	if vs.Modal != stores.ModalNone {
		overlay := r.renderOverlay(vs)
		body = lipgloss.Place(vs.Width, bodyHeight, lipgloss.Center, lipgloss.Center, overlay)
	} else {
		body = r.renderBody(vs, bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, body, status, hint)
}

// renderTitle draws the top line: app name, project name, loading state.
func (r *Renderer) renderTitle(vs ViewState) string {
	logo := r.styles.Title.Render("deckforge")

	name := vs.ProjectName
	if name == "" {
		name = "untitled"
	}
	left := fmt.Sprintf("%s  %s (%d/%d)", logo, name, vs.SlotCount, maxProjectSlots)

	right := ""
	if vs.PendingQueries > 0 {
		frame := spinnerFrames[int(time.Now().UnixMilli()/80)%len(spinnerFrames)]
		right = r.styles.Loading.Render(fmt.Sprintf("%s fetching %d", frame, vs.PendingQueries))
	}

	gap := vs.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// maxProjectSlots mirrors the project cap for the title counter.
const maxProjectSlots = 612

// renderBody draws the grid plus the focused slot's detail pane.
func (r *Renderer) renderBody(vs ViewState, height int) string {
	detail := r.renderDetail(vs)
	gridHeight := height - lipgloss.Height(detail)
	if gridHeight < cellOuterHeight {
		gridHeight = cellOuterHeight
	}
	grid := r.renderGrid(vs, gridHeight)
	return lipgloss.JoinVertical(lipgloss.Left, grid, detail)
}

func (r *Renderer) renderHintLine(vs ViewState) string {
	var hint string
	switch vs.Mode {
	case "normal":
		hint = "?: help  i: import  /: query  [ ]: version  f: flip  space: select  e: export  q: quit"
	case "import":
		hint = "enter: import  ctrl+r: append/replace  esc: cancel"
	case "picker":
		hint = "j/k: move  enter: apply  esc: cancel"
	case "settings":
		hint = "space: toggle  h/l: adjust  J/K: reorder source  enter: apply  esc: discard"
	case "review":
		hint = "j/k: move  d: dismiss  D: dismiss all  esc: close"
	case "confirm-delete":
		hint = "y: delete  n: keep"
	case "detail":
		hint = "[ ]: version  f: flip  esc: close"
	default:
		hint = "enter: confirm  esc: cancel"
	}
	return r.styles.Help.Render(" " + hint)
}

// truncate shortens s to at most w cells, ellipsized.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= w {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > w {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// pad right-pads s with spaces to exactly w cells.
func pad(s string, w int) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
