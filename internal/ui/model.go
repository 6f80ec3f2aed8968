// Package ui implements the terminal interface: a Bubble Tea model over
// the shared stores, driven by input-mode actions and domain events.
package ui

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
	"deckforge/internal/export"
	"deckforge/internal/importer"
	"deckforge/internal/storage"
	"deckforge/internal/stores"
	"deckforge/internal/ui/input"
	"deckforge/internal/ui/input/types"
	"deckforge/internal/ui/logic"
	"deckforge/internal/ui/state"
	"deckforge/internal/ui/views"
)

const (
	tickInterval = 250 * time.Millisecond
	statusTTL    = 4 * time.Second
	saveTimeout  = 10 * time.Second
)

// Importer runs decklist imports. Inline text goes through the bus
// instead so the import pipeline stays event-driven.
type Importer interface {
	ImportFile(path string, replace bool) (int, bool, error)
	ImportURL(url string, replace bool) (int, bool, error)
}

// Saver persists and lists projects.
type Saver interface {
	Save(ctx context.Context, p domain.Project) error
	Load(ctx context.Context, key uuid.UUID) (domain.Project, error)
	List(ctx context.Context) ([]storage.ProjectInfo, error)
}

// Backend is the slice of the coordinator the UI drives directly.
type Backend interface {
	Connect(url string)
	Disconnect()
	EnsureDocuments(identifiers []string)
}

// Deps carries everything the model needs besides the stores.
type Deps struct {
	Importer  Importer
	Saver     Saver
	Backend   Backend
	Logger    *zap.Logger
	ExportDir string
	Autosave  bool
}

// Model is the Bubble Tea model for the whole application.
type Model struct {
	bus    eventbus.EventBus
	stores *stores.Stores
	logger *zap.Logger

	imports Importer
	saver   Saver
	backend Backend

	uiState  *state.State
	handler  *input.Handler
	renderer *views.Renderer

	program         *tea.Program
	renderingPaused bool

	exportDir string
	autosave  bool
}

// NewModel creates the model. SetProgram must be called before the
// program runs so the help pager can release the terminal.
func NewModel(bus eventbus.EventBus, st *stores.Stores, deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		bus:       bus,
		stores:    st,
		logger:    logger,
		imports:   deps.Importer,
		saver:     deps.Saver,
		backend:   deps.Backend,
		uiState:   state.New(),
		handler:   input.New(),
		renderer:  views.NewRenderer(),
		exportDir: deps.ExportDir,
		autosave:  deps.Autosave,
	}
}

// SetProgram hands the model its running program.
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
}

// Init starts the redraw tick.
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update is the single message loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.uiState.Width = msg.Width
		m.uiState.Height = msg.Height
		m.ensureVisible()
		return m, nil

	case tickMsg:
		return m, tickCmd()

	case clearStatusMsg:
		m.uiState.ClearStatus(msg.seq)
		return m, nil

	case importDoneMsg:
		if msg.err != nil {
			return m, m.setStatus("import failed: "+msg.err.Error(), true)
		}
		return m, nil

	case pagerDoneMsg:
		m.renderingPaused = false
		if msg.err != nil {
			return m, m.setStatus("help pager: "+msg.err.Error(), true)
		}
		return m, nil

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

// View renders the full frame, or nothing while an external pager owns
// the terminal.
func (m *Model) View() string {
	if m.renderingPaused {
		return ""
	}
	return m.renderer.Render(m.viewState())
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	actions, cmd := m.handler.HandleKey(msg, m.inputContext())
	var cmds []tea.Cmd
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	for _, action := range actions {
		if c := m.processAction(action); c != nil {
			cmds = append(cmds, c)
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// handleEvent reacts to domain events forwarded from the bus. Most events
// need no handling here because every frame reads the stores fresh; only
// focus upkeep and status messages remain.
func (m *Model) handleEvent(ev eventbus.DomainEvent) tea.Cmd {
	switch e := ev.(type) {
	case eventbus.MembersAddedEvent, eventbus.ProjectResetEvent, eventbus.SlotsDeletedEvent:
		m.ensureFocus()

	case eventbus.ImportCompletedEvent:
		m.ensureFocus()
		msg := fmt.Sprintf("imported %d card(s)", e.SlotsAdded)
		if e.Truncated {
			msg += ", project is full"
		}
		return m.setStatus(msg, false)

	case eventbus.BackendConnectedEvent:
		name := e.Info.Name
		if name == "" {
			name = e.URL
		}
		return m.setStatus("connected to "+name, false)

	case eventbus.BackendClearedEvent:
		return m.setStatus("disconnected", false)

	case eventbus.ErrorReportedEvent:
		return m.setStatus(e.Message, true)
	}
	return nil
}

// processAction applies one input action to the stores and session state.
func (m *Model) processAction(action types.Action) tea.Cmd {
	switch a := action.(type) {
	case types.ChangeModeAction:
		return m.changeMode(a.Mode)

	case types.QuitAction:
		return m.quit(a.Force)

	case types.MoveFocusAction:
		delta := a.DX + a.DY*views.Columns(m.uiState.Width)
		m.uiState.MoveFocus(delta, m.stores.Project.SlotCount())
		m.ensureVisible()

	case types.FocusAction:
		m.uiState.FocusedSlot = a.Index
		m.ensureFocus()

	case types.FlipFaceAction:
		m.uiState.FlipFace()

	case types.CycleImageAction:
		return m.cycleImage(a.Delta)

	case types.ToggleSelectAction:
		m.toggleSelect()

	case types.SelectAllAction:
		m.stores.Project.SetAllSelected(domain.FaceFront, a.Selected)
		m.stores.Project.SetAllSelected(domain.FaceBack, a.Selected)

	case types.ClearTransientAction:
		m.clearTransient()

	case types.RequestDeleteAction:
		return m.requestDelete()

	case types.DeleteSelectedAction:
		return m.deleteSelected()

	case types.OpenImportAction:
		m.uiState.ImportReplace = false
		m.stores.Modal.Open(stores.ModalImport)
		return m.changeMode(types.ModeImport)

	case types.OpenQueryEditAction:
		return m.openQueryEdit()

	case types.OpenExportAction:
		if m.stores.Project.SlotCount() == 0 {
			return m.setStatus("nothing to export", false)
		}
		m.stores.Modal.Open(stores.ModalExport)
		return m.changeMode(types.ModeExport)

	case types.OpenSaveAction:
		m.stores.Modal.Open(stores.ModalSaveProject)
		return m.changeMode(types.ModeSaveProject)

	case types.OpenLoadAction:
		return m.openLoadPicker()

	case types.OpenVersionPickerAction:
		return m.openVersionPicker()

	case types.OpenCardbackPickerAction:
		return m.openCardbackPicker()

	case types.OpenSettingsAction:
		return m.openSettings()

	case types.OpenReviewAction:
		if m.stores.Invalid.Count() == 0 {
			return m.setStatus("no invalid selections", false)
		}
		m.uiState.ReviewIndex = 0
		m.stores.Modal.Open(stores.ModalInvalidReview)
		return m.changeMode(types.ModeReview)

	case types.OpenDetailAction:
		if m.stores.Project.SlotCount() == 0 {
			return nil
		}
		m.stores.Modal.OpenForFace(stores.ModalCardDetail, m.uiState.FocusedSlot, m.uiState.FocusedFace)
		return m.changeMode(types.ModeDetail)

	case types.ToggleImportReplaceAction:
		m.uiState.ImportReplace = !m.uiState.ImportReplace

	case types.SubmitTextAction:
		return m.submitText(a)

	case types.CancelTextAction:
		// Nothing to undo; the mode change in the same batch closes the
		// overlay.

	case types.UpdateTextAction:
		// The text lives in the shared input; nothing to mirror.

	case types.MovePickerAction:
		m.uiState.MovePicker(a.Delta)

	case types.ConfirmPickerAction:
		return m.confirmPicker()

	case types.SettingsMoveAction:
		m.uiState.MoveSettingsRow(a.Delta)

	case types.SettingsToggleAction:
		m.uiState.ToggleSettingsRow()

	case types.SettingsAdjustAction:
		m.uiState.AdjustSettingsRow(a.Delta)

	case types.SettingsReorderAction:
		m.uiState.MoveSettingsSource(a.Delta)

	case types.SettingsApplyAction:
		return m.applySettings()

	case types.ReviewMoveAction:
		m.uiState.MoveReview(a.Delta, m.stores.Invalid.Count())

	case types.ReviewDismissAction:
		return m.dismissInvalid(a.All)

	case types.ShowHelpAction:
		return m.showHelp()
	}
	return nil
}

// changeMode switches the input mode and keeps the modal store in step:
// returning to normal closes whatever overlay was open.
func (m *Model) changeMode(mode types.Mode) tea.Cmd {
	lifecycle, cmd := m.handler.ChangeMode(mode, m.inputContext())
	var cmds []tea.Cmd
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	for _, a := range lifecycle {
		if c := m.processAction(a); c != nil {
			cmds = append(cmds, c)
		}
	}
	if mode == types.ModeNormal {
		m.stores.Modal.Close()
		m.uiState.ClosePicker()
		m.uiState.EndSettings()
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) quit(force bool) tea.Cmd {
	if !force && m.autosave && m.saver != nil && m.stores.Project.SlotCount() > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := m.saver.Save(ctx, m.stores.Project.Snapshot()); err != nil {
			m.logger.Warn("autosave on quit failed", zap.Error(err))
		}
	}
	return tea.Quit
}

// cycleImage steps the focused face to the previous or next candidate.
// Queryless backs cycle through the cardback list; an out-of-results
// pick restarts at the nearest end.
func (m *Model) cycleImage(delta int) tea.Cmd {
	slot, face := m.uiState.FocusedSlot, m.uiState.FocusedFace
	member := m.stores.Project.Member(slot, face)
	if member == nil {
		return nil
	}
	results, ok := m.stores.Results.ResultsForQueryOrDefault(member.Query, face, m.stores.Cardbacks.All())
	if member.Query == nil && !ok {
		return m.setStatus("no query on this face", false)
	}
	if !ok || len(results) == 0 {
		return m.setStatus("no results for this face", false)
	}
	next := 0
	if idx := indexOf(results, member.SelectedImage); idx >= 0 {
		next = logic.WrapIndex(idx, delta, len(results))
	} else if delta < 0 {
		next = len(results) - 1
	}
	m.stores.Project.SetSelectedImage(slot, face, results[next])
	if m.backend != nil {
		m.backend.EnsureDocuments([]string{results[next]})
	}
	return nil
}

// toggleSelect flips selection for the focused slot as a whole. Both
// faces move together so bulk deletes operate on slots, not faces.
func (m *Model) toggleSelect() {
	i := m.uiState.FocusedSlot
	slot, ok := m.stores.Project.Slot(i)
	if !ok {
		return
	}
	selected := slot.Front != nil && slot.Front.Selected ||
		slot.Back != nil && slot.Back.Selected
	m.stores.Project.SetSelected(i, domain.FaceFront, !selected)
	m.stores.Project.SetSelected(i, domain.FaceBack, !selected)
}

// selectedSlots returns the slots with either face selected, ascending.
func (m *Model) selectedSlots() []int {
	seen := make(map[int]struct{})
	for _, face := range domain.Faces {
		for _, i := range m.stores.Project.SelectedSlots(face) {
			seen[i] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (m *Model) clearTransient() {
	m.stores.Project.SetAllSelected(domain.FaceFront, false)
	m.stores.Project.SetAllSelected(domain.FaceBack, false)
	m.stores.Errors.DismissAll()
	m.uiState.ClearStatus(m.uiState.SetStatus("", false))
}

func (m *Model) requestDelete() tea.Cmd {
	if len(m.selectedSlots()) == 0 {
		return m.setStatus("nothing selected", false)
	}
	m.stores.Modal.Open(stores.ModalConfirmDelete)
	return m.changeMode(types.ModeConfirmDelete)
}

func (m *Model) deleteSelected() tea.Cmd {
	indices := m.selectedSlots()
	if len(indices) == 0 {
		return nil
	}
	m.stores.Project.DeleteSlots(indices)
	m.ensureFocus()
	return m.setStatus(fmt.Sprintf("deleted %d slot(s)", len(indices)), false)
}

func (m *Model) openQueryEdit() tea.Cmd {
	if m.stores.Project.SlotCount() == 0 {
		return m.setStatus("no cards to edit", false)
	}
	m.stores.Modal.OpenForFace(stores.ModalChangeQuery, m.uiState.FocusedSlot, m.uiState.FocusedFace)
	return m.changeMode(types.ModeQueryEdit)
}

func (m *Model) openLoadPicker() tea.Cmd {
	if m.saver == nil {
		return m.setStatus("no project storage configured", true)
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	infos, err := m.saver.List(ctx)
	if err != nil {
		return m.setStatus("list projects: "+err.Error(), true)
	}
	if len(infos) == 0 {
		return m.setStatus("no saved projects", false)
	}
	items := make([]state.PickerItem, len(infos))
	for i, info := range infos {
		items[i] = state.PickerItem{
			ID:     info.Key.String(),
			Label:  info.Name,
			Detail: fmt.Sprintf("%d cards, %s", info.Slots, info.UpdatedAt.Format("2006-01-02 15:04")),
		}
	}
	m.uiState.OpenPicker(items, 0)
	m.stores.Modal.Open(stores.ModalLoadProject)
	return m.changeMode(types.ModePicker)
}

func (m *Model) openVersionPicker() tea.Cmd {
	slot, face := m.uiState.FocusedSlot, m.uiState.FocusedFace
	member := m.stores.Project.Member(slot, face)
	if member == nil {
		return nil
	}
	results, ok := m.stores.Results.ResultsForQueryOrDefault(member.Query, face, m.stores.Cardbacks.All())
	if member.Query == nil && !ok {
		return m.setStatus("no query on this face", false)
	}
	if !ok || len(results) == 0 {
		return m.setStatus("no results for this face", false)
	}
	items := make([]state.PickerItem, len(results))
	for i, id := range results {
		items[i] = state.PickerItem{ID: id, Label: m.displayName(id), Detail: m.documentDetail(id)}
	}
	sel := indexOf(results, member.SelectedImage)
	if sel < 0 {
		sel = 0
	}
	m.uiState.OpenPicker(items, sel)
	m.stores.Modal.OpenForFace(stores.ModalChangeVersion, slot, face)
	if m.backend != nil {
		m.backend.EnsureDocuments(results)
	}
	return m.changeMode(types.ModePicker)
}

func (m *Model) openCardbackPicker() tea.Cmd {
	cardbacks := m.stores.Cardbacks.All()
	if len(cardbacks) == 0 {
		return m.setStatus("no cardbacks loaded", false)
	}
	items := make([]state.PickerItem, len(cardbacks))
	for i, id := range cardbacks {
		items[i] = state.PickerItem{ID: id, Label: m.displayName(id), Detail: m.documentDetail(id)}
	}
	sel := indexOf(cardbacks, m.stores.Project.Cardback())
	if sel < 0 {
		sel = 0
	}
	m.uiState.OpenPicker(items, sel)
	m.stores.Modal.Open(stores.ModalCardback)
	if m.backend != nil {
		m.backend.EnsureDocuments(cardbacks)
	}
	return m.changeMode(types.ModePicker)
}

func (m *Model) openSettings() tea.Cmd {
	if !m.stores.Sources.Loaded() {
		return m.setStatus("connect to a backend first", false)
	}
	m.uiState.BeginSettings(m.stores.Settings.Get(), m.stores.Sources.All())
	m.stores.Modal.Open(stores.ModalSettings)
	return m.changeMode(types.ModeSettings)
}

// submitText routes a text overlay's submission by the mode it came from.
// It runs before the accompanying mode change, so the modal state still
// names the slot face the overlay targeted.
func (m *Model) submitText(a types.SubmitTextAction) tea.Cmd {
	text := strings.TrimSpace(a.Text)
	switch a.Mode {
	case types.ModeImport:
		if text == "" {
			return nil
		}
		return m.dispatchImport(a.Text, m.uiState.ImportReplace)
	case types.ModeQueryEdit:
		return m.applyQueryEdit(text)
	case types.ModeExport:
		return m.exportProject(text)
	case types.ModeSaveProject:
		return m.saveProject(text)
	}
	return nil
}

// dispatchImport decides what the submitted text is. A single line naming
// a readable file imports that file; an http(s) URL imports remotely;
// anything else is decklist text handed to the importer over the bus.
func (m *Model) dispatchImport(text string, replace bool) tea.Cmd {
	trimmed := strings.TrimSpace(text)
	if imports := m.imports; imports != nil && !strings.ContainsRune(trimmed, '\n') {
		if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
			return func() tea.Msg {
				_, _, err := imports.ImportURL(trimmed, replace)
				return importDoneMsg{err: err}
			}
		}
		if info, err := os.Stat(trimmed); err == nil && !info.IsDir() {
			return func() tea.Msg {
				_, _, err := imports.ImportFile(trimmed, replace)
				return importDoneMsg{err: err}
			}
		}
	}
	m.bus.Publish(eventbus.ImportRequestedEvent{Text: text, Replace: replace})
	return nil
}

func (m *Model) applyQueryEdit(text string) tea.Cmd {
	modal := m.stores.Modal.Get()
	if modal.Slot < 0 {
		return nil
	}
	query := importer.ParseQuery(text)
	if query == nil {
		m.stores.Project.ClearQueries([]int{modal.Slot}, modal.Face)
		return m.setStatus("query cleared", false)
	}
	m.stores.Project.SetQuery([]int{modal.Slot}, modal.Face, query, true)
	return nil
}

func (m *Model) exportProject(dir string) tea.Cmd {
	if dir == "" {
		dir = m.exportDir
	}
	if dir == "" {
		dir = "."
	}
	paths, err := export.SaveFiles(dir, m.stores.Project.Snapshot(), m.stores.Documents.Get)
	if err != nil {
		return m.setStatus("export failed: "+err.Error(), true)
	}
	return m.setStatus(fmt.Sprintf("exported %d file(s) to %s", len(paths), dir), false)
}

func (m *Model) saveProject(name string) tea.Cmd {
	if m.saver == nil {
		return m.setStatus("no project storage configured", true)
	}
	if name != "" {
		m.stores.Project.SetName(name)
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := m.saver.Save(ctx, m.stores.Project.Snapshot()); err != nil {
		return m.setStatus("save failed: "+err.Error(), true)
	}
	return m.setStatus(fmt.Sprintf("saved %q", m.stores.Project.Name()), false)
}

// confirmPicker applies the highlighted picker item according to which
// picker the modal store says is open.
func (m *Model) confirmPicker() tea.Cmd {
	item, ok := m.uiState.CurrentPickerItem()
	if !ok {
		return nil
	}
	modal := m.stores.Modal.Get()
	switch modal.Kind {
	case stores.ModalChangeVersion:
		return m.applyVersion(modal, item.ID)
	case stores.ModalCardback:
		m.stores.Project.SetCardback(item.ID)
		return m.setStatus("cardback changed", false)
	case stores.ModalLoadProject:
		return m.loadProject(item.ID)
	}
	return nil
}

// applyVersion sets the picked image on the targeted slot face, and on
// every selected slot whose same face searches for the same query.
// Queryless backs count as matching each other, so a picked cardback
// spreads across a selection of plain backs.
func (m *Model) applyVersion(modal stores.ModalState, identifier string) tea.Cmd {
	targets := []int{modal.Slot}
	if member := m.stores.Project.Member(modal.Slot, modal.Face); member != nil {
		for _, i := range m.stores.Project.SelectedSlots(modal.Face) {
			if i == modal.Slot {
				continue
			}
			other := m.stores.Project.Member(i, modal.Face)
			if other != nil && sameQuery(member.Query, other.Query) {
				targets = append(targets, i)
			}
		}
	}
	sort.Ints(targets)
	m.stores.Project.SetSelectedImages(modal.Face, targets, identifier)
	if m.backend != nil {
		m.backend.EnsureDocuments([]string{identifier})
	}
	if len(targets) > 1 {
		return m.setStatus(fmt.Sprintf("changed %d slots", len(targets)), false)
	}
	return nil
}

func (m *Model) loadProject(id string) tea.Cmd {
	key, err := uuid.Parse(id)
	if err != nil {
		return m.setStatus("bad project id", true)
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	p, err := m.saver.Load(ctx, key)
	if err != nil {
		return m.setStatus("open failed: "+err.Error(), true)
	}
	m.stores.Project.Replace(p)
	m.ensureFocus()
	return m.setStatus(fmt.Sprintf("opened %q", p.Name), false)
}

func (m *Model) applySettings() tea.Cmd {
	if m.stores.Settings.Set(m.uiState.Settings.Draft, true) {
		return m.setStatus("settings applied", false)
	}
	return m.setStatus("settings unchanged", false)
}

func (m *Model) dismissInvalid(all bool) tea.Cmd {
	records := m.stores.Invalid.All()
	if len(records) == 0 {
		return nil
	}
	if all {
		refs := make([]stores.FaceRef, len(records))
		for i, rec := range records {
			refs[i] = rec.Ref
		}
		m.stores.Invalid.ClearFaces(refs)
		m.uiState.ReviewIndex = 0
		return m.setStatus("dismissed all", false)
	}
	idx := logic.Clamp(m.uiState.ReviewIndex, 0, len(records)-1)
	m.stores.Invalid.ClearFaces([]stores.FaceRef{records[idx].Ref})
	m.uiState.MoveReview(0, m.stores.Invalid.Count())
	return nil
}

// showHelp hands the terminal to the external pager. Rendering pauses
// until the pager command reports back.
func (m *Model) showHelp() tea.Cmd {
	if m.program == nil {
		return m.setStatus("help unavailable", false)
	}
	m.renderingPaused = true
	program := m.program
	return func() tea.Msg {
		return pagerDoneMsg{err: showHelpInPager(program, helpContent())}
	}
}

// setStatus shows a transient message and schedules its clear. The
// sequence number keeps a delayed clear from wiping a newer message.
func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	seq := m.uiState.SetStatus(msg, isErr)
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m *Model) ensureFocus() {
	m.uiState.ClampFocus(m.stores.Project.SlotCount())
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	m.uiState.EnsureVisible(
		m.stores.Project.SlotCount(),
		views.Columns(m.uiState.Width),
		views.GridRows(m.uiState.Height),
	)
}

// displayName resolves an identifier to the card name when its document
// is cached, else the raw identifier.
func (m *Model) displayName(identifier string) string {
	if identifier == "" {
		return ""
	}
	if doc, ok := m.stores.Documents.Get(identifier); ok && doc.Name != "" {
		return doc.Name
	}
	return identifier
}

// documentDetail builds the secondary picker line for an identifier.
func (m *Model) documentDetail(identifier string) string {
	doc, ok := m.stores.Documents.Get(identifier)
	if !ok {
		return ""
	}
	parts := make([]string, 0, 3)
	if doc.SourceName != "" {
		parts = append(parts, doc.SourceName)
	}
	if doc.DPI > 0 {
		parts = append(parts, fmt.Sprintf("%d dpi", doc.DPI))
	}
	if doc.Size > 0 {
		parts = append(parts, humanSize(doc.Size))
	}
	return strings.Join(parts, ", ")
}

func humanSize(bytes int64) string {
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
}

// queryDisplay renders a query the way the import grammar spells it, so
// editing a face round-trips through the same parser.
func queryDisplay(q domain.SearchQuery) string {
	switch q.Type {
	case domain.TypeToken:
		return "t:" + q.Text
	case domain.TypeCardback:
		return "b:" + q.Text
	default:
		return q.Text
	}
}

func sameQuery(a, b *domain.SearchQuery) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func indexOf(ids []string, id string) int {
	if id == "" {
		return -1
	}
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
