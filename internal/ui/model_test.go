package ui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
	"deckforge/internal/storage"
	"deckforge/internal/stores"
	"deckforge/internal/ui/input/types"
)

type recordingBus struct {
	events []eventbus.DomainEvent
}

func (b *recordingBus) Publish(event eventbus.DomainEvent) {
	b.events = append(b.events, event)
}

func (b *recordingBus) Subscribe(eventbus.EventType, eventbus.EventHandler) func() {
	return func() {}
}

func (b *recordingBus) Close() {}

type fakeSaver struct {
	saved  []domain.Project
	loaded domain.Project
	infos  []storage.ProjectInfo
	err    error
}

func (s *fakeSaver) Save(_ context.Context, p domain.Project) error {
	s.saved = append(s.saved, p)
	return s.err
}

func (s *fakeSaver) Load(context.Context, uuid.UUID) (domain.Project, error) {
	return s.loaded, s.err
}

func (s *fakeSaver) List(context.Context) ([]storage.ProjectInfo, error) {
	return s.infos, s.err
}

type fakeImporter struct {
	files []string
	urls  []string
}

func (f *fakeImporter) ImportFile(path string, _ bool) (int, bool, error) {
	f.files = append(f.files, path)
	return 1, false, nil
}

func (f *fakeImporter) ImportURL(url string, _ bool) (int, bool, error) {
	f.urls = append(f.urls, url)
	return 1, false, nil
}

type fakeBackend struct {
	ensured [][]string
}

func (b *fakeBackend) Connect(string) {}

func (b *fakeBackend) Disconnect() {}

func (b *fakeBackend) EnsureDocuments(ids []string) {
	b.ensured = append(b.ensured, ids)
}

type testEnv struct {
	model   *Model
	stores  *stores.Stores
	bus     *recordingBus
	saver   *fakeSaver
	imports *fakeImporter
	backend *fakeBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	bus := &recordingBus{}
	st := stores.New(bus)
	env := &testEnv{
		stores:  st,
		bus:     bus,
		saver:   &fakeSaver{},
		imports: &fakeImporter{},
		backend: &fakeBackend{},
	}
	env.model = NewModel(bus, st, Deps{
		Importer: env.imports,
		Saver:    env.saver,
		Backend:  env.backend,
	})
	env.model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return env
}

// press feeds keys through the full Update path and returns the last cmd.
func (e *testEnv) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = e.model.Update(keyMsg(k))
	}
	return cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func slotWithQuery(text string) domain.Slot {
	q := domain.SearchQuery{Text: text, Type: domain.TypeCard}
	return domain.Slot{Front: &domain.ProjectMember{Query: &q}}
}

func seedResults(t *testing.T, st *stores.Stores, q domain.SearchQuery, ids ...string) {
	t.Helper()
	tok := st.Results.BeginFetch()
	require.True(t, st.Results.Apply(tok, map[domain.SearchQuery][]string{q: ids}))
}

func TestImportOverlayOpensAndCloses(t *testing.T) {
	e := newTestEnv(t)

	e.press("i")
	assert.Equal(t, stores.ModalImport, e.stores.Modal.Get().Kind)
	assert.Equal(t, types.ModeImport, e.model.handler.CurrentMode())

	e.press("esc")
	assert.Equal(t, stores.ModalNone, e.stores.Modal.Get().Kind)
	assert.Equal(t, types.ModeNormal, e.model.handler.CurrentMode())
}

func TestInlineImportGoesThroughBus(t *testing.T) {
	e := newTestEnv(t)

	e.press("i")
	for _, r := range "3 island" {
		e.press(string(r))
	}
	e.press("enter")

	var req *eventbus.ImportRequestedEvent
	for _, ev := range e.bus.events {
		if r, ok := ev.(eventbus.ImportRequestedEvent); ok {
			req = &r
			break
		}
	}
	require.NotNil(t, req, "inline text must become an import request")
	assert.Equal(t, "3 island", req.Text)
	assert.False(t, req.Replace)
}

func TestCtrlRFlipsImportToReplace(t *testing.T) {
	e := newTestEnv(t)

	e.press("i", "ctrl+r")
	assert.True(t, e.model.uiState.ImportReplace)

	for _, r := range "1 wastes" {
		e.press(string(r))
	}
	e.press("enter")

	var req *eventbus.ImportRequestedEvent
	for _, ev := range e.bus.events {
		if r, ok := ev.(eventbus.ImportRequestedEvent); ok {
			req = &r
		}
	}
	require.NotNil(t, req)
	assert.True(t, req.Replace)
}

func TestDispatchImportRoutesFilesAndURLs(t *testing.T) {
	e := newTestEnv(t)

	path := filepath.Join(t.TempDir(), "deck.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 island\n"), 0o644))

	cmd := e.model.dispatchImport(path, false)
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, importDoneMsg{err: nil}, msg)
	require.Len(t, e.imports.files, 1)
	assert.Equal(t, path, e.imports.files[0])

	cmd = e.model.dispatchImport("https://example.com/deck", true)
	require.NotNil(t, cmd)
	cmd()
	require.Len(t, e.imports.urls, 1)
	assert.Equal(t, "https://example.com/deck", e.imports.urls[0])
}

func TestSelectAndDeleteSlots(t *testing.T) {
	e := newTestEnv(t)
	e.stores.Project.AddMembers([]domain.Slot{
		slotWithQuery("island"), slotWithQuery("forest"), slotWithQuery("swamp"),
	})

	e.press(" ")
	assert.Equal(t, []int{0}, e.model.selectedSlots())

	e.press("d")
	assert.Equal(t, stores.ModalConfirmDelete, e.stores.Modal.Get().Kind)

	e.press("y")
	assert.Equal(t, 2, e.stores.Project.SlotCount())
	assert.Equal(t, stores.ModalNone, e.stores.Modal.Get().Kind)
	assert.Equal(t, types.ModeNormal, e.model.handler.CurrentMode())
}

func TestDeleteWithNothingSelectedDeclines(t *testing.T) {
	e := newTestEnv(t)
	e.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})

	e.press("d")
	assert.Equal(t, stores.ModalNone, e.stores.Modal.Get().Kind)
	assert.Equal(t, 1, e.stores.Project.SlotCount())
	assert.Contains(t, e.model.uiState.StatusMessage, "nothing selected")
}

func TestCycleImageWrapsAround(t *testing.T) {
	e := newTestEnv(t)
	q := domain.SearchQuery{Text: "island", Type: domain.TypeCard}
	e.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})
	seedResults(t, e.stores, q, "a", "b", "c")
	e.stores.Project.SetSelectedImage(0, domain.FaceFront, "a")

	e.press("]")
	assert.Equal(t, "b", e.stores.Project.Member(0, domain.FaceFront).SelectedImage)

	e.press("[", "[")
	assert.Equal(t, "c", e.stores.Project.Member(0, domain.FaceFront).SelectedImage,
		"stepping back past the first result wraps to the last")
}

func TestCycleImageWithoutResultsReportsStatus(t *testing.T) {
	e := newTestEnv(t)
	e.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})

	e.press("]")
	assert.Contains(t, e.model.uiState.StatusMessage, "no results")
}

func TestVersionPickerAppliesToSelectedTwins(t *testing.T) {
	e := newTestEnv(t)
	q := domain.SearchQuery{Text: "island", Type: domain.TypeCard}
	e.stores.Project.AddMembers([]domain.Slot{
		slotWithQuery("island"), slotWithQuery("island"), slotWithQuery("forest"),
	})
	seedResults(t, e.stores, q, "a", "b")
	e.stores.Project.SetSelected(1, domain.FaceFront, true)
	e.stores.Project.SetSelected(2, domain.FaceFront, true)

	e.press("v")
	require.Equal(t, stores.ModalChangeVersion, e.stores.Modal.Get().Kind)
	require.Len(t, e.model.uiState.Picker.Items, 2)

	e.press("j", "enter")
	assert.Equal(t, "b", e.stores.Project.Member(0, domain.FaceFront).SelectedImage)
	assert.Equal(t, "b", e.stores.Project.Member(1, domain.FaceFront).SelectedImage,
		"selected slot with the same query follows the pick")
	assert.Equal(t, "", e.stores.Project.Member(2, domain.FaceFront).SelectedImage,
		"different query must not follow")
}

func TestVersionPickerOnPlainBackOffersCardbacks(t *testing.T) {
	e := newTestEnv(t)
	e.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island"), slotWithQuery("forest")})
	tok := e.stores.Cardbacks.BeginFetch()
	require.True(t, e.stores.Cardbacks.Apply(tok, []string{"cb-1", "cb-2"}))
	e.stores.Project.SetCardback("cb-1")
	e.stores.Project.SetSelected(1, domain.FaceBack, true)

	e.press("f", "v")
	require.Equal(t, stores.ModalChangeVersion, e.stores.Modal.Get().Kind)
	require.Len(t, e.model.uiState.Picker.Items, 2)

	e.press("j", "enter")
	assert.Equal(t, "cb-2", e.stores.Project.Member(0, domain.FaceBack).SelectedImage)
	assert.Equal(t, "cb-2", e.stores.Project.Member(1, domain.FaceBack).SelectedImage,
		"selected plain back follows the pick")
}

func TestQueryEditRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	e.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})

	e.press("/")
	require.NotNil(t, e.model.handler.TextInput())
	assert.Equal(t, "island", e.model.handler.TextInput().Value())

	e.model.handler.TextInput().SetValue("t:goblin")
	e.press("enter")

	member := e.stores.Project.Member(0, domain.FaceFront)
	require.NotNil(t, member.Query)
	assert.Equal(t, domain.TypeToken, member.Query.Type)
	assert.Equal(t, "goblin", member.Query.Text)
}

func TestQueryEditEmptyClears(t *testing.T) {
	e := newTestEnv(t)
	e.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})

	e.press("/")
	e.model.handler.TextInput().SetValue("")
	e.press("enter")

	assert.Nil(t, e.stores.Project.Member(0, domain.FaceFront).Query)
}

func TestSaveRenamesAndPersists(t *testing.T) {
	e := newTestEnv(t)
	e.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})

	e.press("S")
	e.model.handler.TextInput().SetValue("gruul aggro")
	e.press("enter")

	require.Len(t, e.saver.saved, 1)
	assert.Equal(t, "gruul aggro", e.saver.saved[0].Name)
	assert.Equal(t, "gruul aggro", e.stores.Project.Name())
}

func TestLoadPickerReplacesProject(t *testing.T) {
	e := newTestEnv(t)
	key := uuid.New()
	e.saver.infos = []storage.ProjectInfo{
		{Key: key, Name: "alpha", Slots: 1, UpdatedAt: time.Now()},
	}
	e.saver.loaded = domain.Project{Key: key, Name: "alpha", Slots: []domain.Slot{slotWithQuery("island")}}

	e.press("O")
	require.Equal(t, stores.ModalLoadProject, e.stores.Modal.Get().Kind)
	require.Len(t, e.model.uiState.Picker.Items, 1)

	e.press("enter")
	assert.Equal(t, "alpha", e.stores.Project.Name())
	assert.Equal(t, 1, e.stores.Project.SlotCount())
	assert.Equal(t, stores.ModalNone, e.stores.Modal.Get().Kind)
}

func TestSettingsApplyOnEnterOnly(t *testing.T) {
	e := newTestEnv(t)
	sources := []domain.Source{{PK: 1, Name: "prime"}}
	e.stores.Sources.Set(sources)
	e.stores.Settings.Set(domain.DefaultSearchSettings(sources), false)

	e.press("s")
	require.Equal(t, stores.ModalSettings, e.stores.Modal.Get().Kind)

	e.press(" ") // toggle fuzzy search on the first row
	assert.False(t, e.stores.Settings.Get().SearchTypeSettings.FuzzySearch,
		"draft edits must not leak before confirm")

	e.press("enter")
	assert.True(t, e.stores.Settings.Get().SearchTypeSettings.FuzzySearch)
	assert.Equal(t, stores.ModalNone, e.stores.Modal.Get().Kind)
}

func TestSettingsEscDiscardsDraft(t *testing.T) {
	e := newTestEnv(t)
	sources := []domain.Source{{PK: 1, Name: "prime"}}
	e.stores.Sources.Set(sources)
	e.stores.Settings.Set(domain.DefaultSearchSettings(sources), false)

	e.press("s", " ", "esc")
	assert.False(t, e.stores.Settings.Get().SearchTypeSettings.FuzzySearch)
}

func TestInvalidReviewDismiss(t *testing.T) {
	e := newTestEnv(t)
	q := domain.SearchQuery{Text: "island", Type: domain.TypeCard}
	e.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})
	e.stores.Invalid.Record(
		stores.FaceRef{Slot: 0, Face: domain.FaceFront},
		domain.InvalidIdentifier{Query: &q, Identifier: "gone"},
	)

	e.press("w")
	require.Equal(t, stores.ModalInvalidReview, e.stores.Modal.Get().Kind)

	e.press("d")
	assert.Equal(t, 0, e.stores.Invalid.Count())
}

func TestReviewWithNothingInvalidDeclines(t *testing.T) {
	e := newTestEnv(t)
	e.press("w")
	assert.Equal(t, stores.ModalNone, e.stores.Modal.Get().Kind)
}

func TestQuitAutosaves(t *testing.T) {
	bus := &recordingBus{}
	st := stores.New(bus)
	saver := &fakeSaver{}
	m := NewModel(bus, st, Deps{Saver: saver, Autosave: true})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	st.Project.AddMembers([]domain.Slot{slotWithQuery("island")})

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Len(t, saver.saved, 1)
}

func TestForceQuitSkipsAutosave(t *testing.T) {
	bus := &recordingBus{}
	st := stores.New(bus)
	saver := &fakeSaver{}
	m := NewModel(bus, st, Deps{Saver: saver, Autosave: true})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	st.Project.AddMembers([]domain.Slot{slotWithQuery("island")})

	_, cmd := m.Update(keyMsg("ctrl+c"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, saver.saved)
}

func TestImportCompletedEventShowsStatus(t *testing.T) {
	e := newTestEnv(t)
	e.model.Update(EventMsg{Event: eventbus.ImportCompletedEvent{SlotsAdded: 4}})
	assert.Contains(t, e.model.uiState.StatusMessage, "imported 4")

	e.model.Update(EventMsg{Event: eventbus.ImportCompletedEvent{SlotsAdded: 1, Truncated: true}})
	assert.Contains(t, e.model.uiState.StatusMessage, "full")
}

func TestStaleStatusClearIsIgnored(t *testing.T) {
	e := newTestEnv(t)

	e.model.setStatus("first", false)
	e.model.setStatus("second", false)
	e.model.Update(clearStatusMsg{seq: 1})
	assert.Equal(t, "second", e.model.uiState.StatusMessage)

	e.model.Update(clearStatusMsg{seq: 2})
	assert.Equal(t, "", e.model.uiState.StatusMessage)
}

func TestSlotDeletionClampsFocus(t *testing.T) {
	e := newTestEnv(t)
	e.stores.Project.AddMembers([]domain.Slot{
		slotWithQuery("island"), slotWithQuery("forest"), slotWithQuery("swamp"),
	})
	e.press("G")
	assert.Equal(t, 2, e.model.uiState.FocusedSlot)

	e.stores.Project.DeleteSlots([]int{1, 2})
	e.model.Update(EventMsg{Event: eventbus.SlotsDeletedEvent{Indices: []int{1, 2}}})
	assert.Equal(t, 0, e.model.uiState.FocusedSlot)
}

func TestViewRendersWithoutModal(t *testing.T) {
	e := newTestEnv(t)
	e.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})

	out := e.model.View()
	assert.Contains(t, out, "deckforge")
	assert.Contains(t, out, "island")
	assert.Contains(t, out, "offline")
}

func TestFlipFaceChangesGridHeader(t *testing.T) {
	e := newTestEnv(t)
	e.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})

	assert.Contains(t, e.model.View(), "showing fronts")
	e.press("f")
	assert.Contains(t, e.model.View(), "showing backs")
}
