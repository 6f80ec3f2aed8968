package coordinator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"deckforge/internal/config"
	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
	"deckforge/internal/stores"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeBackend serves the routes the coordinator exercises, with mutable
// canned data so tests can change what the backend knows between
// reactions.
type fakeBackend struct {
	mu          sync.Mutex
	online      bool
	sources     []domain.Source
	results     map[string][]string // query text → identifiers
	cardbacks   []string
	failSearch  bool
	searchCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		online: true,
		sources: []domain.Source{
			{PK: 1, Key: "alpha", Name: "Alpha Drive"},
			{PK: 2, Key: "beta", Name: "Beta Drive"},
		},
		results:   map[string][]string{},
		cardbacks: []string{"back-a", "back-b"},
	}
}

func (f *fakeBackend) setResults(text string, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[text] = ids
}

func (f *fakeBackend) setCardbacks(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cardbacks = ids
}

func (f *fakeBackend) setFailSearch(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSearch = fail
}

func (f *fakeBackend) setOnline(online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = online
}

func (f *fakeBackend) searchCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/2/searchEngineHealth/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		online := f.online
		f.mu.Unlock()
		writeJSON(w, map[string]any{"online": online})
	})

	mux.HandleFunc("/2/info/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"info": map[string]any{"name": "Fake Card Server"}})
	})

	mux.HandleFunc("/2/sources/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		results := make(map[string]domain.Source, len(f.sources))
		for _, src := range f.sources {
			results[src.Key] = src
		}
		writeJSON(w, map[string]any{"results": results})
	})

	mux.HandleFunc("/2/searchResults/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Queries []struct {
				Query    string          `json:"query"`
				CardType domain.CardType `json:"card_type"`
			} `json:"queries"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.searchCalls++
		fail := f.failSearch
		results := make(map[string]map[domain.CardType][]string, len(req.Queries))
		for _, q := range req.Queries {
			ids := append([]string(nil), f.results[q.Query]...)
			if results[q.Query] == nil {
				results[q.Query] = map[domain.CardType][]string{}
			}
			results[q.Query][q.CardType] = ids
		}
		f.mu.Unlock()

		if fail {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"name":    "Search broke",
				"message": "the search engine is unavailable",
			})
			return
		}
		writeJSON(w, map[string]any{"results": results})
	})

	mux.HandleFunc("/2/cards/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CardIdentifiers []string `json:"card_identifiers"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		docs := make(map[string]domain.CardDocument, len(req.CardIdentifiers))
		for _, id := range req.CardIdentifiers {
			docs[id] = domain.CardDocument{Identifier: id, Name: "Card " + id, CardType: domain.TypeCard}
		}
		writeJSON(w, map[string]any{"results": docs})
	})

	mux.HandleFunc("/2/cardbacks/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		backs := append([]string(nil), f.cardbacks...)
		f.mu.Unlock()
		writeJSON(w, map[string]any{"cardbacks": backs})
	})

	return mux
}

type fixture struct {
	t       *testing.T
	backend *fakeBackend
	srv     *httptest.Server
	bus     eventbus.EventBus
	stores  *stores.Stores
	coord   *Coordinator
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithState(t, filepath.Join(t.TempDir(), "settings.toml"))
}

func newFixtureWithState(t *testing.T, statePath string) *fixture {
	t.Helper()
	fb := newFakeBackend()
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)

	bus := eventbus.New(zap.NewNop())
	t.Cleanup(bus.Close)

	st := stores.New(bus)
	coord := New(bus, st, config.NewSettingsState(statePath, nil), zap.NewNop())
	coord.awaitTimeout = 2 * time.Second
	coord.Run()
	t.Cleanup(coord.Stop)

	return &fixture{t: t, backend: fb, srv: srv, bus: bus, stores: st, coord: coord}
}

func (f *fixture) eventually(cond func() bool, msg string) {
	f.t.Helper()
	require.Eventually(f.t, cond, 5*time.Second, 10*time.Millisecond, msg)
}

// connect adopts the fake backend and waits for the reaction cascade,
// ending with the auto-selected cardback, to settle. Every fake backend
// in these tests has at least one cardback.
func (f *fixture) connect() {
	f.t.Helper()
	f.coord.Connect(f.srv.URL)
	f.eventually(func() bool {
		return f.stores.Connection.Connected() &&
			f.stores.Settings.Ready() &&
			f.stores.Cardbacks.Loaded() &&
			f.stores.Project.Cardback() != ""
	}, "connect cascade never settled")
}

func cardQuery(text string) domain.SearchQuery {
	return domain.SearchQuery{Text: text, Type: domain.TypeCard}
}

func slotWithQuery(text string) domain.Slot {
	q := cardQuery(text)
	return domain.Slot{Front: &domain.ProjectMember{Query: &q}}
}

func TestConnectCascade(t *testing.T) {
	f := newFixture(t)
	f.connect()

	assert.Equal(t, f.srv.URL, f.stores.Connection.URL())
	assert.Equal(t, "Fake Card Server", f.stores.Connection.Info().Name)

	sources := f.stores.Sources.All()
	require.Len(t, sources, 2)
	assert.Equal(t, "alpha", sources[0].Key)

	// Nothing persisted, so the defaults apply: all sources enabled.
	settings := f.stores.Settings.Get()
	assert.Equal(t, []domain.SourceEnabled{{PK: 1, Enabled: true}, {PK: 2, Enabled: true}},
		settings.SourceSettings.Sources)

	// The backend's first cardback was adopted.
	f.eventually(func() bool { return f.stores.Project.Cardback() == "back-a" },
		"project cardback not adopted")
}

func TestConnectFailureReported(t *testing.T) {
	f := newFixture(t)
	f.backend.setOnline(false)

	f.coord.Connect(f.srv.URL)
	f.eventually(func() bool {
		_, ok := f.stores.Errors.Get(stores.ErrKeyConnect)
		return ok
	}, "offline backend not reported")
	assert.False(t, f.stores.Connection.Connected())

	// A later successful probe clears the stale failure record.
	f.backend.setOnline(true)
	f.connect()
	_, ok := f.stores.Errors.Get(stores.ErrKeyConnect)
	assert.False(t, ok)
}

func TestQueryEditSelectsFirstResult(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("island", "island-1", "island-2", "island-3")
	f.connect()

	f.stores.Project.AddMembers([]domain.Slot{{}})
	q := cardQuery("island")
	f.stores.Project.SetQuery([]int{0}, domain.FaceFront, &q, true)

	f.eventually(func() bool {
		m := f.stores.Project.Member(0, domain.FaceFront)
		return m != nil && m.SelectedImage == "island-1"
	}, "first result was not selected")

	// Metadata for the selection is fetched along the way.
	f.eventually(func() bool {
		_, ok := f.stores.Documents.Get("island-1")
		return ok
	}, "selected image metadata not cached")
}

func TestQueryEditWithNoHitsClearsSelection(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("island", "island-1")
	f.connect()

	f.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})
	f.eventually(func() bool {
		m := f.stores.Project.Member(0, domain.FaceFront)
		return m != nil && m.SelectedImage == "island-1"
	}, "initial selection missing")

	// "unobtainium" matches nothing. The edit itself drops the pick; the
	// interesting part is that the arriving empty results select nothing.
	q := cardQuery("unobtainium")
	f.stores.Project.SetQuery([]int{0}, domain.FaceFront, &q, true)
	f.eventually(func() bool {
		_, ok := f.stores.Results.Get(q)
		return ok
	}, "no-hit query never fetched")
	time.Sleep(50 * time.Millisecond)

	m := f.stores.Project.Member(0, domain.FaceFront)
	require.NotNil(t, m)
	assert.Equal(t, "", m.SelectedImage)
	assert.Zero(t, f.stores.Invalid.Count())
}

func TestImportTwoCopiesSharingQuery(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("my search query", "r1", "r2", "r3")
	f.connect()

	added, truncated := f.stores.Project.AddMembers([]domain.Slot{
		slotWithQuery("my search query"),
		slotWithQuery("my search query"),
	})
	require.Equal(t, 2, added)
	require.False(t, truncated)

	for slot := 0; slot < 2; slot++ {
		f.eventually(func() bool {
			m := f.stores.Project.Member(slot, domain.FaceFront)
			return m != nil && m.SelectedImage == "r1"
		}, "front did not pick the first of three results")
	}

	// Queryless backs track the project cardback.
	for slot := 0; slot < 2; slot++ {
		m := f.stores.Project.Member(slot, domain.FaceBack)
		require.NotNil(t, m)
		assert.Nil(t, m.Query)
		assert.Equal(t, "back-a", m.SelectedImage)
	}
}

func TestBulkChangeVersionFetchesMetadata(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("island", "island-1", "island-2")
	f.connect()

	f.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island"), slotWithQuery("island")})
	f.eventually(func() bool {
		a := f.stores.Project.Member(0, domain.FaceFront)
		b := f.stores.Project.Member(1, domain.FaceFront)
		return a != nil && b != nil && a.SelectedImage == "island-1" && b.SelectedImage == "island-1"
	}, "initial selections missing")

	// Change both copies to the second printing in one transaction.
	f.stores.Project.SetSelectedImages(domain.FaceFront, []int{0, 1}, "island-2")

	assert.Equal(t, "island-2", f.stores.Project.Member(0, domain.FaceFront).SelectedImage)
	assert.Equal(t, "island-2", f.stores.Project.Member(1, domain.FaceFront).SelectedImage)

	// The selection change pulls the new image's metadata into the cache.
	f.eventually(func() bool {
		_, ok := f.stores.Documents.Get("island-2")
		return ok
	}, "new selection's metadata not fetched")
}

func TestSettingsChangeRefetchesProjectQueries(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("island", "island-1")
	f.connect()

	f.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})
	f.eventually(func() bool {
		ids, ok := f.stores.Results.Get(cardQuery("island"))
		return ok && len(ids) == 1
	}, "initial results missing")

	// The backend's answer changes; only a refetch can observe that.
	f.backend.setResults("island", "island-9", "island-1")

	settings := f.stores.Settings.Get()
	settings.SearchTypeSettings.FuzzySearch = true
	require.True(t, f.stores.Settings.Set(settings, true))

	f.eventually(func() bool {
		ids, ok := f.stores.Results.Get(cardQuery("island"))
		return ok && len(ids) == 2 && ids[0] == "island-9"
	}, "results were not refetched under the new settings")
}

func TestNoOpSettingsWriteDoesNotRefetch(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("island", "island-1")
	f.connect()

	f.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})
	f.eventually(func() bool { return f.stores.Results.Len() == 1 }, "results missing")

	before := f.backend.searchCallCount()
	require.False(t, f.stores.Settings.Set(f.stores.Settings.Get(), true),
		"writing the current settings back must be a no-op")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, f.backend.searchCallCount(), "no-op write must not refetch")
}

func TestUserEditedSettingsPersistAcrossSessions(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "settings.toml")

	f := newFixtureWithState(t, statePath)
	f.connect()

	settings := f.stores.Settings.Get()
	settings.SourceSettings.Sources[1].Enabled = false
	settings.FilterSettings.MinDPI = 600
	require.True(t, f.stores.Settings.Set(settings, true))

	f.eventually(func() bool {
		loaded, found := config.NewSettingsState(statePath, nil).Load(f.backend.sources)
		return found && loaded.FilterSettings.MinDPI == 600
	}, "user edit was not persisted")

	// A fresh session against the same backend starts from the saved
	// settings, not the defaults.
	g := newFixtureWithState(t, statePath)
	g.connect()
	got := g.stores.Settings.Get()
	assert.Equal(t, 600, got.FilterSettings.MinDPI)
	assert.Equal(t, []domain.SourceEnabled{{PK: 1, Enabled: true}, {PK: 2, Enabled: false}},
		got.SourceSettings.Sources)
}

func TestCoordinatorNeverPersistsItsOwnWrites(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "settings.toml")
	f := newFixtureWithState(t, statePath)
	f.connect()

	// The connect cascade wrote defaults into the settings store, but
	// that was not a user edit; nothing may land on disk.
	time.Sleep(100 * time.Millisecond)
	_, found := config.NewSettingsState(statePath, nil).Load(f.backend.sources)
	assert.False(t, found, "loaded settings must not be written back")
}

func TestCardbackMigration(t *testing.T) {
	f := newFixture(t)
	f.backend.setCardbacks("A", "B")
	f.connect()

	f.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})
	f.eventually(func() bool { return f.stores.Project.Cardback() == "A" }, "initial cardback not adopted")

	// The cardback list changes from [A, B] to [B, C] while A is
	// selected: the pick migrates to B, the first remaining entry.
	f.backend.setCardbacks("B", "C")
	settings := f.stores.Settings.Get()
	settings.SearchTypeSettings.FilterCardbacks = true
	require.True(t, f.stores.Settings.Set(settings, true))

	f.eventually(func() bool { return f.stores.Project.Cardback() == "B" },
		"cardback did not migrate to the first remaining entry")

	// Queryless backs followed in the same transaction.
	m := f.stores.Project.Member(0, domain.FaceBack)
	require.NotNil(t, m)
	assert.Equal(t, "B", m.SelectedImage)
}

func TestVanishedSelectionRecordedInvalid(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("island", "island-1", "island-2")
	f.connect()

	f.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})
	f.eventually(func() bool {
		m := f.stores.Project.Member(0, domain.FaceFront)
		return m != nil && m.SelectedImage == "island-1"
	}, "initial selection missing")

	// island-1 vanishes from a still non-empty result list.
	f.backend.setResults("island", "island-2")
	settings := f.stores.Settings.Get()
	settings.SearchTypeSettings.FuzzySearch = true
	require.True(t, f.stores.Settings.Set(settings, true))

	// The selection is cleared, not silently swapped, and the dropped
	// identifier is remembered for review.
	f.eventually(func() bool {
		m := f.stores.Project.Member(0, domain.FaceFront)
		return f.stores.Invalid.Count() == 1 && m != nil && m.SelectedImage == ""
	}, "vanished selection not recorded and cleared")
	rec, ok := f.stores.Invalid.Get(stores.FaceRef{Slot: 0, Face: domain.FaceFront})
	require.True(t, ok)
	assert.Equal(t, "island-1", rec.Identifier)
	require.NotNil(t, rec.Query)
	assert.Equal(t, "island", rec.Query.Text)

	// A deliberate query edit supersedes the warning.
	q := cardQuery("swamp")
	f.stores.Project.SetQuery([]int{0}, domain.FaceFront, &q, true)
	f.eventually(func() bool { return f.stores.Invalid.Count() == 0 }, "record not cleared by user edit")
}

func TestEmptyRefetchClearsWithoutInvalidRecord(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("island", "island-1")
	f.connect()

	f.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})
	f.eventually(func() bool {
		m := f.stores.Project.Member(0, domain.FaceFront)
		return m != nil && m.SelectedImage == "island-1"
	}, "initial selection missing")

	// The query stops matching anything at all.
	f.backend.setResults("island")
	settings := f.stores.Settings.Get()
	settings.SearchTypeSettings.FuzzySearch = true
	require.True(t, f.stores.Settings.Set(settings, true))

	f.eventually(func() bool {
		m := f.stores.Project.Member(0, domain.FaceFront)
		return m != nil && m.SelectedImage == ""
	}, "selection not cleared")
	assert.Zero(t, f.stores.Invalid.Count(), "empty results must not create records")
}

func TestDeleteSlotsRenumbersInvalidRecords(t *testing.T) {
	f := newFixture(t)
	// No backend needed: this rule only bridges two stores.
	f.stores.Project.AddMembers([]domain.Slot{slotWithQuery("a"), slotWithQuery("b"), slotWithQuery("c")})
	q := cardQuery("b")
	f.stores.Invalid.Record(stores.FaceRef{Slot: 1, Face: domain.FaceFront},
		domain.InvalidIdentifier{Query: &q, Identifier: "gone-1"})

	f.stores.Project.DeleteSlots([]int{0})

	f.eventually(func() bool {
		_, ok := f.stores.Invalid.Get(stores.FaceRef{Slot: 0, Face: domain.FaceFront})
		return ok && f.stores.Invalid.Count() == 1
	}, "record did not follow the renumbered slot")
	assert.Equal(t, 2, f.stores.Project.SlotCount())
}

func TestSearchFailureReportsAndKeepsSelections(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("island", "island-1")
	f.connect()

	f.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})
	f.eventually(func() bool {
		m := f.stores.Project.Member(0, domain.FaceFront)
		return m != nil && m.SelectedImage == "island-1"
	}, "initial selection missing")

	f.backend.setFailSearch(true)
	settings := f.stores.Settings.Get()
	settings.SearchTypeSettings.FuzzySearch = true
	require.True(t, f.stores.Settings.Set(settings, true))

	f.eventually(func() bool {
		rec, ok := f.stores.Errors.Get(stores.ErrKeySearchResults)
		return ok && rec.Name == "Search broke"
	}, "failure not reported under its key")

	// The dependent reaction never fired: the selection is untouched.
	m := f.stores.Project.Member(0, domain.FaceFront)
	assert.Equal(t, "island-1", m.SelectedImage)
	assert.Zero(t, f.stores.Invalid.Count())
}

func TestDisconnectInvalidatesBackendCaches(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("island", "island-1")
	f.connect()
	f.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})

	// Wait for the whole add cascade, metadata fetch included, so no
	// straggling write can land after the disconnect wipes the caches.
	f.eventually(func() bool {
		if f.stores.Results.Len() != 1 {
			return false
		}
		_, ok := f.stores.Documents.Get("island-1")
		return ok
	}, "add cascade never settled")
	time.Sleep(50 * time.Millisecond)

	f.coord.Disconnect()

	f.eventually(func() bool {
		return !f.stores.Connection.Connected() &&
			f.stores.Results.Len() == 0 &&
			!f.stores.Cardbacks.Loaded() &&
			!f.stores.Sources.Loaded() &&
			f.stores.Documents.Len() == 0
	}, "caches survived the disconnect")

	// The project itself is local state and survives.
	assert.Equal(t, 1, f.stores.Project.SlotCount())
}

func TestReconnectRefetchesDespiteUnchangedSettings(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("island", "island-1")
	f.connect()
	f.stores.Project.AddMembers([]domain.Slot{slotWithQuery("island")})
	f.eventually(func() bool { return f.stores.Results.Len() == 1 }, "results missing")

	f.coord.Disconnect()
	f.eventually(func() bool { return f.stores.Results.Len() == 0 }, "caches not dropped")

	// Reconnecting to the same backend loads identical settings, which
	// publishes no settings change; the caches must still repopulate.
	f.connect()
	f.eventually(func() bool {
		ids, ok := f.stores.Results.Get(cardQuery("island"))
		return ok && len(ids) == 1 && f.stores.Cardbacks.Loaded()
	}, "reconnect did not repopulate the caches")
}

func TestProjectResetFetchesEverything(t *testing.T) {
	f := newFixture(t)
	f.backend.setResults("island", "island-1")
	f.connect()

	q := cardQuery("island")
	f.stores.Project.Replace(domain.Project{
		Name:  "loaded",
		Slots: []domain.Slot{{Front: &domain.ProjectMember{Query: &q, SelectedImage: "island-1"}}},
	})

	f.eventually(func() bool {
		ids, ok := f.stores.Results.Get(q)
		if !ok || len(ids) != 1 {
			return false
		}
		_, ok = f.stores.Documents.Get("island-1")
		return ok
	}, "replaced project's queries and metadata not fetched")

	// The loaded project had no cardback; the backend's first applies.
	f.eventually(func() bool { return f.stores.Project.Cardback() == "back-a" },
		"cardback not repaired after replace")
}
