// Package coordinator keeps the stores consistent with each other. Stores
// guard their own state; every invariant that spans stores lives here, as
// a table of independent reactions. Each reaction is triggered by one bus
// event, may fetch from the backend or wait for a condition over a store,
// and re-reads current state after every wait before issuing compensating
// writes.
package coordinator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"deckforge/internal/backend"
	"deckforge/internal/config"
	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
	"deckforge/internal/stores"
)

// DefaultAwaitTimeout bounds how long a reaction waits for results to
// land before giving up and leaving selections untouched.
const DefaultAwaitTimeout = 30 * time.Second

// connectTimeout bounds the health probe of a candidate backend.
const connectTimeout = 10 * time.Second

// Coordinator subscribes to store events and restores cross-store
// invariants with compensating writes.
type Coordinator struct {
	bus    eventbus.EventBus
	stores *stores.Stores
	state  *config.SettingsState
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	awaitTimeout time.Duration

	mu     sync.RWMutex
	client *backend.Client

	unsubscribe []func()
}

// New creates a coordinator. Call Run to register its reactions.
func New(bus eventbus.EventBus, st *stores.Stores, state *config.SettingsState, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		bus:          bus,
		stores:       st,
		state:        state,
		logger:       logger.Named("coordinator"),
		ctx:          ctx,
		cancel:       cancel,
		awaitTimeout: DefaultAwaitTimeout,
	}
}

// Run registers one subscription per reaction rule.
func (c *Coordinator) Run() {
	sub := func(t eventbus.EventType, h eventbus.EventHandler) {
		c.unsubscribe = append(c.unsubscribe, c.bus.Subscribe(t, h))
	}

	sub(domain.EventConnectRequested, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.ConnectRequestedEvent); ok {
			c.onConnectRequested(ev)
		}
	})
	sub(domain.EventBackendConnected, func(e eventbus.DomainEvent) {
		if _, ok := e.(eventbus.BackendConnectedEvent); ok {
			c.onBackendConnected()
		}
	})
	sub(domain.EventBackendCleared, func(e eventbus.DomainEvent) {
		if _, ok := e.(eventbus.BackendClearedEvent); ok {
			c.onBackendCleared()
		}
	})
	sub(domain.EventSourcesFetched, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.SourcesFetchedEvent); ok {
			c.onSourcesFetched(ev)
		}
	})
	sub(domain.EventSettingsChanged, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.SettingsChangedEvent); ok {
			c.onSettingsChanged(ev)
		}
	})
	sub(domain.EventMembersAdded, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.MembersAddedEvent); ok {
			c.onMembersAdded(ev)
		}
	})
	sub(domain.EventSlotsDeleted, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.SlotsDeletedEvent); ok {
			c.stores.Invalid.RemoveSlots(ev.Indices)
		}
	})
	sub(domain.EventQueryChanged, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.QueryChangedEvent); ok {
			c.onQueryChanged(ev)
		}
	})
	sub(domain.EventResultsUpdated, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.ResultsUpdatedEvent); ok {
			c.onResultsUpdated(ev)
		}
	})
	sub(domain.EventCardbacksFetched, func(e eventbus.DomainEvent) {
		if _, ok := e.(eventbus.CardbacksFetchedEvent); ok {
			c.onCardbacksFetched()
		}
	})
	sub(domain.EventCardbackChanged, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.CardbackChangedEvent); ok {
			c.onCardbackChanged(ev)
		}
	})
	sub(domain.EventImagesSelected, func(e eventbus.DomainEvent) {
		if _, ok := e.(eventbus.ImagesSelectedEvent); ok {
			c.ensureProjectDocuments()
		}
	})
	sub(domain.EventProjectReset, func(e eventbus.DomainEvent) {
		if _, ok := e.(eventbus.ProjectResetEvent); ok {
			c.onProjectReset()
		}
	})
}

// Stop unregisters the reactions and cancels in-flight fetches and waits.
func (c *Coordinator) Stop() {
	for _, unsub := range c.unsubscribe {
		unsub()
	}
	c.unsubscribe = nil
	c.cancel()
	c.wg.Wait()
}

// Connect asks for a backend to be probed and adopted. Asynchronous; the
// outcome lands in the connection store or the errors store.
func (c *Coordinator) Connect(url string) {
	c.bus.Publish(domain.ConnectRequestedEvent{URL: url})
}

// Disconnect drops the active backend.
func (c *Coordinator) Disconnect() {
	c.stores.Connection.Clear()
}

// EnsureDocuments fetches metadata for any of the given identifiers not
// yet cached. Asynchronous; safe to call from the UI loop.
func (c *Coordinator) EnsureDocuments(identifiers []string) {
	ids := append([]string(nil), identifiers...)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.fetchDocuments(ids)
	}()
}

func (c *Coordinator) setClient(client *backend.Client) {
	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
}

func (c *Coordinator) backendClient() *backend.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// ready reports whether fetch reactions may run: a backend is active and
// settings have been loaded for it.
func (c *Coordinator) ready() bool {
	return c.stores.Connection.Connected() && c.stores.Settings.Ready()
}

// onConnectRequested probes the candidate backend and adopts it when the
// search engine answers. Failures land in the errors store; the previous
// backend, if any, stays active.
func (c *Coordinator) onConnectRequested(ev eventbus.ConnectRequestedEvent) {
	client := backend.New(ev.URL, c.logger)

	ctx, cancel := context.WithTimeout(c.ctx, connectTimeout)
	defer cancel()

	online, err := client.Health(ctx)
	if err != nil {
		name, msg := backend.Describe(err)
		c.stores.Errors.Report(stores.ErrKeyConnect, name, msg)
		c.logger.Warn("backend probe failed", zap.String("url", ev.URL), zap.Error(err))
		return
	}
	if !online {
		c.stores.Errors.Report(stores.ErrKeyConnect, "Backend offline",
			"The server answered but its search engine is not available.")
		return
	}
	info, err := client.Info(ctx)
	if err != nil {
		name, msg := backend.Describe(err)
		c.stores.Errors.Report(stores.ErrKeyConnect, name, msg)
		return
	}

	c.setClient(client)
	c.stores.Errors.Dismiss(stores.ErrKeyConnect)
	c.stores.Connection.Establish(client.BaseURL(), info)
}

// onBackendConnected invalidates caches from any previous backend and
// fetches the new backend's source list.
func (c *Coordinator) onBackendConnected() {
	c.stores.Results.Clear()
	c.stores.Cardbacks.Clear()
	c.stores.Documents.Clear()

	client := c.backendClient()
	if client == nil {
		return
	}
	srcs, err := client.Sources(c.ctx)
	if err != nil {
		name, msg := backend.Describe(err)
		c.stores.Errors.Report(stores.ErrKeySources, name, msg)
		c.logger.Warn("source list fetch failed", zap.Error(err))
		return
	}
	c.stores.Sources.Set(srcs)
}

func (c *Coordinator) onBackendCleared() {
	c.setClient(nil)
	c.stores.Sources.Clear()
	c.stores.Results.Clear()
	c.stores.Cardbacks.Clear()
	c.stores.Documents.Clear()
}

// onSourcesFetched loads the persisted settings scoped to the now-known
// sources, falling back to defaults when nothing usable was saved. When
// the loaded settings equal the previous ones no settings event fires, so
// the refetch pass is triggered here instead; the caches were cleared on
// connect either way.
func (c *Coordinator) onSourcesFetched(ev eventbus.SourcesFetchedEvent) {
	settings, found := c.state.Load(ev.Sources)
	if !found {
		settings = domain.DefaultSearchSettings(ev.Sources)
	}
	if !c.stores.Settings.Set(settings, false) {
		c.refetchAll()
	}
}

// onSettingsChanged persists explicit user edits and refetches everything
// the settings influence.
func (c *Coordinator) onSettingsChanged(ev eventbus.SettingsChangedEvent) {
	if ev.UserEdited && c.stores.Sources.Loaded() {
		if err := c.state.Save(c.stores.Sources.All(), ev.Settings); err != nil {
			c.stores.Errors.Report(stores.ErrKeyPersist, "Settings not saved", err.Error())
			c.logger.Warn("settings state save failed", zap.Error(err))
		}
	}
	c.refetchAll()
}

// refetchAll clears the result caches and refetches every distinct project
// query plus the cardback list, under the current settings. It runs only
// when a backend is active and the configured sources are a subset of the
// known ones; a half-applied settings value referencing foreign sources
// must not reach the backend.
func (c *Coordinator) refetchAll() {
	if !c.ready() {
		return
	}
	settings := c.stores.Settings.Get()
	known := make(map[int]struct{})
	for _, src := range c.stores.Sources.All() {
		known[src.PK] = struct{}{}
	}
	for _, src := range settings.SourceSettings.Sources {
		if _, ok := known[src.PK]; !ok {
			c.logger.Warn("settings reference unknown source, skipping refetch", zap.Int("pk", src.PK))
			return
		}
	}

	c.stores.Results.Clear()
	c.stores.Cardbacks.Clear()
	c.fetchResults(c.stores.Project.AllQueries())
	c.fetchCardbacks()
}

// onMembersAdded fetches results for queries the append introduced and
// metadata for any identifiers the new slots reference.
func (c *Coordinator) onMembersAdded(ev eventbus.MembersAddedEvent) {
	if !c.ready() {
		return
	}
	c.fetchResults(c.stores.Results.Missing(ev.NewQueries))
	c.ensureProjectDocuments()
}

// onQueryChanged clears superseded invalid records, makes sure results for
// the new query are loaded, and picks each affected face's default image.
func (c *Coordinator) onQueryChanged(ev eventbus.QueryChangedEvent) {
	if ev.Deliberate {
		refs := make([]stores.FaceRef, len(ev.Slots))
		for i, slot := range ev.Slots {
			refs[i] = stores.FaceRef{Slot: slot, Face: ev.Face}
		}
		c.stores.Invalid.ClearFaces(refs)
	}
	if ev.Query == nil {
		// Cleared queries already fell back to the cardback or nothing
		// inside the project store's transaction.
		return
	}
	if !c.ready() {
		return
	}
	q := *ev.Query

	if missing := c.stores.Results.Missing([]domain.SearchQuery{q}); len(missing) > 0 {
		if !c.fetchResults(missing) {
			return
		}
	}
	// A concurrent fetch may still be carrying the results; wait for them.
	err := stores.Await(c.ctx, c.stores.Results, c.awaitTimeout, func() bool {
		return c.stores.Results.Has(q)
	})
	if err != nil {
		c.logger.Warn("gave up waiting for results",
			zap.String("query", q.Text), zap.Error(err))
		return
	}

	// Read-after-wait: the results and the slots' queries both may have
	// moved while we were suspended.
	ids, ok := c.stores.Results.Get(q)
	if !ok {
		return
	}
	first := ""
	if len(ids) > 0 {
		first = ids[0]
	}
	var affected []int
	for _, slot := range ev.Slots {
		m := c.stores.Project.Member(slot, ev.Face)
		if m == nil || m.Query == nil || *m.Query != q {
			continue
		}
		affected = append(affected, slot)
	}
	c.stores.Project.SetSelectedImages(ev.Face, affected, first)
}

// onResultsUpdated reconciles every slot face whose query's results just
// changed. A picked image that vanished from non-empty results is recorded
// as invalid and the pick cleared; a face with no pick gets the first of
// non-empty results. One pass applies one branch per face, so a pick that
// just got invalidated stays cleared for the user to notice.
func (c *Coordinator) onResultsUpdated(ev eventbus.ResultsUpdatedEvent) {
	updated := make(map[domain.SearchQuery]struct{}, len(ev.Queries))
	for _, q := range ev.Queries {
		updated[q] = struct{}{}
	}

	project := c.stores.Project.Snapshot()
	// face → new identifier → slots, so each group is one transaction.
	retarget := make(map[domain.Face]map[string][]int)

	for i, slot := range project.Slots {
		for _, face := range domain.Faces {
			m := slot.Member(face)
			if m == nil || m.Query == nil {
				continue
			}
			q := *m.Query
			if _, hit := updated[q]; !hit {
				continue
			}
			ids, ok := c.stores.Results.Get(q)
			if !ok {
				continue // cleared while this reaction was pending
			}

			next := m.SelectedImage
			switch {
			case next != "" && !containsString(ids, next):
				if len(ids) > 0 {
					c.stores.Invalid.Record(
						stores.FaceRef{Slot: i, Face: face},
						domain.InvalidIdentifier{Query: m.Query, Identifier: next},
					)
				}
				next = ""
			case next == "" && len(ids) > 0:
				next = ids[0]
			}
			if next != m.SelectedImage {
				byImage, ok := retarget[face]
				if !ok {
					byImage = make(map[string][]int)
					retarget[face] = byImage
				}
				byImage[next] = append(byImage[next], i)
			}
		}
	}

	for face, byImage := range retarget {
		for id, slots := range byImage {
			c.stores.Project.SetSelectedImages(face, slots, id)
		}
	}
}

// onCardbacksFetched repairs the project cardback against the new list:
// a vanished pick is dropped, and an empty pick adopts the backend's
// first cardback. The project store ignores same-value writes, so this
// dispatches only on actual change.
func (c *Coordinator) onCardbacksFetched() {
	list := c.stores.Cardbacks.All()
	current := c.stores.Project.Cardback()

	next := current
	if next != "" && !containsString(list, next) {
		next = ""
	}
	if next == "" && len(list) > 0 {
		next = list[0]
	}
	if next != current {
		c.stores.Project.SetCardback(next)
	}
}

// onCardbackChanged makes sure the new cardback's metadata is cached.
// Back faces tracking the old cardback were retargeted inside the project
// store's transaction.
func (c *Coordinator) onCardbackChanged(ev eventbus.CardbackChangedEvent) {
	if ev.Identifier != "" {
		c.fetchDocuments([]string{ev.Identifier})
	}
}

// onProjectReset treats the replaced project like a fresh import: stale
// invalid records are dropped, missing results and metadata are fetched,
// and the cardback is repaired against the current list.
func (c *Coordinator) onProjectReset() {
	c.stores.Invalid.Reset()
	if !c.ready() {
		return
	}
	c.fetchResults(c.stores.Results.Missing(c.stores.Project.AllQueries()))
	c.ensureProjectDocuments()
	if c.stores.Cardbacks.Loaded() {
		c.onCardbacksFetched()
	}
}

// fetchResults fetches and stores results for the given queries under the
// current settings. It reports success; failures land in the errors store
// and leave the cache untouched.
func (c *Coordinator) fetchResults(queries []domain.SearchQuery) bool {
	if len(queries) == 0 {
		return true
	}
	client := c.backendClient()
	if client == nil {
		return false
	}
	tok := c.stores.Results.BeginFetch()
	res, err := client.SearchResults(c.ctx, c.stores.Settings.Get(), queries)
	if err != nil {
		name, msg := backend.Describe(err)
		c.stores.Errors.Report(stores.ErrKeySearchResults, name, msg)
		c.logger.Warn("search failed", zap.Int("queries", len(queries)), zap.Error(err))
		return false
	}
	return c.stores.Results.Apply(tok, res)
}

func (c *Coordinator) fetchCardbacks() bool {
	client := c.backendClient()
	if client == nil {
		return false
	}
	tok := c.stores.Cardbacks.BeginFetch()
	list, err := client.Cardbacks(c.ctx, c.stores.Settings.Get())
	if err != nil {
		name, msg := backend.Describe(err)
		c.stores.Errors.Report(stores.ErrKeyCardbacks, name, msg)
		c.logger.Warn("cardback fetch failed", zap.Error(err))
		return false
	}
	return c.stores.Cardbacks.Apply(tok, list)
}

func (c *Coordinator) fetchDocuments(identifiers []string) bool {
	missing := c.stores.Documents.Missing(identifiers)
	if len(missing) == 0 {
		return true
	}
	client := c.backendClient()
	if client == nil {
		return false
	}
	docs, err := client.Cards(c.ctx, missing)
	if err != nil {
		name, msg := backend.Describe(err)
		c.stores.Errors.Report(stores.ErrKeyCards, name, msg)
		c.logger.Warn("card metadata fetch failed", zap.Int("identifiers", len(missing)), zap.Error(err))
		return false
	}
	c.stores.Documents.Add(docs)
	return true
}

// ensureProjectDocuments fetches metadata for every identifier the project
// references and does not have cached yet.
func (c *Coordinator) ensureProjectDocuments() bool {
	return c.fetchDocuments(c.stores.Project.AllIdentifiers())
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
