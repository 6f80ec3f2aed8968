package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventConnectRequested EventType = "ConnectRequested"
	EventBackendConnected EventType = "BackendConnected"
	EventBackendCleared   EventType = "BackendCleared"
	EventSourcesFetched   EventType = "SourcesFetched"
	EventSettingsChanged  EventType = "SettingsChanged"
	EventMembersAdded     EventType = "MembersAdded"
	EventSlotsDeleted     EventType = "SlotsDeleted"
	EventQueryChanged     EventType = "QueryChanged"
	EventImagesSelected   EventType = "ImagesSelected"
	EventSelectionChanged EventType = "SelectionChanged"
	EventCardbackChanged  EventType = "CardbackChanged"
	EventProjectReset     EventType = "ProjectReset"
	EventResultsUpdated   EventType = "ResultsUpdated"
	EventResultsCleared   EventType = "ResultsCleared"
	EventCardbacksFetched EventType = "CardbacksFetched"
	EventDocumentsUpdated EventType = "DocumentsUpdated"
	EventInvalidChanged   EventType = "InvalidChanged"
	EventModalChanged     EventType = "ModalChanged"
	EventErrorReported    EventType = "ErrorReported"
	EventErrorDismissed   EventType = "ErrorDismissed"
	EventImportRequested  EventType = "ImportRequested"
	EventImportCompleted  EventType = "ImportCompleted"
)

// AllEventTypes lists every event type, for subscribers that forward the
// whole stream.
func AllEventTypes() []EventType {
	return []EventType{
		EventConnectRequested,
		EventBackendConnected,
		EventBackendCleared,
		EventSourcesFetched,
		EventSettingsChanged,
		EventMembersAdded,
		EventSlotsDeleted,
		EventQueryChanged,
		EventImagesSelected,
		EventSelectionChanged,
		EventCardbackChanged,
		EventProjectReset,
		EventResultsUpdated,
		EventResultsCleared,
		EventCardbacksFetched,
		EventDocumentsUpdated,
		EventInvalidChanged,
		EventModalChanged,
		EventErrorReported,
		EventErrorDismissed,
		EventImportRequested,
		EventImportCompleted,
	}
}

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// ConnectRequestedEvent asks the coordinator to probe and adopt a backend
type ConnectRequestedEvent struct {
	URL string
}

func (e ConnectRequestedEvent) Type() EventType { return EventConnectRequested }

// BackendConnectedEvent is emitted once a backend has answered the health probe
type BackendConnectedEvent struct {
	URL  string
	Info ServerInfo
}

func (e BackendConnectedEvent) Type() EventType { return EventBackendConnected }

// BackendClearedEvent is emitted when the active backend is dropped
type BackendClearedEvent struct{}

func (e BackendClearedEvent) Type() EventType { return EventBackendCleared }

// SourcesFetchedEvent is emitted when the source list has been replaced
type SourcesFetchedEvent struct {
	Sources []Source
}

func (e SourcesFetchedEvent) Type() EventType { return EventSourcesFetched }

// SettingsChangedEvent is emitted when search settings actually changed.
// UserEdited distinguishes explicit edits, which are the only ones that
// get persisted, from settings loaded out of the saved state file.
type SettingsChangedEvent struct {
	Settings   SearchSettings
	UserEdited bool
}

func (e SettingsChangedEvent) Type() EventType { return EventSettingsChanged }

// MembersAddedEvent is emitted when slots are appended to the project
type MembersAddedEvent struct {
	FirstSlot  int
	Count      int
	NewQueries []SearchQuery // queries introduced by this append, deduplicated
}

func (e MembersAddedEvent) Type() EventType { return EventMembersAdded }

// SlotsDeletedEvent is emitted after slots are removed and the remainder
// renumbered. Indices are the pre-deletion positions in ascending order.
type SlotsDeletedEvent struct {
	Indices []int
}

func (e SlotsDeletedEvent) Type() EventType { return EventSlotsDeleted }

// QueryChangedEvent is emitted when the query of one or more slot faces
// changes. Deliberate marks an explicit user edit, which supersedes any
// invalid-identifier warning recorded for those faces.
type QueryChangedEvent struct {
	Slots      []int
	Face       Face
	Query      *SearchQuery // nil when the query was cleared
	Deliberate bool
}

func (e QueryChangedEvent) Type() EventType { return EventQueryChanged }

// ImagesSelectedEvent is emitted when selected images change, covering both
// single-face edits and bulk version changes
type ImagesSelectedEvent struct {
	Face  Face
	Slots []int
}

func (e ImagesSelectedEvent) Type() EventType { return EventImagesSelected }

// SelectionChangedEvent is emitted when per-member selection flags change
type SelectionChangedEvent struct {
	SelectedCount int
}

func (e SelectionChangedEvent) Type() EventType { return EventSelectionChanged }

// CardbackChangedEvent is emitted when the project-wide cardback changes
type CardbackChangedEvent struct {
	Identifier string // empty when cleared
}

func (e CardbackChangedEvent) Type() EventType { return EventCardbackChanged }

// ProjectResetEvent is emitted when the whole project is replaced
// (new project, import with replace, load from disk)
type ProjectResetEvent struct {
	SlotCount int
}

func (e ProjectResetEvent) Type() EventType { return EventProjectReset }

// ResultsUpdatedEvent is emitted when search results for one or more
// queries have been fetched and stored
type ResultsUpdatedEvent struct {
	Queries []SearchQuery
}

func (e ResultsUpdatedEvent) Type() EventType { return EventResultsUpdated }

// ResultsClearedEvent is emitted when the whole result cache is invalidated
type ResultsClearedEvent struct{}

func (e ResultsClearedEvent) Type() EventType { return EventResultsCleared }

// CardbacksFetchedEvent is emitted when the cardback list has been replaced
type CardbacksFetchedEvent struct {
	Cardbacks []string
}

func (e CardbacksFetchedEvent) Type() EventType { return EventCardbacksFetched }

// DocumentsUpdatedEvent is emitted when card documents are added to the cache
type DocumentsUpdatedEvent struct {
	Count int
}

func (e DocumentsUpdatedEvent) Type() EventType { return EventDocumentsUpdated }

// InvalidChangedEvent is emitted when the invalid-identifier ledger changes
type InvalidChangedEvent struct {
	Count int
}

func (e InvalidChangedEvent) Type() EventType { return EventInvalidChanged }

// ModalChangedEvent is emitted when the active overlay dialog changes
type ModalChangedEvent struct {
	Kind string // empty when closed
}

func (e ModalChangedEvent) Type() EventType { return EventModalChanged }

// ErrorReportedEvent is emitted when an operation failure is recorded.
// A repeated failure of the same Key replaces the previous record.
type ErrorReportedEvent struct {
	Key     string
	Name    string
	Message string
}

func (e ErrorReportedEvent) Type() EventType { return EventErrorReported }

// ErrorDismissedEvent is emitted when an error record is dismissed
type ErrorDismissedEvent struct {
	Key string
}

func (e ErrorDismissedEvent) Type() EventType { return EventErrorDismissed }

// ImportRequestedEvent asks the importer to parse a decklist and apply it
type ImportRequestedEvent struct {
	Text    string
	Replace bool // replace the current project instead of appending
}

func (e ImportRequestedEvent) Type() EventType { return EventImportRequested }

// ImportCompletedEvent is emitted after an import was applied
type ImportCompletedEvent struct {
	SlotsAdded int
	Truncated  bool // hit MaxProjectSize
}

func (e ImportCompletedEvent) Type() EventType { return EventImportCompleted }
