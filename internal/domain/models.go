package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// MaxProjectSize is the hard cap on slots in a project, matching the
// largest order the print service accepts.
const MaxProjectSize = 612

// Face identifies one side of a card slot.
type Face string

const (
	FaceFront Face = "FRONT"
	FaceBack  Face = "BACK"
)

// Faces lists both faces in canonical order.
var Faces = []Face{FaceFront, FaceBack}

// Other returns the opposite face.
func (f Face) Other() Face {
	if f == FaceFront {
		return FaceBack
	}
	return FaceFront
}

// CardType classifies a searchable image in the backend database.
type CardType string

const (
	TypeCard     CardType = "CARD"
	TypeCardback CardType = "CARDBACK"
	TypeToken    CardType = "TOKEN"
)

// SearchQuery identifies what one face of one slot is searching for.
// Two slots with an equal SearchQuery share the same result set.
type SearchQuery struct {
	Text string
	Type CardType
}

// ProjectMember is one face of one slot: its query, the image picked
// from that query's results, and whether the slot face is marked for
// bulk operations. SelectedImage consistency with current results is
// an eventual invariant restored by the coordinator, not enforced here.
type ProjectMember struct {
	Query         *SearchQuery
	SelectedImage string // identifier; "" means none
	Selected      bool
}

// Clone returns a deep copy of the member.
func (m *ProjectMember) Clone() *ProjectMember {
	if m == nil {
		return nil
	}
	c := *m
	if m.Query != nil {
		q := *m.Query
		c.Query = &q
	}
	return &c
}

// Slot holds the front and back members of one project position.
// Either face may be absent; a slot with both absent is deleted.
type Slot struct {
	Front *ProjectMember
	Back  *ProjectMember
}

// Member returns the member for the given face (may be nil).
func (s Slot) Member(face Face) *ProjectMember {
	if face == FaceFront {
		return s.Front
	}
	return s.Back
}

// Clone returns a deep copy of the slot.
func (s Slot) Clone() Slot {
	return Slot{Front: s.Front.Clone(), Back: s.Back.Clone()}
}

// Project is the ordered sequence of slots plus the project-wide
// cardback used as the default back image for slots without an
// explicit back query.
type Project struct {
	Key      uuid.UUID
	Name     string
	Slots    []Slot
	Cardback string // identifier; "" means none selected
}

// Source describes one card database contributor, in backend order.
type Source struct {
	PK           int    `json:"pk"`
	Key          string `json:"key"`
	Name         string `json:"name"`
	Identifier   string `json:"identifier"`
	SourceType   string `json:"source_type"`
	ExternalLink string `json:"external_link"`
	Description  string `json:"description"`
}

// CardDocument is the full metadata record for one image identifier.
type CardDocument struct {
	Identifier         string   `json:"identifier"`
	CardType           CardType `json:"card_type"`
	Name               string   `json:"name"`
	Priority           int      `json:"priority"`
	Source             string   `json:"source"`
	SourceName         string   `json:"source_name"`
	SourceID           int      `json:"source_id"`
	SourceVerbose      string   `json:"source_verbose"`
	DPI                int      `json:"dpi"`
	Searchq            string   `json:"searchq"`
	Extension          string   `json:"extension"`
	Date               string   `json:"date"`
	Size               int64    `json:"size"`
	DownloadLink       string   `json:"download_link"`
	SmallThumbnailURL  string   `json:"small_thumbnail_url"`
	MediumThumbnailURL string   `json:"medium_thumbnail_url"`
	Tags               []string `json:"tags"`
	Language           string   `json:"language"`
}

// DFCPair maps a double-faced card's front name to its back name.
type DFCPair struct {
	Front string
	Back  string
}

// ImportSite is a deck-building site the backend can read decklists from.
type ImportSite struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ServerInfo is display metadata reported by the backend.
type ServerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Email       string `json:"email"`
}

// InvalidIdentifier records a selection that vanished from its query's
// current results. It is kept purely for user review.
type InvalidIdentifier struct {
	Query      *SearchQuery
	Identifier string
}

// SearchTypeSettings toggles how query text is matched.
type SearchTypeSettings struct {
	FuzzySearch     bool `toml:"fuzzy_search" json:"fuzzySearch"`
	FilterCardbacks bool `toml:"filter_cardbacks" json:"filterCardbacks"`
}

// SourceEnabled is one entry of the ordered source preference list.
// On the wire it is the two-element [pk, enabled] array the backend
// search API speaks.
type SourceEnabled struct {
	PK      int  `toml:"pk" json:"-"`
	Enabled bool `toml:"enabled" json:"-"`
}

// MarshalJSON encodes the entry as [pk, enabled].
func (s SourceEnabled) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{s.PK, s.Enabled})
}

// UnmarshalJSON decodes the [pk, enabled] array form.
func (s *SourceEnabled) UnmarshalJSON(data []byte) error {
	arr := []any{&s.PK, &s.Enabled}
	return json.Unmarshal(data, &arr)
}

// SourceSettings carries the ordered, individually-toggled source list.
type SourceSettings struct {
	Sources []SourceEnabled `toml:"sources" json:"sources"`
}

// FilterSettings bounds which images are eligible as search hits.
type FilterSettings struct {
	MinDPI       int      `toml:"min_dpi" json:"minimumDPI"`
	MaxDPI       int      `toml:"max_dpi" json:"maximumDPI"`
	MaxSize      int      `toml:"max_size" json:"maximumSize"` // megabytes
	Languages    []string `toml:"languages" json:"languages"`
	IncludesTags []string `toml:"includes_tags" json:"includesTags"`
	ExcludesTags []string `toml:"excludes_tags" json:"excludesTags"`
}

// SearchSettings is everything the backend search honours. Mutating it
// invalidates and recomputes all cached search results.
type SearchSettings struct {
	SearchTypeSettings SearchTypeSettings `toml:"search_type" json:"searchTypeSettings"`
	SourceSettings     SourceSettings     `toml:"source" json:"sourceSettings"`
	FilterSettings     FilterSettings     `toml:"filter" json:"filterSettings"`
}

// Clone returns a deep copy of the settings.
func (s SearchSettings) Clone() SearchSettings {
	c := s
	c.SourceSettings.Sources = append([]SourceEnabled(nil), s.SourceSettings.Sources...)
	c.FilterSettings.Languages = append([]string(nil), s.FilterSettings.Languages...)
	c.FilterSettings.IncludesTags = append([]string(nil), s.FilterSettings.IncludesTags...)
	c.FilterSettings.ExcludesTags = append([]string(nil), s.FilterSettings.ExcludesTags...)
	return c
}

// DefaultSearchSettings returns the settings used when nothing is
// persisted: every known source enabled in backend order, exact
// matching, and the stock DPI/size bounds.
func DefaultSearchSettings(sources []Source) SearchSettings {
	enabled := make([]SourceEnabled, len(sources))
	for i, s := range sources {
		enabled[i] = SourceEnabled{PK: s.PK, Enabled: true}
	}
	return SearchSettings{
		SearchTypeSettings: SearchTypeSettings{FuzzySearch: false, FilterCardbacks: false},
		SourceSettings:     SourceSettings{Sources: enabled},
		FilterSettings: FilterSettings{
			MinDPI:  0,
			MaxDPI:  1500,
			MaxSize: 30,
		},
	}
}

// EnabledSourcePKs returns the PKs of enabled sources in preference order.
func (s SearchSettings) EnabledSourcePKs() []int {
	pks := make([]int, 0, len(s.SourceSettings.Sources))
	for _, src := range s.SourceSettings.Sources {
		if src.Enabled {
			pks = append(pks, src.PK)
		}
	}
	return pks
}
