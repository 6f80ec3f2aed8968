package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"deckforge/internal/domain"
)

// settingsFile is the TOML shape of the persisted search settings.
// Source flags are stored by source key, not primary key, so the file
// survives a backend re-import renumbering its source table.
type settingsFile struct {
	SearchType domain.SearchTypeSettings `toml:"search_type"`
	Filter     domain.FilterSettings     `toml:"filter"`
	Sources    []sourceState             `toml:"sources"`
}

type sourceState struct {
	Key     string `toml:"key"`
	Enabled bool   `toml:"enabled"`
}

// SettingsState round-trips search settings through a TOML file in the
// user config dir. Reading reconciles the stored per-source flags against
// the sources the backend actually has: flags for unknown sources are
// pruned and newly seen sources are appended enabled, in backend order.
// Writing happens only on explicit user edits, never from reactions.
type SettingsState struct {
	path   string
	logger *zap.Logger
}

// NewSettingsState creates a service persisting to path.
func NewSettingsState(path string, logger *zap.Logger) *SettingsState {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = DefaultStatePath()
	}
	return &SettingsState{path: path, logger: logger}
}

// Load returns the persisted settings scoped to the known sources. found
// is false when nothing usable was persisted, in which case the caller
// falls back to defaults. A corrupt file is treated as absent.
func (s *SettingsState) Load(sources []domain.Source) (settings domain.SearchSettings, found bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read settings state", zap.String("path", s.path), zap.Error(err))
		}
		return domain.SearchSettings{}, false
	}
	var file settingsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		s.logger.Warn("failed to parse settings state", zap.String("path", s.path), zap.Error(err))
		return domain.SearchSettings{}, false
	}

	pkByKey := make(map[string]int, len(sources))
	for _, src := range sources {
		pkByKey[src.Key] = src.PK
	}

	enabled := make([]domain.SourceEnabled, 0, len(sources))
	mentioned := make(map[string]struct{}, len(file.Sources))
	for _, st := range file.Sources {
		pk, known := pkByKey[st.Key]
		if !known {
			continue // source no longer exists, prune
		}
		if _, dup := mentioned[st.Key]; dup {
			continue
		}
		mentioned[st.Key] = struct{}{}
		enabled = append(enabled, domain.SourceEnabled{PK: pk, Enabled: st.Enabled})
	}
	for _, src := range sources {
		if _, ok := mentioned[src.Key]; !ok {
			enabled = append(enabled, domain.SourceEnabled{PK: src.PK, Enabled: true})
		}
	}

	settings = domain.SearchSettings{
		SearchTypeSettings: file.SearchType,
		SourceSettings:     domain.SourceSettings{Sources: enabled},
		FilterSettings:     file.Filter,
	}
	return settings.Clone(), true
}

// Save persists the settings. sources supply the key for each source
// primary key; entries whose PK is unknown are dropped rather than saved
// under an identity that would never reconcile back.
func (s *SettingsState) Save(sources []domain.Source, settings domain.SearchSettings) error {
	keyByPK := make(map[int]string, len(sources))
	for _, src := range sources {
		keyByPK[src.PK] = src.Key
	}

	file := settingsFile{
		SearchType: settings.SearchTypeSettings,
		Filter:     settings.FilterSettings,
	}
	for _, src := range settings.SourceSettings.Sources {
		key, known := keyByPK[src.PK]
		if !known {
			continue
		}
		file.Sources = append(file.Sources, sourceState{Key: key, Enabled: src.Enabled})
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode settings state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings state directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings state: %w", err)
	}
	s.logger.Debug("saved settings state", zap.String("path", s.path), zap.Int("sources", len(file.Sources)))
	return nil
}

// Path returns the backing file location.
func (s *SettingsState) Path() string {
	return s.path
}
