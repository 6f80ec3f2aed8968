package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deckforge/internal/domain"
)

// ProjectInfo is one row of the saved-project listing.
type ProjectInfo struct {
	Key       uuid.UUID
	Name      string
	Slots     int
	UpdatedAt time.Time
}

// Save upserts the project under its key, replacing its member rows.
func (s *Store) Save(ctx context.Context, p domain.Project) error {
	if p.Key == uuid.Nil {
		return errors.New("project has no key")
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projects (key, name, cardback, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			cardback = excluded.cardback,
			updated_at = excluded.updated_at`,
		p.Key.String(), p.Name, p.Cardback, now, now); err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_key = ?`, p.Key.String()); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO project_members (project_key, slot, face, query, card_type, selected_image)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare member insert: %w", err)
	}
	defer ins.Close()

	// The bulk-selection marker is session state and stays out of the
	// database.
	for i, slot := range p.Slots {
		for _, face := range domain.Faces {
			m := slot.Member(face)
			if m == nil {
				continue
			}
			var query, cardType sql.NullString
			if m.Query != nil {
				query = sql.NullString{String: m.Query.Text, Valid: true}
				cardType = sql.NullString{String: string(m.Query.Type), Valid: true}
			}
			if _, err := ins.ExecContext(ctx, p.Key.String(), i, string(face), query, cardType, m.SelectedImage); err != nil {
				return fmt.Errorf("insert member %d/%s: %w", i, face, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.logger.Debug("project saved",
		zap.String("key", p.Key.String()),
		zap.Int("slots", len(p.Slots)))
	return nil
}

// Load reads the project with the given key.
func (s *Store) Load(ctx context.Context, key uuid.UUID) (domain.Project, error) {
	var p domain.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT name, cardback FROM projects WHERE key = ?`, key.String()).
		Scan(&p.Name, &p.Cardback)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, ErrNotFound
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("read project: %w", err)
	}
	p.Key = key

	rows, err := s.db.QueryContext(ctx, `
		SELECT slot, face, query, card_type, selected_image
		FROM project_members
		WHERE project_key = ?
		ORDER BY slot`, key.String())
	if err != nil {
		return domain.Project{}, fmt.Errorf("read members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			slot            int
			face, image     string
			query, cardType sql.NullString
		)
		if err := rows.Scan(&slot, &face, &query, &cardType, &image); err != nil {
			return domain.Project{}, fmt.Errorf("scan member: %w", err)
		}
		for len(p.Slots) <= slot {
			p.Slots = append(p.Slots, domain.Slot{})
		}
		m := &domain.ProjectMember{SelectedImage: image}
		if query.Valid {
			m.Query = &domain.SearchQuery{Text: query.String, Type: domain.CardType(cardType.String)}
		}
		switch domain.Face(face) {
		case domain.FaceFront:
			p.Slots[slot].Front = m
		case domain.FaceBack:
			p.Slots[slot].Back = m
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Project{}, fmt.Errorf("iterate members: %w", err)
	}
	return p, nil
}

// List returns the saved projects, most recently updated first.
func (s *Store) List(ctx context.Context) ([]ProjectInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.key, p.name, p.updated_at, COUNT(DISTINCT m.slot)
		FROM projects p
		LEFT JOIN project_members m ON m.project_key = p.key
		GROUP BY p.key, p.name, p.updated_at
		ORDER BY p.updated_at DESC, p.name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectInfo
	for rows.Next() {
		var (
			info            ProjectInfo
			keyStr, updated string
		)
		if err := rows.Scan(&keyStr, &info.Name, &updated, &info.Slots); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		if info.Key, err = uuid.Parse(keyStr); err != nil {
			return nil, fmt.Errorf("parse project key %q: %w", keyStr, err)
		}
		if ts, err := time.Parse(time.RFC3339, updated); err == nil {
			info.UpdatedAt = ts
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

// Delete removes the project and its members.
func (s *Store) Delete(ctx context.Context, key uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE key = ?`, key.String())
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
