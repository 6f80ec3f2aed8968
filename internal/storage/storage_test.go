package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckforge/internal/domain"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.db")
	st, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })
	return st, path
}

func sampleProject() domain.Project {
	return domain.Project{
		Key:      uuid.New(),
		Name:     "delver tempo",
		Cardback: "back-a",
		Slots: []domain.Slot{
			{
				Front: &domain.ProjectMember{
					Query:         &domain.SearchQuery{Text: "delver of secrets", Type: domain.TypeCard},
					SelectedImage: "delver-1",
				},
				Back: &domain.ProjectMember{
					Query:         &domain.SearchQuery{Text: "insectile aberration", Type: domain.TypeCard},
					SelectedImage: "insectile-1",
				},
			},
			{
				Front: &domain.ProjectMember{
					Query:         &domain.SearchQuery{Text: "island", Type: domain.TypeCard},
					SelectedImage: "island-2",
				},
				// tracking back: no query of its own
				Back: &domain.ProjectMember{SelectedImage: "back-a"},
			},
			{
				Front: &domain.ProjectMember{
					Query: &domain.SearchQuery{Text: "goblin", Type: domain.TypeToken},
				},
			},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st, _ := openStore(t)
	ctx := context.Background()
	p := sampleProject()

	require.NoError(t, st.Save(ctx, p))

	got, err := st.Load(ctx, p.Key)
	require.NoError(t, err)
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("loaded project differs (-saved +loaded):\n%s", diff)
	}
}

func TestSaveDropsSessionSelection(t *testing.T) {
	st, _ := openStore(t)
	ctx := context.Background()
	p := sampleProject()
	p.Slots[0].Front.Selected = true

	require.NoError(t, st.Save(ctx, p))
	got, err := st.Load(ctx, p.Key)
	require.NoError(t, err)
	assert.False(t, got.Slots[0].Front.Selected)
}

func TestSaveUpdatesInPlace(t *testing.T) {
	st, _ := openStore(t)
	ctx := context.Background()
	p := sampleProject()
	require.NoError(t, st.Save(ctx, p))

	p.Name = "renamed"
	p.Slots = p.Slots[:1]
	require.NoError(t, st.Save(ctx, p))

	got, err := st.Load(ctx, p.Key)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Len(t, got.Slots, 1)

	infos, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1, "update must not create a second row")
	assert.Equal(t, 1, infos[0].Slots)
}

func TestSaveRequiresKey(t *testing.T) {
	st, _ := openStore(t)
	require.Error(t, st.Save(context.Background(), domain.Project{Name: "keyless"}))
}

func TestLoadUnknownKey(t *testing.T) {
	st, _ := openStore(t)
	_, err := st.Load(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	st, _ := openStore(t)
	ctx := context.Background()

	a := sampleProject()
	a.Name = "alpha"
	b := domain.Project{Key: uuid.New(), Name: "beta", Cardback: "back-b"}
	require.NoError(t, st.Save(ctx, a))
	require.NoError(t, st.Save(ctx, b))

	infos, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byName := map[string]ProjectInfo{}
	for _, info := range infos {
		byName[info.Name] = info
		assert.False(t, info.UpdatedAt.IsZero())
	}
	assert.Equal(t, a.Key, byName["alpha"].Key)
	assert.Equal(t, 3, byName["alpha"].Slots)
	assert.Equal(t, b.Key, byName["beta"].Key)
	assert.Equal(t, 0, byName["beta"].Slots)
}

func TestDeleteCascades(t *testing.T) {
	st, _ := openStore(t)
	ctx := context.Background()
	p := sampleProject()
	require.NoError(t, st.Save(ctx, p))

	require.NoError(t, st.Delete(ctx, p.Key))

	_, err := st.Load(ctx, p.Key)
	require.ErrorIs(t, err, ErrNotFound)

	var members int
	require.NoError(t, st.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_members WHERE project_key = ?`, p.Key.String()).Scan(&members))
	assert.Zero(t, members, "member rows must go with the project")

	require.ErrorIs(t, st.Delete(ctx, p.Key), ErrNotFound)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.db")
	ctx := context.Background()
	p := sampleProject()

	st, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, p))
	require.NoError(t, st.Close())

	st, err = Open(path, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, st.Close()) }()

	got, err := st.Load(ctx, p.Key)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Len(t, got.Slots, len(p.Slots))
}
