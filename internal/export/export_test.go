package export

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckforge/internal/domain"
	"deckforge/internal/importer"
)

func member(text string, cardType domain.CardType, image string) *domain.ProjectMember {
	return &domain.ProjectMember{
		Query:         &domain.SearchQuery{Text: text, Type: cardType},
		SelectedImage: image,
	}
}

// trackingBack is a back face with no query of its own, showing the
// project cardback.
func trackingBack(image string) *domain.ProjectMember {
	return &domain.ProjectMember{SelectedImage: image}
}

func TestDecklistCollapsesConsecutiveRuns(t *testing.T) {
	p := domain.Project{Slots: []domain.Slot{
		{Front: member("island", domain.TypeCard, "")},
		{Front: member("island", domain.TypeCard, "")},
		{Front: member("island", domain.TypeCard, "")},
		{Front: member("swamp", domain.TypeCard, "")},
		{Front: member("island", domain.TypeCard, "")},
	}}

	assert.Equal(t, "3x island\nswamp\nisland\n", Decklist(p))
}

func TestDecklistFacesAndPrefixes(t *testing.T) {
	p := domain.Project{Slots: []domain.Slot{
		{
			Front: member("huntmaster of the fells", domain.TypeCard, ""),
			Back:  member("ravager of the fells", domain.TypeCard, ""),
		},
		{Front: member("goblin", domain.TypeToken, "")},
		{
			Front: member("island", domain.TypeCard, ""),
			Back:  member("wood texture", domain.TypeCardback, ""),
		},
		{
			Front: member("island", domain.TypeCard, ""),
			Back:  member("wood texture", domain.TypeCardback, ""),
		},
	}}

	want := "huntmaster of the fells // ravager of the fells\n" +
		"t: goblin\n" +
		"2x island // b: wood texture\n"
	assert.Equal(t, want, Decklist(p))
}

func TestDecklistSkipsQuerylessSlots(t *testing.T) {
	p := domain.Project{Slots: []domain.Slot{
		{Front: member("island", domain.TypeCard, "")},
		{Back: member("some back", domain.TypeCard, "")},
		{Front: &domain.ProjectMember{}},
		{Front: member("island", domain.TypeCard, ""), Back: trackingBack("back-a")},
	}}

	// The tracking back carries no query, so slots 0 and 3 read the same.
	assert.Equal(t, "island\nisland\n", Decklist(p))
	assert.Empty(t, Decklist(domain.Project{}))
}

func TestDecklistReimportsToSameQueries(t *testing.T) {
	p := domain.Project{Slots: []domain.Slot{
		{Front: member("island", domain.TypeCard, "img")},
		{Front: member("island", domain.TypeCard, "img")},
		{
			Front: member("delver of secrets", domain.TypeCard, ""),
			Back:  member("insectile aberration", domain.TypeCard, ""),
		},
		{Front: member("goblin", domain.TypeToken, "")},
	}}

	slots := importer.BuildSlots(importer.ParseText(Decklist(p)), nil)
	require.Len(t, slots, len(p.Slots))
	for i := range slots {
		require.NotNil(t, slots[i].Front)
		assert.Equal(t, *p.Slots[i].Front.Query, *slots[i].Front.Query, "front %d", i)
		if p.Slots[i].Back != nil {
			require.NotNil(t, slots[i].Back, "back %d", i)
			assert.Equal(t, *p.Slots[i].Back.Query, *slots[i].Back.Query, "back %d", i)
		}
	}
}

func TestBracketFor(t *testing.T) {
	cases := []struct {
		quantity, bracket int
	}{
		{1, 18},
		{18, 18},
		{19, 36},
		{100, 108},
		{234, 234},
		{235, 396},
		{612, 612},
		{700, 612},
	}
	for _, c := range cases {
		assert.Equal(t, c.bracket, bracketFor(c.quantity), "quantity %d", c.quantity)
	}
}

func TestOrderXMLGroupsByImage(t *testing.T) {
	p := domain.Project{
		Name:     "test deck",
		Cardback: "back-a",
		Slots: []domain.Slot{
			{Front: member("island", domain.TypeCard, "is-1"), Back: trackingBack("back-a")},
			{Front: member("island", domain.TypeCard, "is-1"), Back: trackingBack("bk-x")},
			{Front: member("swamp", domain.TypeCard, "sw-1"), Back: trackingBack("back-a")},
			{Front: member("island", domain.TypeCard, "is-1"), Back: trackingBack("back-a")},
		},
	}
	lookup := func(id string) (domain.CardDocument, bool) {
		if id == "is-1" {
			return domain.CardDocument{Identifier: id, Name: "Island", Extension: "png"}, true
		}
		return domain.CardDocument{}, false
	}

	out, err := OrderXML(p, lookup)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), xml.Header))

	var got orderXML
	require.NoError(t, xml.Unmarshal(out, &got))

	assert.Equal(t, orderDetails{
		Quantity: 4,
		Bracket:  18,
		Stock:    "(S30) Standard Smooth",
		Foil:     false,
	}, got.Details)

	require.Len(t, got.Fronts.Cards, 2)
	assert.Equal(t, orderCard{ID: "is-1", Slots: "0, 1, 3", Name: "Island.png", Query: "island"}, got.Fronts.Cards[0])
	assert.Equal(t, orderCard{ID: "sw-1", Slots: "2", Query: "swamp"}, got.Fronts.Cards[1])

	// Backs showing the project cardback stay out; the odd one is listed.
	require.Len(t, got.Backs.Cards, 1)
	assert.Equal(t, orderCard{ID: "bk-x", Slots: "1"}, got.Backs.Cards[0])
	assert.Equal(t, "back-a", got.Cardback)
}

func TestOrderXMLSkipsUnselectedSlots(t *testing.T) {
	p := domain.Project{
		Cardback: "back-a",
		Slots: []domain.Slot{
			{Front: member("island", domain.TypeCard, "is-1")},
			{Front: member("unobtainium", domain.TypeCard, "")},
		},
	}

	out, err := OrderXML(p, nil)
	require.NoError(t, err)

	var got orderXML
	require.NoError(t, xml.Unmarshal(out, &got))
	assert.Equal(t, 2, got.Details.Quantity)
	require.Len(t, got.Fronts.Cards, 1)
	assert.Equal(t, "is-1", got.Fronts.Cards[0].ID)
	assert.Empty(t, got.Backs.Cards)
}

func TestOrderXMLEmptyProject(t *testing.T) {
	_, err := OrderXML(domain.Project{}, nil)
	require.ErrorIs(t, err, ErrEmptyProject)
}

func TestFileBase(t *testing.T) {
	assert.Equal(t, "my deck", FileBase(domain.Project{Name: "my deck"}))
	assert.Equal(t, "a-b", FileBase(domain.Project{Name: "a/b"}))
	assert.Equal(t, "project", FileBase(domain.Project{Name: "   "}))
	assert.Equal(t, "project", FileBase(domain.Project{}))
}

func TestSaveFiles(t *testing.T) {
	p := domain.Project{
		Name:     "my deck",
		Cardback: "back-a",
		Slots: []domain.Slot{
			{Front: member("island", domain.TypeCard, "is-1"), Back: trackingBack("back-a")},
		},
	}

	dir := t.TempDir()
	paths, err := SaveFiles(dir, p, nil)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "my deck.txt"),
		filepath.Join(dir, "my deck.xml"),
	}, paths)

	text, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "island\n", string(text))

	var got orderXML
	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	require.NoError(t, xml.Unmarshal(data, &got))
	assert.Equal(t, 1, got.Details.Quantity)

	_, err = SaveFiles(dir, domain.Project{Name: "empty"}, nil)
	require.ErrorIs(t, err, ErrEmptyProject)
}
