// Package export renders the current project into the two interchange
// formats the ordering workflow consumes: decklist text (the same line
// grammar the importer reads) and the print-service order XML.
package export

import (
	"strconv"
	"strings"

	"deckforge/internal/domain"
)

// Line grammar tokens, mirrored by the importer so exported lists
// reimport to the same queries.
const (
	faceSeparator  = "//"
	tokenPrefix    = "t:"
	cardbackPrefix = "b:"
)

// Decklist renders the project as decklist text. Consecutive slots
// carrying the same front and back queries collapse into one quantity
// line. Slots without a front query have nothing to express in this
// format and are skipped.
func Decklist(p domain.Project) string {
	var b strings.Builder
	var run int
	var head domain.Slot

	flush := func() {
		if run > 0 {
			writeLine(&b, run, head)
			run = 0
		}
	}

	for _, slot := range p.Slots {
		if slot.Front == nil || slot.Front.Query == nil {
			continue
		}
		if run > 0 && sameQueries(head, slot) {
			run++
			continue
		}
		flush()
		head = slot
		run = 1
	}
	flush()

	return b.String()
}

func sameQueries(a, b domain.Slot) bool {
	return queriesEqual(memberQuery(a.Front), memberQuery(b.Front)) &&
		queriesEqual(memberQuery(a.Back), memberQuery(b.Back))
}

func queriesEqual(a, b *domain.SearchQuery) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func memberQuery(m *domain.ProjectMember) *domain.SearchQuery {
	if m == nil {
		return nil
	}
	return m.Query
}

func writeLine(b *strings.Builder, quantity int, slot domain.Slot) {
	if quantity > 1 {
		b.WriteString(strconv.Itoa(quantity))
		b.WriteString("x ")
	}
	b.WriteString(queryText(*slot.Front.Query))
	if back := memberQuery(slot.Back); back != nil {
		b.WriteByte(' ')
		b.WriteString(faceSeparator)
		b.WriteByte(' ')
		b.WriteString(queryText(*back))
	}
	b.WriteByte('\n')
}

func queryText(q domain.SearchQuery) string {
	switch q.Type {
	case domain.TypeToken:
		return tokenPrefix + " " + q.Text
	case domain.TypeCardback:
		return cardbackPrefix + " " + q.Text
	default:
		return q.Text
	}
}
