// Package importer turns decklists into project slots. It parses the text
// and CSV formats, resolves site URLs through the backend, pairs
// double-faced cards, and applies the result to the project store.
package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"deckforge/internal/domain"
)

// Entry is one parsed decklist line before quantity expansion.
type Entry struct {
	Quantity int
	Front    *domain.SearchQuery
	Back     *domain.SearchQuery
}

// faceSeparator splits a line into front and back queries.
const faceSeparator = "//"

// Query type prefixes, taken from the decklist dialect the card backend's
// own frontend speaks.
const (
	tokenPrefix    = "t:"
	cardbackPrefix = "b:"
)

// ParseText parses decklist text. One card per line:
//
//	[N[x]] front query [// back query]
//
// Blank lines and lines starting with # are skipped, as are lines with no
// front query. A t: prefix marks a token query and b: a cardback query.
func ParseText(text string) []Entry {
	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		qty, rest := splitQuantity(line)

		var frontText, backText string
		if idx := strings.Index(rest, faceSeparator); idx >= 0 {
			frontText = rest[:idx]
			backText = rest[idx+len(faceSeparator):]
		} else {
			frontText = rest
		}
		front := parseFace(frontText)
		if front == nil {
			continue
		}
		entries = append(entries, Entry{
			Quantity: qty,
			Front:    front,
			Back:     parseFace(backText),
		})
	}
	return entries
}

// ParseCSV parses a decklist with a Quantity,Front,Back header. Column
// names are matched case-insensitively and may appear in any order; the
// quantity column is optional. Cell text follows the same face grammar as
// the text format.
func ParseCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	qtyCol, frontCol, backCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "quantity":
			qtyCol = i
		case "front":
			frontCol = i
		case "back":
			backCol = i
		}
	}
	if frontCol < 0 {
		return nil, errors.New("CSV header has no Front column")
	}

	cell := func(row []string, col int) string {
		if col < 0 || col >= len(row) {
			return ""
		}
		return row[col]
	}

	var entries []Entry
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		front := parseFace(cell(row, frontCol))
		if front == nil {
			continue
		}
		qty := 1
		if raw := strings.TrimSpace(cell(row, qtyCol)); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				qty = n
			}
		}
		entries = append(entries, Entry{
			Quantity: qty,
			Front:    front,
			Back:     parseFace(cell(row, backCol)),
		})
	}
	return entries, nil
}

// BuildSlots expands entries into project slots, auto-filling back queries
// for plain card fronts that match a known double-faced card pairing.
// pairs maps normalized front names to back names and may be nil.
func BuildSlots(entries []Entry, pairs map[string]string) []domain.Slot {
	var slots []domain.Slot
	for _, e := range entries {
		if e.Front == nil {
			continue
		}
		back := e.Back
		if back == nil && e.Front.Type == domain.TypeCard {
			if paired, ok := pairs[e.Front.Text]; ok {
				back = &domain.SearchQuery{Text: paired, Type: domain.TypeCard}
			}
		}
		qty := e.Quantity
		if qty < 1 {
			qty = 1
		}
		if qty > domain.MaxProjectSize {
			qty = domain.MaxProjectSize
		}
		for i := 0; i < qty; i++ {
			slot := domain.Slot{Front: &domain.ProjectMember{Query: cloneQuery(e.Front)}}
			if back != nil {
				slot.Back = &domain.ProjectMember{Query: cloneQuery(back)}
			}
			slots = append(slots, slot)
		}
	}
	return slots
}

// splitQuantity strips a leading quantity from a line. Digits count as a
// quantity only when followed by an x or whitespace; a glued prefix like
// "2island" stays part of the query.
func splitQuantity(line string) (int, string) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 {
		return 1, line
	}
	rest := line[i:]
	switch {
	case rest == "":
		// A bare number is a query, not a quantity.
		return 1, line
	case rest[0] == 'x' || rest[0] == 'X':
		rest = rest[1:]
	case rest[0] != ' ' && rest[0] != '\t':
		return 1, line
	}
	qty, err := strconv.Atoi(line[:i])
	if err != nil || qty < 1 {
		return 1, line
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return 1, line
	}
	return qty, rest
}

// ParseQuery parses a single face's query text, honouring the type
// prefixes. Empty or whitespace-only text yields nil.
func ParseQuery(text string) *domain.SearchQuery {
	return parseFace(text)
}

// parseFace turns one face's text into a query, applying the type prefixes
// and normalization. Empty text yields nil.
func parseFace(text string) *domain.SearchQuery {
	cardType := domain.TypeCard
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, tokenPrefix):
		cardType = domain.TypeToken
		trimmed = trimmed[len(tokenPrefix):]
	case strings.HasPrefix(lower, cardbackPrefix):
		cardType = domain.TypeCardback
		trimmed = trimmed[len(cardbackPrefix):]
	}
	normalized := NormalizeQuery(trimmed)
	if normalized == "" {
		return nil
	}
	return &domain.SearchQuery{Text: normalized, Type: cardType}
}

// NormalizeQuery lowercases and collapses whitespace so that equal-looking
// queries share one result set. The backend applies its own sanitization
// on top; the normalized text is echoed back verbatim as the results key.
func NormalizeQuery(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func cloneQuery(q *domain.SearchQuery) *domain.SearchQuery {
	if q == nil {
		return nil
	}
	c := *q
	return &c
}
