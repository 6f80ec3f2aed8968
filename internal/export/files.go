package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"deckforge/internal/domain"
)

// FileBase derives a filesystem-safe stem for export files from the
// project name.
func FileBase(p domain.Project) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == ' ':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(p.Name))
	base = strings.TrimSpace(base)
	if base == "" {
		return "project"
	}
	return base
}

// SaveFiles writes the decklist text and order XML for the project into
// dir, named after the project, and returns the written paths.
func SaveFiles(dir string, p domain.Project, lookup DocumentLookup) ([]string, error) {
	order, err := OrderXML(p, lookup)
	if err != nil {
		return nil, err
	}

	base := FileBase(p)
	textPath := filepath.Join(dir, base+".txt")
	xmlPath := filepath.Join(dir, base+".xml")

	if err := os.WriteFile(textPath, []byte(Decklist(p)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write decklist: %w", err)
	}
	if err := os.WriteFile(xmlPath, order, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write order: %w", err)
	}
	return []string{textPath, xmlPath}, nil
}
