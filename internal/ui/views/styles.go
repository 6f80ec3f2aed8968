package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Dim           lipgloss.Style
	Status        lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	Loading       lipgloss.Style

	Cell         lipgloss.Style
	CellFocused  lipgloss.Style
	CellSelected lipgloss.Style
	CellEmpty    lipgloss.Style
	Invalid      lipgloss.Style
	Position     lipgloss.Style

	DetailLabel lipgloss.Style
	DetailValue lipgloss.Style

	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	PickerCursor lipgloss.Style
	PickerDetail lipgloss.Style
	Key          lipgloss.Style
	Help         lipgloss.Style
	Confirm      lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Dim:           lipgloss.NewStyle().Faint(true),
		Status:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		Loading:       lipgloss.NewStyle().Foreground(lipgloss.Color("51")),  // cyan

		Cell: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1),
		CellFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1),
		CellSelected: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1),
		CellEmpty: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("236")).
			Faint(true).
			Padding(0, 1),
		Invalid:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		Position: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		DetailLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		DetailValue: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),

		Overlay: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(1, 2).
			BorderForeground(lipgloss.Color("99")),
		OverlayTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		PickerCursor: lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		PickerDetail: lipgloss.NewStyle().Faint(true),
		Key:          lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Help:         lipgloss.NewStyle().Faint(true),
		Confirm:      lipgloss.NewStyle().Bold(true),
	}
}

// FaceTag renders the face indicator shown in the grid header.
func FaceTag(front bool) string {
	if front {
		return "fronts"
	}
	return "backs"
}
