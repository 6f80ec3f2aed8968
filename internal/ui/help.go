package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"
)

// helpContent renders the key reference shown in the pager.
func helpContent() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220"))

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	line := func(key, desc string) string {
		return fmt.Sprintf("  %-18s %s\n", keyStyle.Render(key), descStyle.Render(desc))
	}

	var help strings.Builder

	help.WriteString(titleStyle.Render("deckforge keys"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Navigation"))
	help.WriteString("\n")
	help.WriteString(line("↑/↓/←/→, hjkl", "Move between slots"))
	help.WriteString(line("gg / G", "First / last slot"))
	help.WriteString(line("f", "Flip between fronts and backs"))
	help.WriteString(line("enter", "Card details for the focused slot"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Images"))
	help.WriteString("\n")
	help.WriteString(line("[ / ]", "Previous / next image version"))
	help.WriteString(line("v", "Pick a version from the list (applies to selection)"))
	help.WriteString(line("c", "Pick the project cardback"))
	help.WriteString(line("w", "Review picks dropped from results"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Selection"))
	help.WriteString("\n")
	help.WriteString(line("space", "Toggle slot selection"))
	help.WriteString(line("a / A", "Select / deselect all"))
	help.WriteString(line("d", "Delete selected slots"))
	help.WriteString(line("esc", "Clear selection, status and errors"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Cards"))
	help.WriteString("\n")
	help.WriteString(line("i", "Import decklist text, file or URL"))
	help.WriteString(line("/", "Edit the focused face's query"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Project"))
	help.WriteString("\n")
	help.WriteString(line("S", "Save project"))
	help.WriteString(line("O", "Open a saved project"))
	help.WriteString(line("e", "Export decklist and order XML"))
	help.WriteString(line("s", "Search settings"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Import overlay"))
	help.WriteString("\n")
	help.WriteString(line("ctrl+r", "Switch between append and replace"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Decklist lines"))
	help.WriteString("\n")
	help.WriteString(descStyle.Render("  [N[x]] front query [// back query]    # comment\n"))
	help.WriteString(descStyle.Render("  prefixes: 't:' searches tokens, 'b:' searches cardbacks\n"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Other"))
	help.WriteString("\n")
	help.WriteString(line("?", "This help"))
	help.WriteString(line("q", "Quit (autosaves when enabled)"))
	help.WriteString(line("ctrl+c", "Quit without autosave"))

	return help.String()
}

// showHelpInPager hands the terminal to ov until the user closes it.
func showHelpInPager(program *tea.Program, content string) error {
	if program == nil {
		return fmt.Errorf("program not set")
	}

	if err := program.ReleaseTerminal(); err != nil {
		return err
	}

	defer func() {
		// Give ov a moment to fully exit before redrawing over it.
		time.Sleep(100 * time.Millisecond)
		_ = program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}
