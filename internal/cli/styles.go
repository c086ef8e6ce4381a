package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todolist/backend/internal/api"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	deletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Faint(true)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

func ok(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✔ "+msg))
}

func fail(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("✖ "+msg))
}

func renderEntry(e api.Entry) string {
	box := boxUnchecked
	title := titleStyle.Render(e.Title)
	if e.Complete {
		box = boxChecked
		title = doneStyle.Render(e.Title)
	}

	line := fmt.Sprintf("%s %s %s", box, accentStyle.Render(fmt.Sprintf("#%d", e.ID)), title)
	if e.Notes != nil && *e.Notes != "" {
		line += " " + mutedStyle.Render("· "+*e.Notes)
	}
	if e.Deleted {
		line += " " + deletedStyle.Render("(deleted)")
	}
	return line
}

func renderList(w io.Writer, list api.EntryList) {
	if len(list.Entries) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no entries"))
	}
	lines := make([]string, len(list.Entries))
	for i, e := range list.Entries {
		lines[i] = renderEntry(e)
	}
	if len(lines) > 0 {
		fmt.Fprintln(w, strings.Join(lines, "\n"))
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("timestamp %.6f", list.Timestamp)))
}
