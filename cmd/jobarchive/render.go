package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/johndauphine/job-archive/internal/dialect"
	"github.com/johndauphine/job-archive/internal/jobstore"
)

var (
	colorPurple = lipgloss.Color("#7D56F4")
	colorGreen  = lipgloss.Color("#04B575")
	colorGray   = lipgloss.Color("#626262")

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	styleMonth = lipgloss.NewStyle().
			Foreground(colorGreen).
			PaddingLeft(2)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorGray).
			PaddingLeft(2)

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPurple).
			Padding(0, 1)
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderMonths prints one month per line; styled output is boxed for TTYs.
func renderMonths(kind dialect.Kind, months []dialect.YearMonth, styled bool) string {
	title := fmt.Sprintf("Archive partitions (%s)", kind)

	var lines []string
	for _, m := range months {
		lines = append(lines, m.String())
	}
	empty := "none"
	if kind != dialect.KindPostgres {
		empty = "none (archive tables are not partitioned on this backend)"
	}

	if !styled {
		if len(lines) == 0 {
			return title + ": " + empty + "\n"
		}
		return title + ":\n" + strings.Join(lines, "\n") + "\n"
	}

	body := []string{styleTitle.Render(title)}
	if len(lines) == 0 {
		body = append(body, styleMuted.Render(empty))
	}
	for _, l := range lines {
		body = append(body, styleMonth.Render(l))
	}
	return styleBox.Render(lipgloss.JoinVertical(lipgloss.Left, body...)) + "\n"
}

func renderCounts(outcome jobstore.Outcome, counts []jobstore.DayCount, styled bool) string {
	title := fmt.Sprintf("Archived %s jobs per day", outcome)

	var lines []string
	for _, c := range counts {
		lines = append(lines, fmt.Sprintf("%s  %d", c.Day, c.Jobs))
	}

	if !styled {
		if len(lines) == 0 {
			return title + ": none\n"
		}
		return title + ":\n" + strings.Join(lines, "\n") + "\n"
	}

	body := []string{styleTitle.Render(title)}
	if len(lines) == 0 {
		body = append(body, styleMuted.Render("none"))
	}
	for _, l := range lines {
		body = append(body, styleMonth.Render(l))
	}
	return styleBox.Render(lipgloss.JoinVertical(lipgloss.Left, body...)) + "\n"
}
