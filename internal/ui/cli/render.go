package cli

import (
	"fmt"
	"strings"
	"time"

	"esmigrate/internal/core/app"
	"esmigrate/internal/data/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171"))

	fileStyle = lipgloss.NewStyle().
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

func renderSummary(report *app.Report) string {
	var b strings.Builder
	title := "Conversion finished"
	if report.DryRun {
		title = "Dry run finished"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", successStyle.Render("converted:"), humanize.Comma(int64(report.Count(app.StatusConverted))))
	fmt.Fprintf(&b, "%s %s\n", warnStyle.Render("skipped:"), humanize.Comma(int64(report.Count(app.StatusSkipped))))
	fmt.Fprintf(&b, "merged files: %s\n", humanize.Comma(int64(report.MergedFiles())))
	if failed := report.Count(app.StatusFailed); failed > 0 {
		fmt.Fprintf(&b, "%s %d\n", errorStyle.Render("failed:"), failed)
	}
	if n := len(report.Cycles); n > 0 {
		fmt.Fprintf(&b, "%s %d\n", warnStyle.Render("residual cycles:"), n)
	}
	fmt.Fprintf(&b, "took %s", report.Duration.Round(time.Millisecond))
	if report.RunID != "" {
		fmt.Fprintf(&b, "\nrun %s", report.RunID)
	}
	return boxStyle.Render(b.String())
}

// renderDiff prints a line diff of one pending change.
func renderDiff(change store.Change) string {
	var b strings.Builder
	b.WriteString(fileStyle.Render(fmt.Sprintf("%s %s", change.Kind, change.Path)))
	b.WriteString("\n")
	if change.Kind == store.ChangeRemove {
		fmt.Fprintf(&b, "%s\n", errorStyle.Render(fmt.Sprintf("- %d lines (%s)",
			strings.Count(change.Before, "\n"), humanize.Bytes(uint64(len(change.Before))))))
		return b.String()
	}

	dmp := diffmatchpatch.New()
	before, after, lines := dmp.DiffLinesToChars(change.Before, change.After)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(before, after, false), lines)
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				b.WriteString(successStyle.Render("+ " + line))
			case diffmatchpatch.DiffDelete:
				b.WriteString(errorStyle.Render("- " + line))
			case diffmatchpatch.DiffEqual:
				continue
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
