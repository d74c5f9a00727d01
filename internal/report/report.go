// Package report renders analysis and index results for the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"scorekit/internal/corpus"
	"scorekit/internal/score"
	"scorekit/internal/voiceleading"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	rowStyle     = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
)

// Table renders static rows with aligned columns.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// AddRow appends one row.
func (t *Table) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// View renders the table.
func (t *Table) View() string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(titleStyle.Render(t.Title))
		sb.WriteString("\n")
	}

	colWidths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(colWidths) {
				if w := lipgloss.Width(cell); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
	}
	for i := range colWidths {
		colWidths[i] += 2
	}

	for i, h := range t.Headers {
		sb.WriteString(headerStyle.Width(colWidths[i]).Render(h))
		if i < len(t.Headers)-1 {
			sb.WriteString(mutedStyle.Render("|"))
		}
	}
	sb.WriteString("\n")

	totalWidth := len(t.Headers) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(mutedStyle.Render(strings.Repeat("-", totalWidth)) + "\n")

	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(colWidths) {
				sb.WriteString(rowStyle.Width(colWidths[i]).Render(cell))
				if i < len(row)-1 {
					sb.WriteString(mutedStyle.Render("|"))
				}
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// Violations renders voice-leading check results.
func Violations(title string, violations []voiceleading.Violation) string {
	if len(violations) == 0 {
		return successStyle.Render("No voice-leading violations found.") + "\n"
	}

	t := &Table{
		Title:   title,
		Headers: []string{"Measure", "Rule", "Voices", "Detail"},
	}
	for _, v := range violations {
		t.AddRow(
			fmt.Sprintf("%d", v.Measure),
			v.Rule,
			strings.Join(v.Voices, ", "),
			v.Message,
		)
	}
	return t.View() + warnStyle.Render(fmt.Sprintf("%d violation(s)", len(violations))) + "\n"
}

// Problems renders structural validation results.
func Problems(problems []score.Problem) string {
	if len(problems) == 0 {
		return successStyle.Render("Score is well formed.") + "\n"
	}

	t := &Table{
		Title:   "Structural problems",
		Headers: []string{"Part", "Measure", "Problem"},
	}
	for _, p := range problems {
		t.AddRow(p.PartName, fmt.Sprintf("%d", p.Measure), p.Message)
	}
	return t.View() + errorStyle.Render(fmt.Sprintf("%d problem(s)", len(problems))) + "\n"
}

// SearchResults renders index search hits.
func SearchResults(results []*corpus.Metadata) string {
	if len(results) == 0 {
		return mutedStyle.Render("No matching scores.") + "\n"
	}

	t := &Table{
		Headers: []string{"Composer", "Title", "Key", "Time", "Parts", "Measures", "Path"},
	}
	for _, md := range results {
		t.AddRow(
			md.Composer,
			md.Title,
			md.KeySig,
			md.TimeSig,
			fmt.Sprintf("%d", md.Parts),
			fmt.Sprintf("%d", md.Measures),
			md.Path,
		)
	}
	return t.View()
}

// BuildReport renders the outcome of a corpus build.
func BuildReport(r *corpus.Report) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Corpus build "+r.ID) + "\n")
	sb.WriteString(fmt.Sprintf("  Root:     %s\n", r.Root))
	sb.WriteString(fmt.Sprintf("  Scanned:  %d\n", r.Scanned))
	sb.WriteString(fmt.Sprintf("  Indexed:  %d\n", r.Indexed))
	sb.WriteString(fmt.Sprintf("  Skipped:  %d\n", r.Skipped))
	if r.Failed > 0 {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("  Failed:   %d", r.Failed)) + "\n")
	}
	if r.Removed > 0 {
		sb.WriteString(fmt.Sprintf("  Removed:  %d\n", r.Removed))
	}
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Took %v", r.Duration)) + "\n")
	return sb.String()
}

// IndexStats renders index-wide counts.
func IndexStats(st *corpus.Stats) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Index statistics") + "\n")
	sb.WriteString(fmt.Sprintf("  Scores:    %d\n", st.Scores))
	sb.WriteString(fmt.Sprintf("  Composers: %d\n", st.Composers))
	sb.WriteString(fmt.Sprintf("  Notes:     %d\n", st.Notes))
	if st.Errors > 0 {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("  Errors:    %d", st.Errors)) + "\n")
	}

	formats := make([]string, 0, len(st.ByFormat))
	for f := range st.ByFormat {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	for _, f := range formats {
		sb.WriteString(fmt.Sprintf("  %-9s  %d\n", f+":", st.ByFormat[f]))
	}
	return sb.String()
}
