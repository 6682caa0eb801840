package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"

	"diary/internal/diary"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	headingStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Padding(0, 1).Reverse(true)
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// VisibleRows caps records to the first limit entries unless showMore is set.
func VisibleRows(records []diary.Record, showMore bool, limit int) []diary.Record {
	if showMore || limit <= 0 || len(records) <= limit {
		return records
	}
	return records[:limit]
}

// HasToggle reports whether a list of n entries gets a show-more control.
func HasToggle(n, limit int) bool {
	return limit > 0 && n > limit
}

func ToggleLabel(showMore bool) string {
	if showMore {
		return "Show Less"
	}
	return "Show More"
}

// Columns for one of the two tables. The pending table shows when a record
// was added, the completed one when it was finished.
func Columns(l diary.List) []string {
	if l == diary.ListCompleted {
		return []string{"Title", "Description", "Completed Date"}
	}
	return []string{"Title", "Description", "Added Date"}
}

// Row returns the cells shown for r in list l.
func Row(l diary.List, r diary.Record) []string {
	date := r.AddedDate
	if l == diary.ListCompleted {
		date = r.CompletedAt()
	}
	return []string{r.Title, oneLine(r.Description), date}
}

const (
	// borders plus one cell of padding either side of three columns
	tableChrome = 4 + 3*2
	dateWidth   = len("12/31/2006, 12:00:00 PM")
	minCell     = 8
)

// FitRow shortens the title and description cells of row so a table of
// such rows fits in width columns. A width of zero or less leaves row as is.
func FitRow(row []string, width int) []string {
	if width <= 0 || len(row) < 2 {
		return row
	}
	cell := (width - tableChrome - dateWidth) / 2
	if cell < minCell {
		cell = minCell
	}
	out := append([]string(nil), row...)
	out[0] = truncate.StringWithTail(out[0], uint(cell), "…")
	out[1] = truncate.StringWithTail(out[1], uint(cell), "…")
	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func renderTable(l diary.List, rows []diary.Record, selected int, focused bool, width int) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(Columns(l)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case focused && row == selected:
				return selectedStyle
			default:
				return cellStyle
			}
		})
	for _, r := range rows {
		t.Row(FitRow(Row(l, r), width)...)
	}
	return t.Render()
}

func Heading(l diary.List) string {
	if l == diary.ListCompleted {
		return "Completed Tasks"
	}
	return "Pending Tasks"
}

// renderSection draws one heading, table and optional toggle line.
func renderSection(l diary.List, snap diary.Snapshot, limit, cursor int, focused bool, showMoreKey string, width int) string {
	var b strings.Builder
	heading := Heading(l)
	if focused {
		heading = "> " + heading
	}
	b.WriteString(headingStyle.Render(heading))
	b.WriteString("\n")

	all := snap.List(l)
	if len(all) == 0 {
		b.WriteString(mutedStyle.Render("(none)"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(renderTable(l, VisibleRows(all, snap.ShowMore(l), limit), cursor, focused, width))
	b.WriteString("\n")
	if HasToggle(len(all), limit) {
		b.WriteString(mutedStyle.Render("[" + showMoreKey + "] " + ToggleLabel(snap.ShowMore(l))))
		b.WriteString("\n")
	}
	return b.String()
}

// detailLine describes the selected record with humanized ages.
func detailLine(l diary.List, r diary.Record, now time.Time) string {
	parts := []string{"#" + formatID(r.ID), r.Title}
	if added, err := diary.ParseTimestamp(r.AddedDate); err == nil {
		parts = append(parts, "added "+humanize.RelTime(added, now, "ago", "from now"))
	} else if r.AddedDate != "" {
		parts = append(parts, "added "+r.AddedDate)
	}
	if l == diary.ListCompleted {
		if done, err := diary.ParseTimestamp(r.CompletedAt()); err == nil {
			parts = append(parts, "completed "+humanize.RelTime(done, now, "ago", "from now"))
		} else {
			parts = append(parts, "completed "+r.CompletedAt())
		}
	}
	if d := strings.TrimSpace(r.Description); d != "" {
		parts = append(parts, oneLine(d))
	}
	return strings.Join(parts, " • ")
}
