package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"diary/internal/diary"
	"diary/internal/ui"
)

// idColumn is the width the ID column and its separator take up.
const idColumn = len("1792399103102") + 3

// terminalWidth is the width of w when it is a terminal, and 0 otherwise.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func renderLists(w io.Writer, snap diary.Snapshot, limit, width int) {
	for i, l := range []diary.List{diary.ListPending, diary.ListCompleted} {
		if i > 0 {
			fmt.Fprintln(w)
		}
		renderList(w, l, snap, limit, width)
	}
}

func renderList(w io.Writer, l diary.List, snap diary.Snapshot, limit, width int) {
	all := snap.List(l)
	showMore := snap.ShowMore(l)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(ui.Heading(l))
	tw.Style().Format.Footer = text.FormatDefault

	header := table.Row{"ID"}
	for _, c := range ui.Columns(l) {
		header = append(header, c)
	}
	tw.AppendHeader(header)

	for _, r := range ui.VisibleRows(all, showMore, limit) {
		row := table.Row{r.ID}
		for _, cell := range ui.FitRow(ui.Row(l, r), cellWidth(width)) {
			row = append(row, cell)
		}
		tw.AppendRow(row)
	}
	if ui.HasToggle(len(all), limit) {
		flag := "--all-" + string(l)
		if showMore {
			tw.AppendFooter(table.Row{"", ui.ToggleLabel(true) + ": drop " + flag})
		} else {
			tw.AppendFooter(table.Row{"", fmt.Sprintf("%s (%d more): %s", ui.ToggleLabel(false), len(all)-limit, flag)})
		}
	}
	tw.Render()
}

func cellWidth(width int) int {
	if width <= 0 {
		return 0
	}
	return max(width-idColumn, 1)
}
