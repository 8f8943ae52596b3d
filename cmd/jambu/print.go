package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/japaniel/jambu/pkg/controller"
	"github.com/japaniel/jambu/pkg/history"
	"github.com/japaniel/jambu/pkg/query"
)

var (
	bold  = color.New(color.Bold)
	faint = color.New(color.Faint)
)

func printView(w io.Writer, v controller.View) {
	if v.Title != "" {
		bold.Fprintln(w, v.Title)
	}
	if v.URL != nil {
		faint.Fprintln(w, v.URL.String())
	}
	if v.Showing != "" {
		fmt.Fprintln(w, v.Showing)
	}
	fmt.Fprintln(w)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	tbl.Wrap = true
	if len(v.Headers) > 0 {
		tbl.AddRow(cells(headerLabels(v), bold.Sprint)...)
	}
	for _, r := range v.Rows {
		tbl.AddRow(cells(r, nil)...)
	}
	fmt.Fprintln(w, tbl)

	if len(v.Pages) > 0 {
		labels := make([]string, len(v.Pages))
		for i, p := range v.Pages {
			labels[i] = fmt.Sprintf("%s[%s]", p.Label, p.Token)
		}
		fmt.Fprintln(w)
		faint.Fprintln(w, "pages: "+strings.Join(labels, " "))
	}
}

// headerLabels marks the active sort column.
func headerLabels(v controller.View) []string {
	out := make([]string, len(v.Headers))
	copy(out, v.Headers)
	if v.ActiveSort.IsZero() {
		return out
	}
	for i, h := range out {
		if h == v.ActiveSort.Field.Label() {
			if v.ActiveSort.Dir == query.Asc {
				out[i] = h + " ▲"
			} else {
				out[i] = h + " ▼"
			}
		}
	}
	return out
}

func cells(in []string, style func(a ...interface{}) string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		if style != nil {
			out[i] = style(s)
		} else {
			out[i] = s
		}
	}
	return out
}

func printVisits(w io.Writer, visits []history.Visit) {
	if len(visits) == 0 {
		faint.Fprintln(w, "no visits recorded")
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(bold.Sprint("Last visited"), bold.Sprint("Count"), bold.Sprint("Title"), bold.Sprint("Query"))
	for _, v := range visits {
		q := v.Query
		if q == "" {
			q = "-"
		}
		tbl.AddRow(v.LastVisitedAt.Local().Format("2006-01-02 15:04"), v.VisitCount, v.Title, q)
	}
	fmt.Fprintln(w, tbl)
}
