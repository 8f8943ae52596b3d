package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/japaniel/jambu/pkg/controller"
	"github.com/japaniel/jambu/pkg/page"
	"github.com/japaniel/jambu/pkg/query"
)

// Styles groups the lipgloss styles of the browser.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Focused  lipgloss.Style
	Palette  lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Cursor   lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Spinner  lipgloss.Style
	Selected lipgloss.Style
}

// DefaultStyles returns the built-in theme.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Label:    lipgloss.NewStyle().Width(18).Foreground(lipgloss.Color("245")),
		Focused:  lipgloss.NewStyle().Width(18).Bold(true).Foreground(lipgloss.Color("213")),
		Palette:  lipgloss.NewStyle().Foreground(lipgloss.Color("111")).PaddingLeft(18),
		Header:   lipgloss.NewStyle().Bold(true).PaddingRight(2),
		Cell:     lipgloss.NewStyle().PaddingRight(2),
		Cursor:   lipgloss.NewStyle().Underline(true),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Spinner:  lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		Selected: lipgloss.NewStyle().Reverse(true),
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	title := m.view.Title
	if title == "" {
		title = "jambu"
	}
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n\n")

	b.WriteString(m.filtersView())
	b.WriteString("\n")

	if m.view.Loading {
		b.WriteString(m.spinner.View() + " loading\n")
	}
	if m.view.Showing != "" {
		b.WriteString(m.styles.Muted.Render(m.view.Showing) + "\n")
	}
	b.WriteString(m.tableView())
	b.WriteString("\n")
	b.WriteString(m.pagesView())
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(m.styles.Error.Render(m.status) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) filtersView() string {
	var b strings.Builder
	for _, in := range m.view.Inputs {
		label := m.styles.Label
		if m.Focused() == in.Field {
			label = m.styles.Focused
		}
		b.WriteString(label.Render(in.Field.Label()))
		switch in.Kind {
		case page.TextInput:
			if i := m.inputIndex(in.Field); i >= 0 {
				b.WriteString(m.inputs[i].View())
			} else {
				b.WriteString(in.Value)
			}
			if in.Palette {
				b.WriteString("\n" + m.paletteView())
			}
		case page.SelectInput:
			b.WriteString(selectView(in))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func selectView(in controller.Input) string {
	for _, o := range in.Options {
		if o.Value == in.Value {
			if o.Label == "" {
				return "(any)"
			}
			return o.Label
		}
	}
	return "(any)"
}

func (m Model) paletteView() string {
	chars := m.ctl.Palette()
	parts := make([]string, 0, len(chars))
	for i, ch := range chars {
		if i >= 9 {
			break
		}
		parts = append(parts, fmt.Sprintf("%d:%s", i+1, ch))
	}
	return m.styles.Palette.Render(strings.Join(parts, "  "))
}

func sortMarker(active query.Sort, f query.Field) string {
	if active.Field != f {
		return ""
	}
	if active.Dir == query.Asc {
		return " ▲"
	}
	return " ▼"
}

func (m Model) tableView() string {
	v := m.view
	headers := make([]string, len(v.Headers))
	copy(headers, v.Headers)
	for i, f := range v.Sortable {
		for j, h := range headers {
			if h != f.Label() {
				continue
			}
			headers[j] = h + sortMarker(v.ActiveSort, f)
			if i == m.sortCol && m.focus < 0 {
				headers[j] = m.styles.Cursor.Render(headers[j])
			}
		}
	}

	cols := len(headers)
	for _, r := range v.Rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	widths := make([]int, cols)
	measure := func(i int, s string) {
		if w := lipgloss.Width(s); w > widths[i] {
			widths[i] = w
		}
	}
	for i, h := range headers {
		measure(i, h)
	}
	for _, r := range v.Rows {
		for i, c := range r {
			measure(i, c)
		}
	}

	var lines []string
	if len(headers) > 0 {
		lines = append(lines, m.row(headers, widths, m.styles.Header))
	}
	for _, r := range v.Rows {
		lines = append(lines, m.row(r, widths, m.styles.Cell))
	}
	if len(v.Rows) == 0 {
		lines = append(lines, m.styles.Muted.Render("no entries"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) row(cells []string, widths []int, style lipgloss.Style) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = style.Width(widths[i] + style.GetPaddingRight()).Render(c)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m Model) pagesView() string {
	parts := make([]string, 0, len(m.view.Pages))
	for i, p := range m.view.Pages {
		s := p.Label
		if i == m.pageIdx && m.focus < 0 {
			s = m.styles.Selected.Render(s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
