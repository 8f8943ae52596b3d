// Package tui is a terminal front-end for the filter controller: one text
// input per filter, the diacritic palette, the results table and the
// pagination links.
package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/japaniel/jambu/pkg/controller"
	"github.com/japaniel/jambu/pkg/page"
	"github.com/japaniel/jambu/pkg/query"
)

// eventMsg carries one controller event into the update loop.
type eventMsg controller.Event

// closedMsg reports that the controller stopped delivering events.
type closedMsg struct{}

// Model is the bubbletea model of the browser.
type Model struct {
	ctl    *controller.Controller
	log    *zap.Logger
	keys   KeyMap
	help   help.Model
	styles Styles

	fields  []query.Field
	inputs  []textinput.Model
	focus   int
	spinner spinner.Model

	view    controller.View
	sortCol int
	pageIdx int
	status  string
	width   int
}

// New builds a model over a loaded controller. A nil logger is silent.
func New(ctl *controller.Controller, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctl:     ctl,
		log:     log,
		keys:    DefaultKeyMap,
		help:    help.New(),
		styles:  DefaultStyles(),
		focus:   -1,
		spinner: sp,
	}
	m.spinner.Style = m.styles.Spinner
	m.view = ctl.View()
	for _, in := range m.view.Inputs {
		if in.Kind != page.TextInput {
			continue
		}
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.Width = 24
		ti.Placeholder = in.Field.Label()
		ti.SetValue(in.Value)
		m.fields = append(m.fields, in.Field)
		m.inputs = append(m.inputs, ti)
	}
	m.keys.editing(false)
	return m
}

// waitEvent blocks on the next controller event.
func waitEvent(ch <-chan controller.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitEvent(m.ctl.Events()))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		ev := controller.Event(msg)
		switch ev.Kind {
		case controller.EventFailed:
			m.log.Debug("refresh failed", zap.Uint64("seq", ev.Seq), zap.Error(ev.Err))
		case controller.EventRefreshed:
			m.status = ""
		}
		m.refresh()
		return m, waitEvent(m.ctl.Events())

	case closedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refresh takes a new snapshot and copies server-side values into inputs
// the user is not editing.
func (m *Model) refresh() {
	m.view = m.ctl.View()
	for i, f := range m.fields {
		in, ok := m.view.Input(f)
		if !ok || in.State == controller.Editing {
			continue
		}
		if m.inputs[i].Value() != in.Value {
			m.inputs[i].SetValue(in.Value)
		}
	}
	if m.sortCol >= len(m.view.Sortable) {
		m.sortCol = 0
	}
	if m.pageIdx >= len(m.view.Pages) {
		m.pageIdx = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextInput):
		return m.moveFocus(1)
	case key.Matches(msg, m.keys.PrevInput):
		return m.moveFocus(-1)
	}
	if m.focus >= 0 {
		return m.handleInputKey(msg)
	}

	var err error
	switch {
	case key.Matches(msg, m.keys.SortLeft):
		if n := len(m.view.Sortable); n > 0 {
			m.sortCol = (m.sortCol + n - 1) % n
		}
	case key.Matches(msg, m.keys.SortRight):
		if n := len(m.view.Sortable); n > 0 {
			m.sortCol = (m.sortCol + 1) % n
		}
	case key.Matches(msg, m.keys.SortAsc):
		err = m.toggleSort(query.Asc)
	case key.Matches(msg, m.keys.SortDesc):
		err = m.toggleSort(query.Desc)
	case key.Matches(msg, m.keys.PagePrev):
		if n := len(m.view.Pages); n > 0 {
			m.pageIdx = (m.pageIdx + n - 1) % n
		}
	case key.Matches(msg, m.keys.PageNext):
		if n := len(m.view.Pages); n > 0 {
			m.pageIdx = (m.pageIdx + 1) % n
		}
	case key.Matches(msg, m.keys.PageOpen):
		if m.pageIdx < len(m.view.Pages) {
			_, err = m.ctl.OnPageChange(m.view.Pages[m.pageIdx].Token)
		}
	case key.Matches(msg, m.keys.CycleSelect):
		err = m.cycleSelect()
	case key.Matches(msg, m.keys.Back):
		_, err = m.ctl.Back()
	case key.Matches(msg, m.keys.Forward):
		_, err = m.ctl.Forward()
	}
	m.setErr(err)
	m.view = m.ctl.View()
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.fields[m.focus]
	switch {
	case key.Matches(msg, m.keys.Commit):
		_, err := m.ctl.OnFieldCommit(f)
		m.setErr(err)
		m.view = m.ctl.View()
		return m, nil
	case key.Matches(msg, m.keys.Leave):
		return m.setFocus(-1)
	case key.Matches(msg, m.keys.Palette):
		return m.pick(msg)
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if v := m.inputs[m.focus].Value(); v != before {
		m.setErr(m.ctl.OnFieldEdit(f, v))
		m.view = m.ctl.View()
	}
	return m, cmd
}

// pick inserts the palette character bound to an alt+digit key.
func (m Model) pick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	n, err := strconv.Atoi(k[len(k)-1:])
	palette := m.ctl.Palette()
	if err != nil || n < 1 || n > len(palette) {
		return m, nil
	}
	f := m.fields[m.focus]
	if _, err := m.ctl.PickChar(f, palette[n-1]); err != nil {
		m.setErr(err)
		return m, nil
	}
	m.view = m.ctl.View()
	if in, ok := m.view.Input(f); ok {
		m.inputs[m.focus].SetValue(in.Value)
		m.inputs[m.focus].CursorEnd()
	}
	return m, nil
}

func (m Model) moveFocus(delta int) (tea.Model, tea.Cmd) {
	n := len(m.inputs)
	if n == 0 {
		return m, nil
	}
	next := m.focus + delta
	switch {
	case m.focus < 0 && delta < 0:
		next = n - 1
	case next >= n, next < 0:
		next = -1
	}
	return m.setFocus(next)
}

// setFocus moves focus to input i, or to the results pane when i is -1.
func (m Model) setFocus(i int) (tea.Model, tea.Cmd) {
	if m.focus >= 0 {
		m.inputs[m.focus].Blur()
		_, err := m.ctl.Blur(m.fields[m.focus])
		m.setErr(err)
	}
	m.focus = i
	m.keys.editing(i >= 0)
	var cmd tea.Cmd
	if i >= 0 {
		cmd = m.inputs[i].Focus()
		m.setErr(m.ctl.Focus(m.fields[i]))
	}
	m.view = m.ctl.View()
	return m, cmd
}

func (m *Model) toggleSort(dir query.Direction) error {
	if m.sortCol >= len(m.view.Sortable) {
		return nil
	}
	_, err := m.ctl.OnSortToggle(m.view.Sortable[m.sortCol], dir)
	return err
}

// cycleSelect advances the first select filter to its next option.
func (m *Model) cycleSelect() error {
	for _, in := range m.view.Inputs {
		if in.Kind != page.SelectInput || len(in.Options) == 0 {
			continue
		}
		next := 0
		for i, o := range in.Options {
			if o.Value == in.Value {
				next = (i + 1) % len(in.Options)
				break
			}
		}
		_, err := m.ctl.OnSelectChange(in.Field, in.Options[next].Value)
		return err
	}
	return nil
}

func (m *Model) setErr(err error) {
	if err == nil {
		return
	}
	m.log.Warn("tui action", zap.Error(err))
	m.status = err.Error()
}

// Focused returns the field being edited, or "" when the results pane has
// focus.
func (m Model) Focused() query.Field {
	if m.focus < 0 {
		return ""
	}
	return m.fields[m.focus]
}

func (m Model) inputIndex(f query.Field) int {
	for i, g := range m.fields {
		if g == f {
			return i
		}
	}
	return -1
}

// InputValue returns what the text input of f shows.
func (m Model) InputValue(f query.Field) string {
	if i := m.inputIndex(f); i >= 0 {
		return m.inputs[i].Value()
	}
	return ""
}
