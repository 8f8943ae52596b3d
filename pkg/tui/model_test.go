package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/japaniel/jambu/pkg/controller"
	"github.com/japaniel/jambu/pkg/page"
	"github.com/japaniel/jambu/pkg/query"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type listingServer struct{}

func (listingServer) Fetch(_ context.Context, u *url.URL) (*page.Document, error) {
	q := u.Query()
	var b strings.Builder
	b.WriteString(`<html><head><title>Entries</title></head><body>`)
	b.WriteString(`<select class="lang-filter"><option value="">any</option>`)
	for _, l := range []string{"Pa", "Hi"} {
		sel := ""
		if q.Get("lang") == l {
			sel = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, l, sel, l)
	}
	b.WriteString(`</select>`)
	fmt.Fprintf(&b, `<input class="gloss-filter" value="%s">`, q.Get("gloss"))
	fmt.Fprintf(&b, `<input class="word-filter" value="%s">`, q.Get("word"))
	b.WriteString(`<table><thead><tr>`)
	for _, f := range []query.Field{query.Lang, query.Word} {
		fmt.Fprintf(&b, `<th>%s<span class="%s"></span><span class="%s"></span></th>`,
			f.Label(), f.SortClass(query.Asc), f.SortClass(query.Desc))
	}
	b.WriteString(`</tr></thead><tbody class="results">`)
	fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td></tr>`, q.Get("lang"), q.Get("word")+q.Get("gloss"))
	b.WriteString(`</tbody></table>`)
	fmt.Fprintf(&b, `<p class="showing">Showing page %s</p>`, q.Get("page"))
	b.WriteString(`<nav class="page"><a class="page-nav" data-page="1">1</a><a class="page-nav" data-page="2">2</a></nav>`)
	b.WriteString(`</body></html>`)
	return page.ParseString(b.String(), u)
}

func newModel(t *testing.T) (Model, *controller.Controller) {
	t.Helper()
	u, err := url.Parse("http://lexicon.test/entries")
	require.NoError(t, err)
	ctl := controller.New(listingServer{}, u, controller.Options{
		QuietPeriod:      50 * time.Millisecond,
		PaletteHideDelay: 10 * time.Millisecond,
	})
	t.Cleanup(ctl.Close)
	require.NoError(t, ctl.Load(context.Background()))
	return New(ctl, nil), ctl
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// settle feeds controller events into m until a refresh has been applied.
func settle(t *testing.T, m Model, ctl *controller.Controller) Model {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ctl.Events():
			next, _ := m.Update(eventMsg(ev))
			m = next.(Model)
			if ev.Kind == controller.EventRefreshed {
				return m
			}
		case <-deadline:
			t.Fatal("no refresh")
		}
	}
}

func TestNewBindsTextInputs(t *testing.T) {
	m, _ := newModel(t)
	assert.Equal(t, []query.Field{query.Gloss, query.Word}, m.fields)
	assert.Equal(t, query.Field(""), m.Focused())
	assert.Equal(t, []query.Field{query.Lang, query.Word}, m.view.Sortable)
}

func TestTypingCommitsAfterQuietPeriod(t *testing.T) {
	m, ctl := newModel(t)
	m = settle(t, m, ctl)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, query.Gloss, m.Focused())
	assert.Equal(t, query.Gloss, ctl.Focused())
	assert.True(t, ctl.PaletteVisible(query.Gloss))

	m, _ = press(t, m, runes("f"))
	m, _ = press(t, m, runes("q"))
	assert.Equal(t, "fq", m.InputValue(query.Gloss), "q is text while editing")
	assert.Equal(t, controller.Editing, ctl.InputState(query.Gloss))

	m = settle(t, m, ctl)
	assert.Equal(t, "gloss=fq", ctl.Location().RawQuery)
	assert.Equal(t, "fq", m.InputValue(query.Gloss))
}

func TestPaletteKeyInsertsCharacter(t *testing.T) {
	m, ctl := newModel(t)
	m = settle(t, m, ctl)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, query.Word, m.Focused())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1"), Alt: true})
	assert.Equal(t, "ṭ", m.InputValue(query.Word))
	assert.Equal(t, "ṭ", query.FromURL(ctl.Location()).Filter(query.Word))
	assert.Contains(t, m.View(), "1:ṭ")

	m = settle(t, m, ctl)
	assert.Equal(t, "ṭ", m.InputValue(query.Word))
}

func TestEnterCommitsImmediately(t *testing.T) {
	m, ctl := newModel(t)
	m = settle(t, m, ctl)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, runes("x"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "gloss=x", ctl.Location().RawQuery)
	assert.Equal(t, controller.Committed, ctl.InputState(query.Gloss))
	settle(t, m, ctl)
}

func TestResultsPaneKeys(t *testing.T) {
	m, ctl := newModel(t)
	m = settle(t, m, ctl)

	m, _ = press(t, m, runes("l"))
	m, _ = press(t, m, runes("d"))
	assert.Equal(t, "sort=desc-word", ctl.Location().RawQuery)
	m = settle(t, m, ctl)
	assert.Equal(t, query.Sort{Field: query.Word, Dir: query.Desc}, m.view.ActiveSort)
	assert.Contains(t, m.View(), "▼")

	m, _ = press(t, m, runes("n"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "sort=desc-word&page=2", ctl.Location().RawQuery)
	m = settle(t, m, ctl)
	assert.Contains(t, m.View(), "Showing page 2")

	m, _ = press(t, m, runes("o"))
	assert.Equal(t, "sort=desc-word&lang=Pa", ctl.Location().RawQuery)
	m = settle(t, m, ctl)

	m, _ = press(t, m, runes("b"))
	m = settle(t, m, ctl)
	assert.Equal(t, "sort=desc-word&page=2", ctl.Location().RawQuery)

	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestEscLeavesInput(t *testing.T) {
	m, ctl := newModel(t)
	m = settle(t, m, ctl)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, query.Field(""), m.Focused())
	assert.Equal(t, query.Field(""), ctl.Focused())
	assert.Eventually(t, func() bool { return !ctl.PaletteVisible(query.Gloss) },
		time.Second, 5*time.Millisecond)
}

func TestClosedControllerQuits(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(closedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
