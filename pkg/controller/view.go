package controller

import (
	"net/url"

	"github.com/japaniel/jambu/pkg/page"
	"github.com/japaniel/jambu/pkg/query"
)

// Input is the render state of one bound filter input.
type Input struct {
	Field   query.Field
	Kind    page.InputKind
	Value   string
	Options []page.Option
	State   InputState
	Palette bool
}

// View is a consistent snapshot of everything a front-end draws.
type View struct {
	URL        *url.URL
	Title      string
	Showing    string
	Headers    []string
	Rows       [][]string
	Pages      []page.PageLink
	Inputs     []Input
	ActiveSort query.Sort
	// Sortable lists the bound fields that have sort controls.
	Sortable []query.Field
	Loading  bool
	Focused  query.Field
}

// View returns a snapshot of the current page. It is empty before Load.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return View{}
	}
	v := View{
		URL:     c.hist.Current(),
		Title:   c.doc.Title,
		Showing: c.doc.Showing(),
		Headers: c.doc.Headers(),
		Rows:    c.doc.Rows(),
		Pages:   c.doc.PageLinks(),
		Loading: c.loading,
		Focused: c.focused,
	}
	v.ActiveSort, _ = c.doc.ActiveSort()
	for _, f := range c.opts.Fields {
		if len(c.doc.SortControls(f, query.Asc)) > 0 || len(c.doc.SortControls(f, query.Desc)) > 0 {
			v.Sortable = append(v.Sortable, f)
		}
		kind := c.doc.InputKind(f)
		if kind == page.NoInput {
			continue
		}
		in := Input{
			Field:   f,
			Kind:    kind,
			Value:   c.doc.Value(f),
			State:   c.states[f],
			Palette: c.palette[f],
		}
		if kind == page.SelectInput {
			in.Options = c.doc.Options(f)
		}
		v.Inputs = append(v.Inputs, in)
	}
	return v
}

// Location returns the current URL.
func (c *Controller) Location() *url.URL {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hist == nil {
		s := *c.start
		return &s
	}
	return c.hist.Current()
}

// Query returns the query state of the current URL.
func (c *Controller) Query() *query.State {
	return query.FromURL(c.Location())
}

// Loading reports whether the loader is visible.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// InputState returns the commit state of the text input of f.
func (c *Controller) InputState(f query.Field) InputState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[f]
}

// Inspect runs fn with the current document while holding the controller
// lock. fn must not call back into the controller.
func (c *Controller) Inspect(fn func(doc *page.Document)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.doc)
}

// Input returns the input bound to f.
func (v View) Input(f query.Field) (Input, bool) {
	for _, in := range v.Inputs {
		if in.Field == f {
			return in, true
		}
	}
	return Input{}, false
}

// Page returns the pagination token of the current URL, or "" on the first
// page.
func (c *Controller) Page() string {
	return c.Query().Page()
}
