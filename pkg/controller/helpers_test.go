package controller

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/japaniel/jambu/pkg/page"
	"github.com/japaniel/jambu/pkg/query"
)

// renderListing plays the part of the server: it renders a listing whose
// rows, summary and controls reflect the query of u.
func renderListing(u *url.URL) string {
	q := u.Query()
	var b strings.Builder
	b.WriteString("<html><head><title>Entries</title></head><body><form>")
	b.WriteString(`<select class="lang-filter">`)
	for _, opt := range []string{"", "Pa", "Hi"} {
		sel := ""
		if q.Get("lang") == opt {
			sel = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, opt, sel, opt)
	}
	b.WriteString(`</select>`)
	for _, f := range []query.Field{query.Word, query.Gloss, query.Origin} {
		fmt.Fprintf(&b, `<input class="%s" value="%s">`, f.FilterClass(), html.EscapeString(q.Get(f.Param())))
	}
	b.WriteString("</form>")

	active, _ := query.ParseSort(q.Get("sort"))
	b.WriteString("<table><thead><tr>")
	for _, f := range []query.Field{query.Lang, query.Word, query.Gloss, query.Origin, query.OriginLang} {
		fmt.Fprintf(&b, "<th>%s", f.Label())
		for _, dir := range []query.Direction{query.Asc, query.Desc} {
			cls := f.SortClass(dir)
			if active == (query.Sort{Field: f, Dir: dir}) {
				cls += " " + page.ActiveClass
			}
			fmt.Fprintf(&b, `<span class="%s"></span>`, cls)
		}
		b.WriteString("</th>")
	}
	b.WriteString(`</tr></thead><tbody class="results">`)
	fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
		html.EscapeString(q.Get("lang")), html.EscapeString(q.Get("word")),
		html.EscapeString(q.Get("gloss")), html.EscapeString(q.Get("page")))
	b.WriteString("</tbody></table>")
	fmt.Fprintf(&b, `<p class="showing">Showing page %s</p>`, html.EscapeString(q.Get("page")))
	b.WriteString(`<nav class="page"><a class="page-nav" data-page="1">1</a><a class="page-nav" data-page="2">2</a><a class="page-nav" data-page="3">3</a></nav>`)
	b.WriteString("</body></html>")
	return b.String()
}

var errOffline = errors.New("offline")

// fakeFetcher serves renderListing documents and records every request.
type fakeFetcher struct {
	mu       sync.Mutex
	requests []string
	// gates blocks the request for a raw query until the channel closes.
	gates map[string]chan struct{}
	fail  bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{gates: make(map[string]chan struct{})}
}

func (f *fakeFetcher) Fetch(ctx context.Context, u *url.URL) (*page.Document, error) {
	f.mu.Lock()
	f.requests = append(f.requests, u.RawQuery)
	gate := f.gates[u.RawQuery]
	fail := f.fail
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errOffline
	}
	return page.ParseString(renderListing(u), u)
}

func (f *fakeFetcher) hold(rawQuery string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[rawQuery] = ch
	return ch
}

func (f *fakeFetcher) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *fakeFetcher) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

// newLoaded returns a loaded controller over a fake server.
func newLoaded(t *testing.T, rawURL string, opts Options) (*Controller, *fakeFetcher) {
	t.Helper()
	ff := newFakeFetcher()
	if opts.QuietPeriod == 0 {
		opts.QuietPeriod = 30 * time.Millisecond
	}
	if opts.PaletteHideDelay == 0 {
		opts.PaletteHideDelay = 30 * time.Millisecond
	}
	c := New(ff, mustURL(t, rawURL), opts)
	t.Cleanup(c.Close)
	require.NoError(t, c.Load(context.Background()))
	waitFor(t, c, EventRefreshed)
	return c, ff
}

// waitFor drains events until one of kind arrives.
func waitFor(t *testing.T, c *Controller, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				t.Fatalf("events closed while waiting for %s", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func inputValue(t *testing.T, c *Controller, f query.Field) string {
	t.Helper()
	in, ok := c.View().Input(f)
	require.True(t, ok, "no input for %s", f)
	return in.Value
}
