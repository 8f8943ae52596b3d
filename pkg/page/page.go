// Package page models a server-rendered lexicon listing as an HTML
// document and implements the DOM contract the filter controller relies
// on: filter inputs, sort controls, pagination links, the results region
// and its loader row.
package page

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"

	"github.com/japaniel/jambu/pkg/query"
)

const (
	// ActiveClass marks the sort control currently applied.
	ActiveClass = "arrow-active"
	// HiddenClass hides an element such as the loader row.
	HiddenClass = "hidden"
	// LoaderClass identifies the loading indicator row inside the results.
	LoaderClass = "loader-line"
	// PageNavSelector matches pagination controls.
	PageNavSelector = ".page-nav"
	// PageTokenAttr carries the target page token of a pagination control.
	PageTokenAttr = "data-page"
)

// ErrRegionMissing is returned when a document lacks a required region.
var ErrRegionMissing = errors.New("region missing from document")

// Region is a named part of the listing that a fragment refresh replaces.
type Region struct {
	Name     string
	Selector string
	matcher  cascadia.SelectorGroup
}

// NewRegion compiles selector for a region called name.
func NewRegion(name, selector string) (Region, error) {
	m, err := cascadia.ParseGroup(selector)
	if err != nil {
		return Region{}, fmt.Errorf("region %s: selector %q: %w", name, selector, err)
	}
	return Region{Name: name, Selector: selector, matcher: m}, nil
}

// MustRegion is NewRegion that panics on a bad selector.
func MustRegion(name, selector string) Region {
	r, err := NewRegion(name, selector)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegions are the results table, the "showing N of M" summary and
// the pagination controls.
func DefaultRegions() []Region {
	return []Region{
		MustRegion("results", ".results"),
		MustRegion("showing", ".showing"),
		MustRegion("page", ".page"),
	}
}

func (r Region) find(root *html.Node) *html.Node {
	if r.matcher == nil {
		return dom.QuerySelector(root, r.Selector)
	}
	return cascadia.Query(root, r.matcher)
}

// Document is a parsed listing page.
type Document struct {
	URL   *url.URL
	Root  *html.Node
	Title string
}

// Parse reads an HTML document served at u.
func Parse(r io.Reader, u *url.URL) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	d := &Document{URL: u, Root: root}
	if t := dom.QuerySelector(root, "title"); t != nil {
		d.Title = strings.TrimSpace(dom.TextContent(t))
	}
	return d, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string, u *url.URL) (*Document, error) {
	return Parse(strings.NewReader(s), u)
}

// HTML renders the whole document.
func (d *Document) HTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.Root); err != nil {
		return ""
	}
	return buf.String()
}

// Find returns the first element matching a CSS selector.
func (d *Document) Find(selector string) *html.Node {
	return dom.QuerySelector(d.Root, selector)
}

// Region returns the element of r in d, or nil.
func (d *Document) Region(r Region) *html.Node {
	return r.find(d.Root)
}

// Splice replaces the children of each region in d with the children of
// the same region in src. Nothing is modified unless every region exists
// in both documents.
func (d *Document) Splice(src *Document, regions []Region) error {
	type target struct{ dst, src *html.Node }
	targets := make([]target, 0, len(regions))
	for _, r := range regions {
		dst := d.Region(r)
		if dst == nil {
			return fmt.Errorf("current page: %s (%s): %w", r.Name, r.Selector, ErrRegionMissing)
		}
		s := src.Region(r)
		if s == nil {
			return fmt.Errorf("fetched page: %s (%s): %w", r.Name, r.Selector, ErrRegionMissing)
		}
		targets = append(targets, target{dst: dst, src: s})
	}
	for _, t := range targets {
		moveChildren(t.dst, t.src)
	}
	if src.Title != "" {
		d.Title = src.Title
	}
	d.URL = src.URL
	return nil
}

func moveChildren(dst, src *html.Node) {
	for c := dst.FirstChild; c != nil; {
		next := c.NextSibling
		dst.RemoveChild(c)
		c = next
	}
	for c := src.FirstChild; c != nil; {
		next := c.NextSibling
		src.RemoveChild(c)
		dst.AppendChild(c)
		c = next
	}
}

// Showing returns the text of the "showing N of M" summary.
func (d *Document) Showing() string {
	n := d.Find(".showing")
	if n == nil {
		return ""
	}
	return collapseSpace(dom.TextContent(n))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(dom.GetAttribute(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	cur := strings.TrimSpace(dom.GetAttribute(n, "class"))
	if cur == "" {
		dom.SetAttribute(n, "class", class)
		return
	}
	dom.SetAttribute(n, "class", cur+" "+class)
}

func removeClass(n *html.Node, class string) {
	fields := strings.Fields(dom.GetAttribute(n, "class"))
	kept := fields[:0]
	for _, c := range fields {
		if c != class {
			kept = append(kept, c)
		}
	}
	dom.SetAttribute(n, "class", strings.Join(kept, " "))
}

// fieldOf returns the field named by a class of n ending in suffix.
func fieldOf(n *html.Node, suffix string) (query.Field, bool) {
	for _, c := range strings.Fields(dom.GetAttribute(n, "class")) {
		name, ok := strings.CutSuffix(c, suffix)
		if !ok {
			continue
		}
		if f, err := query.ParseField(name); err == nil && string(f) == name {
			return f, true
		}
	}
	return "", false
}
