package page

import (
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/japaniel/jambu/pkg/query"
)

// InputKind distinguishes free-text inputs from selects.
type InputKind int

const (
	NoInput InputKind = iota
	TextInput
	SelectInput
)

// Option is one choice of a select filter.
type Option struct {
	Value string
	Label string
}

// InputKind reports how field f is rendered on the page.
func (d *Document) InputKind(f query.Field) InputKind {
	if d.Find("input."+f.FilterClass()) != nil {
		return TextInput
	}
	if d.Find("select."+f.FilterClass()) != nil {
		return SelectInput
	}
	return NoInput
}

// Fields returns the fields among candidates that have an input of kind
// on the page, in the order given.
func (d *Document) Fields(candidates []query.Field, kind InputKind) []query.Field {
	var out []query.Field
	for _, f := range candidates {
		if d.InputKind(f) == kind {
			out = append(out, f)
		}
	}
	return out
}

// Value returns the current value of the input or select bound to f.
func (d *Document) Value(f query.Field) string {
	if n := d.Find("input." + f.FilterClass()); n != nil {
		return dom.GetAttribute(n, "value")
	}
	if n := d.Find("select." + f.FilterClass()); n != nil {
		opts := dom.QuerySelectorAll(n, "option")
		for _, o := range opts {
			if dom.HasAttribute(o, "selected") {
				return optionValue(o)
			}
		}
		if len(opts) > 0 {
			return optionValue(opts[0])
		}
	}
	return ""
}

// SetValue stores v as the value of every input or select bound to f.
func (d *Document) SetValue(f query.Field, v string) {
	for _, n := range dom.QuerySelectorAll(d.Root, "input."+f.FilterClass()) {
		dom.SetAttribute(n, "value", v)
	}
	for _, n := range dom.QuerySelectorAll(d.Root, "select."+f.FilterClass()) {
		for _, o := range dom.QuerySelectorAll(n, "option") {
			if optionValue(o) == v {
				dom.SetAttribute(o, "selected", "")
			} else {
				dom.RemoveAttribute(o, "selected")
			}
		}
	}
}

// Options lists the choices of the select bound to f.
func (d *Document) Options(f query.Field) []Option {
	n := d.Find("select." + f.FilterClass())
	if n == nil {
		return nil
	}
	var out []Option
	for _, o := range dom.QuerySelectorAll(n, "option") {
		out = append(out, Option{Value: optionValue(o), Label: collapseSpace(dom.TextContent(o))})
	}
	return out
}

func optionValue(o *html.Node) string {
	if dom.HasAttribute(o, "value") {
		return dom.GetAttribute(o, "value")
	}
	return collapseSpace(dom.TextContent(o))
}

// PageLink is a pagination control.
type PageLink struct {
	Label string
	Token string
}

// PageLinks returns the pagination controls that carry a page token.
func (d *Document) PageLinks() []PageLink {
	var out []PageLink
	for _, n := range dom.QuerySelectorAll(d.Root, PageNavSelector) {
		if !dom.HasAttribute(n, PageTokenAttr) {
			continue
		}
		out = append(out, PageLink{
			Label: collapseSpace(dom.TextContent(n)),
			Token: dom.GetAttribute(n, PageTokenAttr),
		})
	}
	return out
}

// Rows returns the cell texts of every result row, skipping the loader.
func (d *Document) Rows() [][]string {
	results := d.Find(".results")
	if results == nil {
		return nil
	}
	var out [][]string
	for _, tr := range dom.QuerySelectorAll(results, "tr") {
		if hasClass(tr, LoaderClass) {
			continue
		}
		var row []string
		for _, cell := range dom.Children(tr) {
			switch dom.TagName(cell) {
			case "td", "th":
				row = append(row, collapseSpace(dom.TextContent(cell)))
			}
		}
		if len(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}

// Headers returns the column headings of the listing table.
func (d *Document) Headers() []string {
	var out []string
	for _, th := range dom.QuerySelectorAll(d.Root, "thead th") {
		out = append(out, collapseSpace(dom.TextContent(th)))
	}
	return out
}

// SetLoading shows or hides the loader row at the top of the results,
// inserting it if the results region has none.
func (d *Document) SetLoading(on bool) {
	results := d.Find(".results")
	if results == nil {
		return
	}
	loader := dom.QuerySelector(results, "tr."+LoaderClass)
	if loader == nil {
		loader = &html.Node{Type: html.ElementNode, Data: "tr", DataAtom: atom.Tr}
		dom.SetAttribute(loader, "class", LoaderClass+" "+HiddenClass)
	}
	if loader.Parent != nil {
		loader.Parent.RemoveChild(loader)
	}
	results.InsertBefore(loader, results.FirstChild)
	if on {
		removeClass(loader, HiddenClass)
	} else {
		addClass(loader, HiddenClass)
	}
}

// Loading reports whether a visible loader row is present.
func (d *Document) Loading() bool {
	loader := d.Find(".results tr." + LoaderClass)
	return loader != nil && !hasClass(loader, HiddenClass)
}
