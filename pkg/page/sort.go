package page

import (
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"

	"github.com/japaniel/jambu/pkg/query"
)

// SortControls returns every control for field f in direction dir.
func (d *Document) SortControls(f query.Field, dir query.Direction) []*html.Node {
	return dom.QuerySelectorAll(d.Root, "."+f.SortClass(dir))
}

// ActiveSort returns the sort whose control carries the active marker.
func (d *Document) ActiveSort() (query.Sort, bool) {
	for _, n := range dom.QuerySelectorAll(d.Root, "."+ActiveClass) {
		for _, dir := range []query.Direction{query.Asc, query.Desc} {
			if f, ok := fieldOf(n, "-"+string(dir)); ok {
				return query.Sort{Field: f, Dir: dir}, true
			}
		}
	}
	return query.Sort{}, false
}

// IsActive reports whether the control for s carries the active marker.
func (d *Document) IsActive(s query.Sort) bool {
	for _, n := range d.SortControls(s.Field, s.Dir) {
		if hasClass(n, ActiveClass) {
			return true
		}
	}
	return false
}

// SetActiveSort clears the active marker from every element and, unless
// s is zero, puts it on the controls for s.
func (d *Document) SetActiveSort(s query.Sort) {
	for _, n := range dom.QuerySelectorAll(d.Root, "."+ActiveClass) {
		removeClass(n, ActiveClass)
	}
	if s.IsZero() {
		return
	}
	for _, n := range d.SortControls(s.Field, s.Dir) {
		addClass(n, ActiveClass)
	}
}

// ActiveCount is the number of elements carrying the active marker.
func (d *Document) ActiveCount() int {
	return len(dom.QuerySelectorAll(d.Root, "."+ActiveClass))
}
