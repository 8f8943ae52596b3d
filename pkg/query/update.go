package query

import (
	"fmt"
	"strings"
)

// Update is an ordered list of parameter assignments to merge into a State.
type Update struct {
	pairs []pair
}

// Set returns an Update assigning value to key.
func Set(key, value string) Update {
	return Update{}.With(key, value)
}

// With returns a copy of u that also assigns value to key. A later
// assignment to the same key replaces the earlier one.
func (u Update) With(key, value string) Update {
	out := Update{pairs: make([]pair, 0, len(u.pairs)+1)}
	for _, p := range u.pairs {
		if p.key != key {
			out.pairs = append(out.pairs, p)
		}
	}
	out.pairs = append(out.pairs, pair{key: key, value: value})
	return out
}

// FieldUpdate sets the filter value of f.
func FieldUpdate(f Field, value string) Update { return Set(f.Param(), value) }

// SortUpdate sets the sort parameter. The zero Sort clears it to "".
func SortUpdate(s Sort) Update { return Set(SortParam, s.String()) }

// PageUpdate moves to the page identified by token.
func PageUpdate(token string) Update { return Set(PageParam, token) }

// Has reports whether u assigns key.
func (u Update) Has(key string) bool {
	for _, p := range u.pairs {
		if p.key == key {
			return true
		}
	}
	return false
}

// Keys returns the assigned keys in order.
func (u Update) Keys() []string {
	out := make([]string, len(u.pairs))
	for i, p := range u.pairs {
		out[i] = p.key
	}
	return out
}

// Value returns the value assigned to key.
func (u Update) Value(key string) (string, bool) {
	for _, p := range u.pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Len is the number of assignments.
func (u Update) Len() int { return len(u.pairs) }

func (u Update) String() string {
	parts := make([]string, len(u.pairs))
	for i, p := range u.pairs {
		parts[i] = fmt.Sprintf("%s=%q", p.key, p.value)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// ParseAssignment parses "key=value" as typed on a command line. Field
// names are accepted in either hyphenated or parameter form.
func ParseAssignment(s string) (Update, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return Update{}, fmt.Errorf("assignment %q: want key=value", s)
	}
	switch k {
	case SortParam:
		if _, err := ParseSort(v); err != nil {
			return Update{}, err
		}
		return Set(SortParam, v), nil
	case PageParam:
		return PageUpdate(v), nil
	}
	f, err := ParseField(k)
	if err != nil {
		return Update{}, err
	}
	return FieldUpdate(f, v), nil
}
