package query

import (
	"errors"
	"fmt"
	"strings"
)

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ErrBadSort is returned for sort values that are not "<asc|desc>-<field>".
var ErrBadSort = errors.New("malformed sort value")

// Sort is the single active sort of a listing. The zero value means unsorted.
type Sort struct {
	Field Field
	Dir   Direction
}

// IsZero reports whether no sort is applied.
func (s Sort) IsZero() bool { return s.Field == "" }

// String encodes the sort as the value of the sort parameter.
func (s Sort) String() string {
	if s.IsZero() {
		return ""
	}
	return string(s.Dir) + "-" + s.Field.Param()
}

// ParseSort decodes a sort parameter value. An empty value is the zero Sort.
func ParseSort(v string) (Sort, error) {
	if v == "" {
		return Sort{}, nil
	}
	dir, name, ok := strings.Cut(v, "-")
	if !ok {
		return Sort{}, fmt.Errorf("%w: %q", ErrBadSort, v)
	}
	d := Direction(dir)
	if d != Asc && d != Desc {
		return Sort{}, fmt.Errorf("%w: direction %q", ErrBadSort, dir)
	}
	f, err := ParseField(name)
	if err != nil {
		return Sort{}, fmt.Errorf("%w: %v", ErrBadSort, err)
	}
	return Sort{Field: f, Dir: d}, nil
}
