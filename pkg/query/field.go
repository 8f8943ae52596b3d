package query

import (
	"errors"
	"fmt"
	"strings"
)

// Field is one filterable facet of a lexicon entry.
type Field string

const (
	Lang       Field = "lang"
	OriginLang Field = "origin-lang"
	EntryName  Field = "entry-name"
	Source     Field = "source"
	Gloss      Field = "gloss"
	Word       Field = "word"
	Origin     Field = "origin"
	Clade      Field = "clade"
	Notes      Field = "notes"
	Reflexes   Field = "reflexes"
)

// Auxiliary parameters that are not filter fields.
const (
	SortParam = "sort"
	PageParam = "page"
)

// ErrUnknownField is returned when a name does not match any Field.
var ErrUnknownField = errors.New("unknown filter field")

var allFields = []Field{Lang, OriginLang, EntryName, Source, Gloss, Word, Origin, Clade, Notes, Reflexes}

// AllFields returns every filter field in page order.
func AllFields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// ParseField accepts either the hyphenated field name or its query
// parameter form ("origin-lang" or "origin_lang").
func ParseField(s string) (Field, error) {
	name := strings.ReplaceAll(strings.TrimSpace(s), "_", "-")
	for _, f := range allFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Param is the query string parameter carrying this field's value.
func (f Field) Param() string { return strings.ReplaceAll(string(f), "-", "_") }

// FilterClass is the class name of the input or select bound to this field.
func (f Field) FilterClass() string { return string(f) + "-filter" }

// SortClass is the class name of this field's sort control for dir.
func (f Field) SortClass(dir Direction) string { return string(f) + "-" + string(dir) }

// Label is a human-readable name for prompts and table headers.
func (f Field) Label() string {
	switch f {
	case Lang:
		return "Language"
	case OriginLang:
		return "Origin language"
	case EntryName:
		return "Entry"
	}
	s := string(f)
	return strings.ToUpper(s[:1]) + s[1:]
}
