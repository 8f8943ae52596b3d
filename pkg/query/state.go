// Package query models the filter state of a lexicon listing as it is
// carried in the page URL.
package query

import (
	"net/url"
	"strings"
)

type pair struct {
	key   string
	value string
	// raw is the original encoded "key=value" text. Empty once the pair
	// has been modified, in which case Encode re-escapes it.
	raw string
	// blank marks an empty segment such as the middle of "a=1&&b=2".
	blank bool
}

func (p pair) encode() string {
	if p.blank {
		return ""
	}
	if p.raw != "" {
		return p.raw
	}
	return url.QueryEscape(p.key) + "=" + url.QueryEscape(p.value)
}

// State is the ordered set of query parameters of a listing URL.
// Pairs that are never touched keep their original position and encoding,
// so Parse followed by Encode returns the input unchanged.
type State struct {
	pairs []pair
}

// Parse builds a State from an encoded query string (without the '?').
func Parse(rawQuery string) *State {
	s := &State{}
	if rawQuery == "" {
		return s
	}
	for _, seg := range strings.Split(rawQuery, "&") {
		if seg == "" {
			s.pairs = append(s.pairs, pair{blank: true})
			continue
		}
		k, v, _ := strings.Cut(seg, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			key = k
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			value = v
		}
		s.pairs = append(s.pairs, pair{key: key, value: value, raw: seg})
	}
	return s
}

// FromURL parses the query of u.
func FromURL(u *url.URL) *State {
	if u == nil {
		return &State{}
	}
	return Parse(u.RawQuery)
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	c := &State{pairs: make([]pair, len(s.pairs))}
	copy(c.pairs, s.pairs)
	return c
}

// Encode serializes s back into a query string.
func (s *State) Encode() string {
	parts := make([]string, len(s.pairs))
	for i, p := range s.pairs {
		parts[i] = p.encode()
	}
	return strings.Join(parts, "&")
}

// Get returns the first value for key.
func (s *State) Get(key string) (string, bool) {
	for _, p := range s.pairs {
		if !p.blank && p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (s *State) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns the parameter names in order, without duplicates.
func (s *State) Keys() []string {
	seen := make(map[string]bool, len(s.pairs))
	var out []string
	for _, p := range s.pairs {
		if p.blank || seen[p.key] {
			continue
		}
		seen[p.key] = true
		out = append(out, p.key)
	}
	return out
}

// Set overwrites the first occurrence of key and drops any later ones,
// or appends key at the end when it is absent. Appending drops trailing
// empty segments.
func (s *State) Set(key, value string) {
	idx := -1
	kept := s.pairs[:0]
	for _, p := range s.pairs {
		if !p.blank && p.key == key {
			if idx >= 0 {
				continue
			}
			idx = len(kept)
			p = pair{key: key, value: value}
		}
		kept = append(kept, p)
	}
	s.pairs = kept
	if idx < 0 {
		s.trimBlanks()
		s.pairs = append(s.pairs, pair{key: key, value: value})
	}
}

// trimBlanks removes empty segments from the end of s.
func (s *State) trimBlanks() {
	n := len(s.pairs)
	for n > 0 && s.pairs[n-1].blank {
		n--
	}
	s.pairs = s.pairs[:n]
}

// Del removes every occurrence of key, and with it any empty segments
// left at the end.
func (s *State) Del(key string) {
	kept := s.pairs[:0]
	removed := false
	for _, p := range s.pairs {
		if !p.blank && p.key == key {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	s.pairs = kept
	if removed {
		s.trimBlanks()
	}
}

// Filter returns the value of field f, or "" when unset.
func (s *State) Filter(f Field) string {
	v, _ := s.Get(f.Param())
	return v
}

// Sort decodes the sort parameter.
func (s *State) Sort() (Sort, error) {
	v, _ := s.Get(SortParam)
	return ParseSort(v)
}

// Page returns the pagination token, or "" when on the first page.
func (s *State) Page() string {
	v, _ := s.Get(PageParam)
	return v
}

// Apply merges u into s. Every key of u is overwritten in place; keys not
// in u are untouched. The page parameter is removed unless u sets it.
func (s *State) Apply(u Update) {
	for _, p := range u.pairs {
		s.Set(p.key, p.value)
	}
	if !u.Has(PageParam) {
		s.Del(PageParam)
	}
}

// ApplyURL returns a copy of base whose query has u applied.
func ApplyURL(base *url.URL, u Update) *url.URL {
	next := *base
	st := FromURL(base)
	st.Apply(u)
	next.RawQuery = st.Encode()
	next.ForceQuery = false
	return &next
}
