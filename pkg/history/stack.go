// Package history keeps the navigation stack of a browsing session and an
// optional on-disk log of visited listing URLs.
package history

import (
	"net/url"
	"sync"
)

// Stack is a browser-style history: pushing after going back discards the
// forward entries.
type Stack struct {
	mu      sync.Mutex
	entries []*url.URL
	pos     int
}

// NewStack creates a history whose only entry is start.
func NewStack(start *url.URL) *Stack {
	return &Stack{entries: []*url.URL{clone(start)}}
}

func clone(u *url.URL) *url.URL {
	c := *u
	return &c
}

// Push appends u after the current entry and makes it current.
func (s *Stack) Push(u *url.URL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries[:s.pos+1], clone(u))
	s.pos = len(s.entries) - 1
}

// Replace overwrites the current entry.
func (s *Stack) Replace(u *url.URL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.pos] = clone(u)
}

// Current returns the current entry.
func (s *Stack) Current() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.entries[s.pos])
}

// Back moves to the previous entry. It reports false at the oldest entry.
func (s *Stack) Back() (*url.URL, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == 0 {
		return nil, false
	}
	s.pos--
	return clone(s.entries[s.pos]), true
}

// Forward moves to the next entry. It reports false at the newest entry.
func (s *Stack) Forward() (*url.URL, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == len(s.entries)-1 {
		return nil, false
	}
	s.pos++
	return clone(s.entries[s.pos]), true
}

// Len is the number of entries.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
