// Package headers provides a case-insensitive, read-only view over the
// response headers of a single HTTP exchange.
package headers

import (
	"net/http"
	"sort"
	"strings"
)

type entry struct {
	name  string
	value string
}

// Set is an immutable mapping of header name to value. Names compare
// case-insensitively; the casing seen on the wire is kept for display.
// A present header may carry an empty value, which is distinct from absence.
type Set struct {
	entries map[string]entry
}

// New builds a Set from a plain name/value map. When two keys differ only
// by case, one of them wins; which one is unspecified.
func New(m map[string]string) Set {
	s := Set{entries: make(map[string]entry, len(m))}
	for name, value := range m {
		s.entries[strings.ToLower(name)] = entry{name: name, value: value}
	}
	return s
}

// FromHTTP folds a net/http header map into a Set. Multiple values for the
// same header are joined with ", ".
func FromHTTP(h http.Header) Set {
	s := Set{entries: make(map[string]entry, len(h))}
	for name, values := range h {
		s.entries[strings.ToLower(name)] = entry{name: name, value: strings.Join(values, ", ")}
	}
	return s
}

// Has reports whether the header is present, regardless of its value.
func (s Set) Has(name string) bool {
	_, ok := s.entries[strings.ToLower(name)]
	return ok
}

// Get returns the raw header value and whether the header is present.
func (s Set) Get(name string) (string, bool) {
	e, ok := s.entries[strings.ToLower(name)]
	return e.value, ok
}

// Value returns the lower-cased header value, or "" when absent.
func (s Set) Value(name string) string {
	return strings.ToLower(s.entries[strings.ToLower(name)].value)
}

// Name returns the header name with its original casing.
func (s Set) Name(name string) (string, bool) {
	e, ok := s.entries[strings.ToLower(name)]
	return e.name, ok
}

// Names returns every header name, original casing, sorted alphabetically.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of distinct headers.
func (s Set) Len() int {
	return len(s.entries)
}

// Map returns a copy of the headers keyed by their original names.
func (s Set) Map() map[string]string {
	out := make(map[string]string, len(s.entries))
	for _, e := range s.entries {
		out[e.name] = e.value
	}
	return out
}
