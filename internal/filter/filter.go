// Package filter defines the filter descriptors a Selection layout renders
// and the screens apply to their queries.
package filter

import (
	"net/url"
	"strings"

	"screenkit/internal/field"
	"screenkit/internal/repository"
)

// Query is the narrowing surface filters apply to.
type Query interface {
	Where(column string, op string, value any)
	Search(term string, columns ...string)
}

// Filter is one entry of a filter panel.
type Filter interface {
	// Name is the label shown on the panel.
	Name() string
	// Parameters are the query keys the filter reads.
	Parameters() []string
	// Display returns the controls shown in the panel.
	Display() []field.Field
	// Apply narrows q using the request values.
	Apply(q Query, values url.Values)
}

// IsApplied reports whether any of f's parameters has a non-empty value.
func IsApplied(f Filter, values url.Values) bool {
	for _, p := range f.Parameters() {
		for _, v := range lookup(values, p) {
			if strings.TrimSpace(v) != "" {
				return true
			}
		}
	}
	return false
}

// Apply runs every applied filter against q and returns how many ran.
func Apply(q Query, values url.Values, filters ...Filter) int {
	n := 0
	for _, f := range filters {
		if !IsApplied(f, values) {
			continue
		}
		f.Apply(q, values)
		n++
	}
	return n
}

// Values exposes request query values as a Repository so filter controls
// render with the current selection. Keys with several values keep all of
// them; "filter[x]" is also reachable as "filter.x".
func Values(values url.Values) *repository.Repository {
	flat := make(map[string]any, len(values))
	nested := make(map[string]map[string]any)
	for k, vs := range values {
		var v any = vs
		if len(vs) == 1 {
			v = vs[0]
		}
		key := strings.TrimSuffix(k, "[]")
		flat[key] = v
		if outer, inner, ok := splitBracket(key); ok {
			if nested[outer] == nil {
				nested[outer] = make(map[string]any)
			}
			nested[outer][inner] = v
		}
	}
	for outer, m := range nested {
		if _, taken := flat[outer]; !taken {
			flat[outer] = m
		}
	}
	return repository.New(flat)
}

// Get returns the first value of key, accepting the "key[]" spelling.
func Get(values url.Values, key string) string {
	vs := lookup(values, key)
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

func lookup(values url.Values, key string) []string {
	if vs, ok := values[key]; ok {
		return vs
	}
	return values[key+"[]"]
}

func splitBracket(key string) (outer, inner string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	return key[:open], key[open+1 : len(key)-1], true
}
