// Package repository wraps the data a screen handler returns so layouts,
// fields and table columns can read it uniformly.
//
// A Repository is read-only once constructed. Keys may be dotted
// ("post.author.name") to walk nested maps, structs, slices and sources that
// expose their own keyed accessor.
package repository

import (
	"reflect"
	"strconv"
	"strings"

	"screenkit/internal/jsonutil"
)

// ContentSource is implemented by values that resolve keys themselves,
// e.g. a query result that computes presentation attributes.
type ContentSource interface {
	GetContent(key string) any
}

// Repository is a read-only key/value view over an arbitrary source.
type Repository struct {
	source any
}

// New wraps source. A nil source yields an empty repository.
func New(source any) *Repository {
	return &Repository{source: source}
}

// Source returns the wrapped value.
func (r *Repository) Source() any {
	if r == nil {
		return nil
	}
	return r.source
}

// Get returns the value stored under key, or nil.
func (r *Repository) Get(key string) any {
	v, _ := r.lookup(key)
	return v
}

// GetOr returns the value stored under key, or def when the key is absent.
func (r *Repository) GetOr(key string, def any) any {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return def
}

// Has reports whether key resolves to a value.
func (r *Repository) Has(key string) bool {
	_, ok := r.lookup(key)
	return ok
}

// String returns the display form of the value under key.
func (r *Repository) String(key string) string {
	return jsonutil.ToString(r.Get(key))
}

// Content resolves key through the source's own accessor when it has one,
// falling back to Get. Table cell renderers use this order.
func (r *Repository) Content(key string) any {
	if r == nil {
		return nil
	}
	if cs, ok := r.source.(ContentSource); ok {
		if v := cs.GetContent(key); v != nil {
			return v
		}
	}
	return r.Get(key)
}

// Items wraps every element of the list stored under key in its own
// Repository. An empty key addresses the source itself. Non-list values
// yield nil.
func (r *Repository) Items(key string) []*Repository {
	v := r.Get(key)
	if v == nil {
		return nil
	}
	if repos, ok := v.([]*Repository); ok {
		return repos
	}
	rv := indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]*Repository, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, New(rv.Index(i).Interface()))
	}
	return out
}

// Count returns the number of entries in a list or map source.
func (r *Repository) Count() int {
	rv := indirect(reflect.ValueOf(r.Source()))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	default:
		return 0
	}
}

func (r *Repository) lookup(key string) (any, bool) {
	if r == nil || r.source == nil {
		return nil, false
	}
	if key == "" {
		return r.source, true
	}
	// A literal dotted key wins over path traversal.
	if v, ok := resolve(r.source, key); ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}
	cur := r.source
	for _, seg := range strings.Split(key, ".") {
		next, ok := resolve(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// resolve looks seg up on v: direct access first, then the content accessor.
func resolve(v any, seg string) (any, bool) {
	if out, ok := direct(v, seg); ok {
		return out, true
	}
	if cs, ok := v.(ContentSource); ok {
		if out := cs.GetContent(seg); out != nil {
			return out, true
		}
	}
	return nil, false
}

func direct(v any, seg string) (any, bool) {
	switch src := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		out, ok := src[seg]
		return out, ok
	case *Repository:
		return src.lookup(seg)
	}

	rv := indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !out.IsValid() {
			return nil, false
		}
		return out.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.Struct:
		return structField(rv, seg)
	default:
		return nil, false
	}
}

// structField matches seg against a `repo` tag, the json tag name, or the
// field name (case-insensitive), in that order.
func structField(rv reflect.Value, seg string) (any, bool) {
	if seg == "" {
		return nil, false
	}
	t := rv.Type()
	byName := -1
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if tagName(f.Tag.Get("repo")) == seg || tagName(f.Tag.Get("json")) == seg {
			return rv.Field(i).Interface(), true
		}
		if byName < 0 && strings.EqualFold(f.Name, seg) {
			byName = i
		}
	}
	if byName >= 0 {
		return rv.Field(byName).Interface(), true
	}
	return nil, false
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}
