package screen

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"screenkit/internal/container"
	"screenkit/internal/jsonutil"
)

// Param declares one handler parameter. Untyped parameters take the next
// raw value; typed ones are bound by kind.
type Param struct {
	Name    string
	Kind    string
	accepts func(v any) bool
}

// Typed reports whether the parameter is bound by kind.
func (p Param) Typed() bool { return p.Kind != "" }

// Arg declares an untyped parameter.
func Arg(name string) Param {
	return Param{Name: name}
}

// Bind declares a parameter of type T. It takes the first supplied value
// that is a T, otherwise a value resolved from the container. When the
// resolved value is route-bindable and a raw value is left, that value is
// resolved through it.
func Bind[T any](name string) Param {
	return Param{
		Name: name,
		Kind: container.KindOf[T](),
		accepts: func(v any) bool {
			_, ok := v.(T)
			return ok
		},
	}
}

// HandlerFunc is the body of a handler.
type HandlerFunc func(ctx context.Context, args Args) (any, error)

// Handler is a function plus the parameters it is bound with.
type Handler struct {
	Params []Param
	Fn     HandlerFunc
}

// Handle builds a Handler.
func Handle(fn HandlerFunc, params ...Param) Handler {
	return Handler{Params: params, Fn: fn}
}

// IsZero reports whether the handler has no function.
func (h Handler) IsZero() bool { return h.Fn == nil }

// Methods maps request tokens to handlers.
type Methods map[string]Handler

// Names returns the registered tokens, sorted.
func (m Methods) Names() []string {
	return slices.Sorted(maps.Keys(m))
}

// Lookup returns the handler for token.
func (m Methods) Lookup(token string) (Handler, bool) {
	h, ok := m[token]
	return h, ok && !h.IsZero()
}

func (m Methods) validate() error {
	for name, h := range m {
		if name == "" || strings.ContainsAny(name, "/ ") {
			return fmt.Errorf("invalid method token %q", name)
		}
		if h.IsZero() {
			return fmt.Errorf("method %q has no function", name)
		}
	}
	return nil
}

// Args are the bound arguments of one call, addressable by parameter name.
type Args struct {
	params []Param
	values []any
}

// Len returns the number of bound values.
func (a Args) Len() int { return len(a.values) }

// At returns the value at position i, or nil.
func (a Args) At(i int) any {
	if i < 0 || i >= len(a.values) {
		return nil
	}
	return a.values[i]
}

// Get returns the value bound to name, or nil.
func (a Args) Get(name string) any {
	for i, p := range a.params {
		if p.Name == name {
			return a.At(i)
		}
	}
	return nil
}

// String returns the value bound to name as a string.
func (a Args) String(name string) string {
	return jsonutil.ToString(a.Get(name))
}

// Values returns the bound values in parameter order.
func (a Args) Values() []any { return slices.Clone(a.values) }

// As returns the value bound to name asserted to T.
func As[T any](a Args, name string) (T, bool) {
	v, ok := a.Get(name).(T)
	return v, ok
}

// supply holds the raw values of one call, either positional or keyed by
// parameter name. Positional values are consumed in order; a value taken by
// an earlier parameter is never handed out again.
type supply struct {
	positional []any
	named      map[string]any
	used       []bool
	next       int
}

func positional(values []any) *supply {
	return &supply{positional: values, used: make([]bool, len(values))}
}

func byName(values map[string]any) *supply {
	return &supply{named: values}
}

// take returns the raw value for p and consumes it.
func (s *supply) take(p Param) any {
	if s.named != nil {
		return s.named[p.Name]
	}
	for s.next < len(s.positional) && s.used[s.next] {
		s.next++
	}
	if s.next >= len(s.positional) {
		return nil
	}
	v := s.positional[s.next]
	s.used[s.next] = true
	s.next++
	return v
}

// instance returns the first unconsumed value p accepts and consumes it.
func (s *supply) instance(p Param) (any, bool) {
	if p.accepts == nil {
		return nil, false
	}
	if s.named != nil {
		v := s.named[p.Name]
		return v, v != nil && p.accepts(v)
	}
	for i, v := range s.positional {
		if !s.used[i] && v != nil && p.accepts(v) {
			s.used[i] = true
			return v, true
		}
	}
	return nil, false
}

// bind fills the parameters of h in declaration order. Untyped parameters
// take the next raw value. Typed ones take a supplied instance, else a value
// from the container; a route-bindable container value consumes the next
// raw value and resolves it.
func bind(ctx context.Context, c *container.Container, h Handler, in *supply) (Args, error) {
	if in == nil {
		in = positional(nil)
	}
	values := make([]any, len(h.Params))
	for i, p := range h.Params {
		if !p.Typed() {
			values[i] = in.take(p)
			continue
		}
		if v, ok := in.instance(p); ok {
			values[i] = v
			continue
		}
		if c == nil {
			return Args{}, fmt.Errorf("bind %s: %w", p.Name, container.ErrUnresolvable)
		}
		v, err := c.Resolve(ctx, p.Kind)
		if err != nil {
			return Args{}, fmt.Errorf("bind %s: %w", p.Name, err)
		}
		if rb, ok := v.(container.RouteBindable); ok {
			if raw := in.take(p); raw != nil {
				bound, err := rb.ResolveRouteBinding(ctx, raw)
				if err != nil {
					return Args{}, fmt.Errorf("bind %s=%v: %w: %w", p.Name, raw, ErrRouteBinding, err)
				}
				v = bound
			}
		}
		values[i] = v
	}
	return Args{params: h.Params, values: values}, nil
}

// bodyArguments decodes an async request body. An array is positional; an
// object is matched by parameter name.
func bodyArguments(body []byte) (*supply, error) {
	parsed, err := jsonutil.UnmarshalArguments(body, "async body")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadArguments, err)
	}
	if parsed.Named != nil {
		return byName(parsed.Named), nil
	}
	return positional(parsed.Positional), nil
}

func call(ctx context.Context, c *container.Container, h Handler, in *supply) (any, error) {
	if h.IsZero() {
		return nil, nil
	}
	args, err := bind(ctx, c, h, in)
	if err != nil {
		return nil, err
	}
	return h.Fn(ctx, args)
}

func stringsToArgs(params []string) *supply {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = p
	}
	return positional(out)
}
