// Package container resolves values by kind for handler argument binding and
// filter instantiation.
//
// A kind is the string form of a Go type (see KindOf). Providers are
// registered at startup; request-scoped instances travel in the context and
// shadow providers of the same kind.
package container

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"
)

// ErrUnresolvable is returned when no provider exists for a kind.
var ErrUnresolvable = errors.New("no provider registered")

// Provider builds a fresh value for one kind.
type Provider func(ctx context.Context) (any, error)

// RouteBindable is implemented by values that can turn a raw request value
// (usually an identifier from the URL) into the entity it names.
type RouteBindable interface {
	ResolveRouteBinding(ctx context.Context, raw any) (any, error)
}

// KindOf returns the kind name for T.
func KindOf[T any]() string {
	return reflect.TypeFor[T]().String()
}

// Container maps kinds to providers.
type Container struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// New creates an empty container.
func New() *Container {
	return &Container{providers: make(map[string]Provider)}
}

// Provide registers p for kind, replacing any previous provider.
func (c *Container) Provide(kind string, p Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[kind] = p
}

// Register registers a typed provider under KindOf[T].
func Register[T any](c *Container, fn func(ctx context.Context) (T, error)) {
	c.Provide(KindOf[T](), func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
}

// Singleton registers v as the value for KindOf[T].
func Singleton[T any](c *Container, v T) {
	c.Provide(KindOf[T](), func(context.Context) (any, error) {
		return v, nil
	})
}

// Has reports whether kind has a provider or a scoped instance in ctx.
func (c *Container) Has(ctx context.Context, kind string) bool {
	if _, ok := scoped(ctx)[kind]; ok {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.providers[kind]
	return ok
}

// Kinds returns the registered kinds, sorted.
func (c *Container) Kinds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.providers))
}

// Resolve returns a value for kind: a scoped instance from ctx if present,
// otherwise a fresh value from the registered provider.
func (c *Container) Resolve(ctx context.Context, kind string) (any, error) {
	if v, ok := scoped(ctx)[kind]; ok {
		return v, nil
	}
	c.mu.RLock()
	p, ok := c.providers[kind]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("resolve %s: %w", kind, ErrUnresolvable)
	}
	v, err := p(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", kind, err)
	}
	return v, nil
}

// Make resolves KindOf[T] and asserts the result to T.
func Make[T any](ctx context.Context, c *Container) (T, error) {
	var zero T
	kind := KindOf[T]()
	v, err := c.Resolve(ctx, kind)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("resolve %s: provider returned %T", kind, v)
	}
	return out, nil
}

type scopeKey struct{}

// WithInstance returns a context in which kind resolves to v.
func WithInstance(ctx context.Context, kind string, v any) context.Context {
	prev := scoped(ctx)
	next := make(map[string]any, len(prev)+1)
	maps.Copy(next, prev)
	next[kind] = v
	return context.WithValue(ctx, scopeKey{}, next)
}

func scoped(ctx context.Context) map[string]any {
	m, _ := ctx.Value(scopeKey{}).(map[string]any)
	return m
}
