// Package auth answers the two authorization questions screens ask:
// does the current principal hold a permission, and may a given layout node
// be shown against a given repository.
package auth

import (
	"context"
	"strings"

	"screenkit/internal/repository"
)

// Principal is the identity a request runs as.
type Principal interface {
	HasAccess(permission string) bool
}

// User is a Principal with a fixed permission set. A permission ending in
// ".*" grants every permission under that prefix; "*" grants everything.
type User struct {
	ID          string
	Name        string
	Email       string
	Permissions []string
}

// HasAccess implements Principal.
func (u *User) HasAccess(permission string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == permission || p == "*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(p, ".*"); ok && strings.HasPrefix(permission, prefix+".") {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal carried by ctx, or nil.
func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}

// Permitted reports whether the principal in ctx holds at least one of
// permissions. An empty list is always permitted; a missing principal never
// satisfies a non-empty list.
func Permitted(ctx context.Context, permissions []string) bool {
	if len(permissions) == 0 {
		return true
	}
	p := PrincipalFrom(ctx)
	if p == nil {
		return false
	}
	for _, perm := range permissions {
		if p.HasAccess(perm) {
			return true
		}
	}
	return false
}

// Restricted is implemented by anything whose display can be gated:
// layout nodes, actions, table columns.
type Restricted interface {
	Permissions() []string
	Visible(repo *repository.Repository) bool
}

// Guard decides whether a restricted node is shown.
type Guard interface {
	CheckPermission(ctx context.Context, node Restricted, repo *repository.Repository) bool
}

// GuardFunc adapts a function to Guard.
type GuardFunc func(ctx context.Context, node Restricted, repo *repository.Repository) bool

// CheckPermission implements Guard.
func (f GuardFunc) CheckPermission(ctx context.Context, node Restricted, repo *repository.Repository) bool {
	return f(ctx, node, repo)
}

// Gate is the default Guard: the node's own visibility predicate must pass
// and the principal must hold one of its permissions.
type Gate struct{}

// CheckPermission implements Guard.
func (Gate) CheckPermission(ctx context.Context, node Restricted, repo *repository.Repository) bool {
	if node == nil {
		return true
	}
	return node.Visible(repo) && Permitted(ctx, node.Permissions())
}
