// Package actor carries the authenticated caller through request context.
// Authentication itself happens upstream: the gateway verifies the token and
// installs X-Actor-Id / X-Actor-Role headers, which the middleware trusts.
package actor

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

const (
	RolePlayer = "player"
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
)

type Actor struct {
	ID   int64
	Role string
}

type actorContextKey struct{}

func ContextWith(ctx context.Context, act *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, act)
}

// FromContext retrieves the Actor stored in ctx. It returns nil if ctx is
// nil, if no actor is stored, or if the stored value has a different type.
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	act, ok := ctx.Value(actorContextKey{}).(*Actor)
	if !ok {
		return nil
	}
	return act
}

// Require returns the actor in ctx or ErrUnauthenticated.
func Require(ctx context.Context) (*Actor, error) {
	act := FromContext(ctx)
	if act == nil {
		return nil, ErrUnauthenticated
	}
	return act, nil
}

// RequireRole checks that the caller holds one of the given roles
// (case-insensitive). Admins pass every role check.
func RequireRole(ctx context.Context, roles ...string) error {
	act := FromContext(ctx)
	if act == nil {
		return ErrUnauthenticated
	}
	if strings.EqualFold(act.Role, RoleAdmin) {
		return nil
	}
	for _, role := range roles {
		if strings.EqualFold(act.Role, role) {
			return nil
		}
	}
	return ErrForbidden
}
