package auth

import (
	"context"
)

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	Username string
	IsAdmin  bool
}

type principalKeyType struct{}

var principalKey principalKeyType

func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*Principal)
	return principal, ok
}
