package auth

import (
	"context"

	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/google/uuid"
)

// Caller identifies who is acting on the inventory.
type Caller struct {
	UserID uuid.UUID
	Role   enums.Role
}

// Authenticated reports whether the caller was resolved from a valid token.
func (c Caller) Authenticated() bool {
	return c.UserID != uuid.Nil && c.Role.IsValid()
}

// IsAdmin reports whether the caller may mutate the catalog.
func (c Caller) IsAdmin() bool {
	return c.Authenticated() && c.Role == enums.RoleAdmin
}

type callerKey struct{}

// WithCaller stores the caller on the context.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller stored by WithCaller.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}
