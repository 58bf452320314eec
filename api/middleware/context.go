package middleware

import (
	"context"

	pkgAuth "github.com/angelmondragon/sweetshop-backend/pkg/auth"
)

// CallerFromContext returns the authenticated caller or the zero Caller.
func CallerFromContext(ctx context.Context) pkgAuth.Caller {
	if ctx == nil {
		return pkgAuth.Caller{}
	}
	caller, _ := pkgAuth.CallerFromContext(ctx)
	return caller
}

func UserIDFromContext(ctx context.Context) string {
	caller := CallerFromContext(ctx)
	if !caller.Authenticated() {
		return ""
	}
	return caller.UserID.String()
}

func RoleFromContext(ctx context.Context) string {
	return string(CallerFromContext(ctx).Role)
}
