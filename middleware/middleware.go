// Package middleware provides HTTP permission middleware for the engine.
package middleware

import (
	"encoding/json"

	"github.com/xraph/forge"

	authz "github.com/Hejazi-bu/Hejazi-SSD-sub000"
)

// Require enforces one permission id on a route. The caller identity is
// resolved from the request context by the engine.
func Require(eng *authz.Engine, permissionID string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			ok, err := eng.CanI(ctx.Context(), permissionID)
			if err != nil || !ok {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if ANY of the permission ids resolve to
// allow.
func RequireAny(eng *authz.Engine, permissionIDs ...string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			for _, pid := range permissionIDs {
				ok, err := eng.CanI(ctx.Context(), pid)
				if err == nil && ok {
					return next(ctx)
				}
			}
			return denyResponse(ctx)
		}
	}
}

// RequireAll allows the request only if ALL permission ids resolve to
// allow.
func RequireAll(eng *authz.Engine, permissionIDs ...string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			for _, pid := range permissionIDs {
				ok, err := eng.CanI(ctx.Context(), pid)
				if err != nil || !ok {
					return denyResponse(ctx)
				}
			}
			return next(ctx)
		}
	}
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "access denied"})
}
