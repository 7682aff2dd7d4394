package authz

import (
	"context"

	"github.com/xraph/forge"
)

// resolveCaller extracts the authenticated caller uid. An explicit
// WithCaller value takes precedence; otherwise the Forge-authenticated
// user id is used (requests arriving through the HTTP API). Empty means
// unauthenticated.
func resolveCaller(ctx context.Context) string {
	if uid := CallerFromContext(ctx); uid != "" {
		return uid
	}
	return forge.UserIDFromContext(ctx)
}
