package authz

import "context"

type contextKey int

const ctxKeyCaller contextKey = iota

// WithCaller returns a context carrying the authenticated caller uid.
// Use this for standalone mode (without Forge).
func WithCaller(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyCaller, uid)
}

// CallerFromContext returns the caller uid set by WithCaller, or "" when
// none is present.
func CallerFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeyCaller).(string)
	if !ok {
		return ""
	}
	return v
}
