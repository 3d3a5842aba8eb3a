package middleware

import (
	"context"

	"github.com/angelmondragon/boost-backend/pkg/auth"
)

type contextKey string

const ctxCaller contextKey = "caller"

// WithCaller stores the verified caller on the context.
func WithCaller(ctx context.Context, caller auth.Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCaller, caller)
}

// CallerFromContext returns the verified caller. ok is false on routes that
// did not pass through Auth.
func CallerFromContext(ctx context.Context) (auth.Caller, bool) {
	if ctx == nil {
		return auth.Caller{}, false
	}
	caller, ok := ctx.Value(ctxCaller).(auth.Caller)
	return caller, ok
}

// UserIDFromContext returns the caller uid or "".
func UserIDFromContext(ctx context.Context) string {
	caller, _ := CallerFromContext(ctx)
	return caller.UID
}
