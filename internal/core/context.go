package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "client"

// ContextWithClient records who triggered an operation (a remote address or
// "cli") for log entries.
func ContextWithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, ctxKeyClient, client)
}

// ClientFromContext returns the recorded client or "".
func ClientFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyClient).(string); ok {
		return v
	}
	return ""
}
