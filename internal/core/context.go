package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "build_ip"
	ctxKeyUserAgent contextKey = "build_ua"
)

// ContextWithClient records the caller's address and User-Agent so feed
// builds can be attributed in history.
func ContextWithClient(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyIPAddress, ip)
	return context.WithValue(ctx, ctxKeyUserAgent, userAgent)
}

// ClientFromContext returns the values stored by ContextWithClient.
func ClientFromContext(ctx context.Context) (ip, userAgent string) {
	ip, _ = ctx.Value(ctxKeyIPAddress).(string)
	userAgent, _ = ctx.Value(ctxKeyUserAgent).(string)
	return ip, userAgent
}
