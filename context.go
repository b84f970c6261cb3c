package staffguard

import (
	"context"

	"github.com/MrEthical07/staffguard/session"
)

type originContextKey struct{}

// WithClientIP records the caller's address on ctx. Login stores it on the
// new session and audit events repeat it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	o := originFromContext(ctx)
	o.IPAddress = ip
	return context.WithValue(ctx, originContextKey{}, o)
}

// WithUserAgent records the HTTP User-Agent on ctx.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	o := originFromContext(ctx)
	o.UserAgent = userAgent
	return context.WithValue(ctx, originContextKey{}, o)
}

func originFromContext(ctx context.Context) session.Metadata {
	if ctx == nil {
		return session.Metadata{}
	}
	o, _ := ctx.Value(originContextKey{}).(session.Metadata)
	return o
}

func clientIPFromContext(ctx context.Context) string  { return originFromContext(ctx).IPAddress }
func userAgentFromContext(ctx context.Context) string { return originFromContext(ctx).UserAgent }
