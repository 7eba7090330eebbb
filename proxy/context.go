package proxy

import (
	"context"

	"claude-gateway/internal"

	"github.com/google/uuid"
)

// withRequestID stores a freshly generated request id in ctx.
func withRequestID(ctx context.Context) context.Context {
	return internal.WithRequestID(ctx, "req_"+uuid.NewString())
}

// getRequestID reads the request id back out of ctx.
func getRequestID(ctx context.Context) string {
	return internal.GetRequestID(ctx)
}
