package handler

import (
	"context"

	"vidcatalog/shared/observability/types"
)

func contextWithTrace(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, types.TraceIDKey, traceID)
}
