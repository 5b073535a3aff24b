package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextOperatorKey ctxKey = "operatorID"

// OperatorIDFromContext returns the operator id stored by ContextWithOperatorID,
// or zero when the context carries none.
func OperatorIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if operatorID, ok := ctx.Value(ContextOperatorKey).(int64); ok {
		return operatorID
	}
	return 0
}

func ContextWithOperatorID(ctx context.Context, operatorID int64) context.Context {
	return context.WithValue(ctx, ContextOperatorKey, operatorID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
