package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyJobID contextKey = "job_id"
)

// WithJobID adds a batch job ID to the context
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, ContextKeyJobID, jobID)
}

// JobIDFromContext extracts the batch job ID from context
func JobIDFromContext(ctx context.Context) string {
	if jobID, ok := ctx.Value(ContextKeyJobID).(string); ok {
		return jobID
	}
	return ""
}
