package common

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID       contextKey = "run_id"
	ContextKeyReceiptPath contextKey = "receipt_path"
)

// NewRunID returns a fresh identifier for one batch run.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID adds a batch run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithReceiptPath adds the receipt being processed to the context
func WithReceiptPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ContextKeyReceiptPath, path)
}

// ReceiptPathFromContext extracts the receipt path from context
func ReceiptPathFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(ContextKeyReceiptPath).(string); ok {
		return p
	}
	return ""
}

// WithOptionalTimeout wraps parent with a timeout when d > 0; otherwise it only adds a cancel func.
func WithOptionalTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(parent, d)
	}
	return context.WithCancel(parent)
}
