package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeySessionID contextKey = "session_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithSessionID adds a session ID to the context
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sessionID)
}

// SessionIDFromContext extracts the session ID from context
func SessionIDFromContext(ctx context.Context) string {
	if sessionID, ok := ctx.Value(ContextKeySessionID).(string); ok {
		return sessionID
	}
	return ""
}

// WithTimeout creates a context with the specified timeout. A non-positive
// timeout returns the parent unchanged with a no-op cancel.
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, timeout)
}
