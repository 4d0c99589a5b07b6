package utils

import "context"

type contextKey string

const (
	requestIDKey      contextKey = "request_id"
	organizationIDKey contextKey = "organization_id"
)

// WithRequestID stores the request id on ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithOrganizationID stores the caller's organization on ctx.
func WithOrganizationID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, organizationIDKey, orgID)
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetOrganizationID extracts organization ID from context
func GetOrganizationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(organizationIDKey).(string); ok {
		return id
	}
	return ""
}
