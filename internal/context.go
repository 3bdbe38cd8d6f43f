package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextSubjectKey ctxKey = "subject"
	ContextRolesKey   ctxKey = "roles"
)

// SubjectFromContext returns the authenticated back-office subject, or "" for anonymous requests.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if subject, ok := ctx.Value(ContextSubjectKey).(string); ok {
		return subject
	}
	return ""
}

func ContextWithSubject(ctx context.Context, subject string, roles []string) context.Context {
	ctx = context.WithValue(ctx, ContextSubjectKey, subject)
	return context.WithValue(ctx, ContextRolesKey, roles)
}

func RolesFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	roles, _ := ctx.Value(ContextRolesKey).([]string)
	return roles
}

// WithTimeout returns a context with timeout, defaulting to 30 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 30 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
