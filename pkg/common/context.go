package common

import "context"

type contextKey struct{ name string }

var subjectKey = contextKey{"subject"}

// WithSubject stores the authenticated token subject on ctx
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// GetSubject returns the authenticated token subject, if any
func GetSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok && subject != ""
}
