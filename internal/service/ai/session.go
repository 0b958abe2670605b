package ai

import "context"

type sessionKey struct{}

// WithSessionID attaches the conversation correlation key to ctx.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionIDFrom returns the session attached by WithSessionID, if any.
func SessionIDFrom(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionKey{}).(string)
	return sessionID
}
