package common

import "context"

type ctxKey int

const (
	userIDKey ctxKey = iota
	handleKey
)

// WithIdentity stores the authenticated caller in ctx.
func WithIdentity(ctx context.Context, userID uint64, handle string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, handleKey, handle)
}

func UserIDFromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(userIDKey).(uint64)
	return id, ok && id != 0
}

func HandleFromContext(ctx context.Context) string {
	h, _ := ctx.Value(handleKey).(string)
	return h
}
