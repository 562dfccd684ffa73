package auth

import "context"

type contextKey struct{}

type AuthContext struct {
	Email     string
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// Email returns the logged-in user's email, or "" for anonymous requests.
func Email(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Email
}

func IsAuthenticated(ctx context.Context) bool {
	return Email(ctx) != ""
}
