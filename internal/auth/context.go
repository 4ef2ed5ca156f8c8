package auth

import "context"

type ctxKey struct{}

func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxKey{}, email)
}

// EmailFrom returns the verified email stored by the identity middleware.
func EmailFrom(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(ctxKey{}).(string)
	return email, ok && email != ""
}
