package auth

import "context"

type ctxKey string

const claimsKey ctxKey = "authClaims"

// Claims carries the verified token identity. Role and organization
// attributes are NOT trusted from the token; they are loaded from the
// stored user record by the identity resolver.
type Claims struct {
	Subject string
	Email   string
	JWTID   string
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func FromContext(ctx context.Context) Claims {
	if v, ok := ctx.Value(claimsKey).(Claims); ok {
		return v
	}
	return Claims{}
}

func Subject(ctx context.Context) string {
	return FromContext(ctx).Subject
}
