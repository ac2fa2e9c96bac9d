package auth

import "context"

type ctxKey string

const contextClaimsKey ctxKey = "session_claims"

// ClaimsFromContext returns the verified session claims for the request, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextClaimsKey).(*Claims)
	return claims, ok
}

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextClaimsKey, claims)
}
