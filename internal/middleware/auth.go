package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/sharethebill/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// FIDKey is the context key for storing the authenticated fid.
const FIDKey contextKey = "fid"

// GetFID extracts the authenticated fid from the context.
// Returns 0 if not found.
func GetFID(ctx context.Context) int64 {
	fid, _ := ctx.Value(FIDKey).(int64)
	return fid
}

// WithFID returns a copy of ctx carrying fid.
func WithFID(ctx context.Context, fid int64) context.Context {
	return context.WithValue(ctx, FIDKey, fid)
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the caller's fid to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			// Parse Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithFID(ctx, claims.FID), req)
		}
	}
}
