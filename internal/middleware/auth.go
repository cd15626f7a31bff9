package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is what the verifier produces: a stable owner id plus the
// verified-email flag. Everything downstream keys access control on OwnerID.
type Identity struct {
	OwnerID       string `json:"owner_id"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// BearerAuth validates an HMAC-signed bearer token and stores the identity
// in the request context. Health and metrics endpoints stay open.
func BearerAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if raw == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			ident, err := verifyToken(raw, secret)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifyToken(raw string, secret []byte) (Identity, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !tok.Valid {
		return Identity{}, fmt.Errorf("token invalid")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, fmt.Errorf("token has no subject")
	}
	email, _ := claims["email"].(string)
	verified, _ := claims["email_verified"].(bool)
	return Identity{OwnerID: sub, Email: email, EmailVerified: verified}, nil
}

// IdentityFromContext extracts the verified identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok
}

// WithIdentity is used by tests to inject an identity without a token.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}
