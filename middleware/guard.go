// Package middleware adapts HTTP requests to engine verification. It reads
// the Authorization header, calls Authenticate and injects the resulting
// identity into the request context; all trust decisions stay in the engine.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskvault/authcore"
)

// Authenticator is the slice of the engine the guard needs.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (authcore.Identity, error)
}

type identityContextKey struct{}

// IdentityFromContext returns the identity the guard attached to the request.
func IdentityFromContext(ctx context.Context) (authcore.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(authcore.Identity)
	return id, ok
}

// Guard rejects requests without a valid bearer token. The response for any
// failure is a bare 401; nothing about the token is echoed back.
func Guard(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			id, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole wraps Guard and additionally demands a role claim. A valid
// identity without the role gets 403 rather than 401.
func RequireRole(auth Authenticator, role string) func(http.Handler) http.Handler {
	guard := Guard(auth)
	return func(next http.Handler) http.Handler {
		return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || !hasRole(id, role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func hasRole(id authcore.Identity, role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}
	return token, true
}
