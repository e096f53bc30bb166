package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/response"
)

// contextKey is unexported so no other package can read or overwrite the
// principal stored by this one.
type contextKey string

const principalKey contextKey = "principal"

// RequireAuth rejects requests without a valid token with a 401 envelope.
// On success the Principal is stored in the request context.
//
// The token is read from the Authorization header first. The "token"
// cookie is accepted as a fallback for browser clients.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := extractPrincipal(r, tokens)
			if err != nil {
				_ = response.Fail(http.StatusUnauthorized, "valid authentication required").Write(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuth attaches a Principal when a valid token is present and lets
// anonymous requests through untouched. Used on the public routes.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, err := extractPrincipal(r, tokens); err == nil {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole must run after RequireAuth. It answers 403 when the principal
// holds none of the given roles.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				_ = response.Fail(http.StatusUnauthorized, "valid authentication required").Write(w)
				return
			}
			if !p.HasAnyRole(roles...) {
				_ = response.Fail(http.StatusForbidden, "Access denied").Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns (Principal{}, false) for anonymous requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.Email != ""
}

var errNoToken = errors.New("auth: no token")

func extractPrincipal(r *http.Request, tokens *TokenService) (Principal, error) {
	raw := bearerToken(r)
	if raw == "" {
		cookie, err := r.Cookie("token")
		if err != nil || cookie.Value == "" {
			return Principal{}, errNoToken
		}
		raw = cookie.Value
	}
	return tokens.Validate(raw)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
