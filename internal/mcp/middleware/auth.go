package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/btouchard/habitual/internal/auth"
)

// TokenValidator checks a bearer token and returns the name of its owner.
type TokenValidator interface {
	Empty() bool
	Validate(token string) (string, error)
}

var _ TokenValidator = (*auth.TokenSet)(nil)

type ctxKey struct{}

// TokenName returns the name of the API token that authenticated the request.
func TokenName(ctx context.Context) string {
	name, _ := ctx.Value(ctxKey{}).(string)
	return name
}

// BearerAuth returns middleware that validates API bearer tokens.
// When no token is configured every request passes through.
func BearerAuth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokens.Empty() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				challengeAuth(w, "missing Authorization header")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				challengeAuth(w, "invalid Authorization header format")
				return
			}

			name, err := tokens.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				slog.Debug("token validation failed", "remote", r.RemoteAddr, "error", err)
				invalidToken(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, name)))
		})
	}
}

// challengeAuth sends a 401 with a Bearer challenge for unauthenticated requests.
func challengeAuth(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="habitual"`)
	http.Error(w, msg, http.StatusUnauthorized)
}

// invalidToken sends a 401 for requests with an unknown Bearer token.
func invalidToken(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	http.Error(w, msg, http.StatusUnauthorized)
}
