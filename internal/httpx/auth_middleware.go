package httpx

import (
	"net/http"
	"strings"

	"bookstore/internal/platform/crypto"
)

// bearerToken extracts the credential from an Authorization header. The
// scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthMiddleware admits requests carrying a valid operator bearer token.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="bookstore"`)
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token", nil)
				return
			}

			claims, err := crypto.ParseToken(secret, token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="bookstore", error="invalid_token"`)
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", nil)
				return
			}
			if claims.Role != crypto.RoleOperator {
				JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "Operator role required", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), claims.Sub, claims.Role)))
		})
	}
}
