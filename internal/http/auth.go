package http

import (
	"context"
	"net/http"
	"strings"

	"laporan/internal/auth"
	"laporan/internal/core"
	"laporan/internal/log"
)

type claimsKey struct{}

// requireAuth verifies the bearer token when authentication is enabled and
// stores the claims in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	if s.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, r, auth.ErrInvalidToken)
			return
		}
		claims, err := s.auth.Tokens().Parse(raw)
		if err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).WarnContext(r.Context(), "Token rejected",
				log.FieldPath, r.URL.Path,
				log.FieldError, err)
			writeError(w, r, auth.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUser, claims.Username))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects non-admin users. It is a no-op with authentication disabled.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	if s.auth == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil || claims.Role != core.RoleAdmin {
			writeError(w, r, errForbidden)
			return
		}
		next(w, r)
	}
}

func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return c
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
