package auth

import (
	"errors"
	"net/http"

	"github.com/frahmantamala/subscription-sales/internal"
	"github.com/frahmantamala/subscription-sales/internal/transport"
	"github.com/frahmantamala/subscription-sales/pkg/logger"
)

type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

type Handler struct {
	*transport.BaseHandler
	Verifier TokenVerifier
}

func NewHandler(baseHandler *transport.BaseHandler, verifier TokenVerifier) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Verifier:    verifier,
	}
}

func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeInvalidToken))
			return
		}

		claims, err := h.Verifier.Verify(token)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				h.WriteAppError(w, internal.ErrTokenExpired)
				return
			}
			h.WriteAppError(w, internal.ErrInvalidToken)
			return
		}

		ctx := internal.ContextWithSubject(r.Context(), claims.Subject, claims.Roles)
		ctx = logger.With(ctx, "subject", claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles lets the request through when the authenticated subject holds any of roles.
func (h *Handler) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &Claims{Roles: internal.RolesFromContext(r.Context())}
			if !claims.HasAnyRole(roles...) {
				h.Logger.Warn("access denied: subject lacks required roles",
					"subject", internal.SubjectFromContext(r.Context()),
					"required_roles", roles,
					"roles", claims.Roles)
				h.WriteAppError(w, internal.NewForbiddenError("insufficient permissions", internal.ErrCodeForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
