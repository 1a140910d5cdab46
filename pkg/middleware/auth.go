package middleware

import (
	"errors"
	"net/http"
	"strings"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"
	"account-service/pkg/token"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenParser resolves a bearer token of a given purpose to its Auth id.
type TokenParser interface {
	Parse(tokenStr string, purpose token.Purpose) (uuid.UUID, error)
}

// Authenticate middleware untuk validasi access token JWT
func Authenticate(parser TokenParser, logger *zap.Logger) func(http.Handler) http.Handler {
	return bearer(parser, token.PurposeAccess, logger)
}

// RecoveryAuthorized admits only callers holding a recovery token from /recovery-verify.
func RecoveryAuthorized(parser TokenParser, logger *zap.Logger) func(http.Handler) http.Handler {
	return bearer(parser, token.PurposeRecovery, logger)
}

func bearer(parser TokenParser, purpose token.Purpose, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			scheme, raw, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}
			raw = strings.TrimSpace(raw)

			authID, err := parser.Parse(raw, purpose)
			if err != nil {
				logger.Warn("Rejected bearer token",
					zap.String("purpose", string(purpose)),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				if errors.Is(err, token.ErrTokenExpired) {
					utils.ResponseUnauthorized(w, "Token expired")
					return
				}
				utils.ResponseUnauthorized(w, "Invalid token")
				return
			}

			ctx := utils.SetAuthContext(r.Context(), authID)
			ctx = utils.SetTokenContext(ctx, raw)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin - middleware cek role admin
func Admin(authRepo repository.AuthRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authID, ok := utils.GetAuthIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			auth, err := authRepo.FindByID(r.Context(), authID)
			if err != nil {
				logger.Error("Admin check: failed to get account",
					zap.Error(err), zap.String("auth_id", authID.String()))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			if auth == nil || auth.Role != entity.RoleAdmin {
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("auth_id", authID.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
