package wire

import (
	"account-service/internal/adaptor"
	"account-service/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, deps Dependencies, log *zap.Logger) {
	r.Route("/api/auth", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Post("/register", authHandler.Register)
		r.Post("/activate", authHandler.Activate)
		r.Post("/login", authHandler.Login)
		r.Post("/signin-with-google", authHandler.SignInWithGoogle)
		r.Post("/recovery", authHandler.RequestRecovery)
		r.Post("/recovery-verify", authHandler.VerifyRecovery)
		r.Post("/resend-otp", authHandler.ResendOTP)

		// ==================== RECOVERY ROUTES ====================
		// Reset password - butuh recovery token dari /recovery-verify
		r.With(middleware.RecoveryAuthorized(deps.Tokens, log)).Put("/reset-password", authHandler.ResetPassword)

		// ==================== PROTECTED ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(deps.Tokens, log))
			r.Post("/change-password", authHandler.ChangePassword)
			r.Delete("/delete", authHandler.RemoveAccount)
		})
	})
}
