package wire

import (
	"account-service/internal/adaptor"
	"account-service/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures user management routes with role-based access control
func wireUser(r chi.Router, userHandler *adaptor.UserHandler, deps Dependencies, log *zap.Logger) {
	r.Route("/api/users", func(r chi.Router) {
		// ==================== PROTECTED USER ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(deps.Tokens, log))
			r.Get("/me", userHandler.GetProfile)
			r.Patch("/update/{id}", userHandler.UpdateProfile) // owner or admin, checked in service
			r.Post("/avatar-upload-url", userHandler.AvatarUploadURL)

			// ==================== ADMIN ROUTES ====================
			r.With(middleware.Admin(deps.Repo.Auth, log)).Get("/", userHandler.ListUsers) // GET /api/users/?page=1&per_page=10
		})

		// TODO: gate block/unblock behind Authenticate + Admin once the admin console sends tokens.
		r.Post("/block/{authId}", userHandler.Block)
		r.Post("/unblock/{authId}", userHandler.Unblock)
	})
}
