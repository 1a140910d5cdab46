// internal/wire/wire.go
package wire

import (
	"net/http"

	"account-service/internal/adaptor"
	"account-service/internal/data/repository"
	"account-service/internal/usecase"
	"account-service/pkg/middleware"
	"account-service/pkg/notify"
	"account-service/pkg/token"
	"account-service/pkg/utils"
	"account-service/pkg/webhook"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router *chi.Mux
}

// Dependencies are the infrastructure pieces built in cmd and shared by every route.
type Dependencies struct {
	Repo     *repository.Repository
	Tokens   *token.Issuer
	Notifier notify.Notifier
	// Avatars is nil when object storage is not configured.
	Avatars usecase.AvatarUploader
	Relay   *webhook.Relay
}

// Wiring menginisialisasi semua dependencies
func Wiring(deps Dependencies, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(deps.Repo, deps.Tokens, deps.Notifier, deps.Avatars, config, logger)
	handler := adaptor.NewHandler(service, deps.Relay, logger)

	router := setupRouter(handler, deps, logger)

	return &App{
		Router: router,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(handler *adaptor.Handler, deps Dependencies, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wireAuth(r, handler.Auth, deps, logger)
	wireUser(r, handler.User, deps, logger)
	wireWebhook(r, handler.Webhook)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseJSON(w, http.StatusMethodNotAllowed, false, "Method not allowed", nil, nil)
	})

	return r
}
