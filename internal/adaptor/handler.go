package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"account-service/internal/usecase"
	"account-service/pkg/utils"
	"account-service/pkg/webhook"

	"go.uber.org/zap"
)

// maxJSONBody caps request bodies decoded by handlers.
const maxJSONBody = 1 << 20

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Webhook *WebhookHandler
}

func NewHandler(service *usecase.Service, relay *webhook.Relay, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		User:    NewUserHandler(service.User, log),
		Webhook: NewWebhookHandler(relay, log),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// handleServiceError maps a service failure to the envelope; client errors log at warn.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) || appErr.Kind == utils.KindInternal {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	log.Warn(operation+" failed",
		zap.String("reason", appErr.Message),
		zap.Int("status", appErr.StatusCode()),
		zap.String("fields", utils.FormatValidationErrors(appErr.Fields)),
	)
	utils.ResponseError(w, appErr)
}
