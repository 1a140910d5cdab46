package wire

import (
	"account-service/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireWebhook mounts the payment webhook; it is signature-checked, not token-checked.
func wireWebhook(r chi.Router, webhookHandler *adaptor.WebhookHandler) {
	r.Post("/api/webhook", webhookHandler.Receive)
}
