package adaptor

import (
	"errors"
	"io"
	"net/http"

	"account-service/pkg/utils"
	"account-service/pkg/webhook"

	"go.uber.org/zap"
)

// maxWebhookBody is the largest event accepted for relay.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	relay *webhook.Relay
	log   *zap.Logger
}

func NewWebhookHandler(relay *webhook.Relay, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		relay: relay,
		log:   log.With(zap.String("handler", "webhook")),
	}
}

// Receive handles POST /api/webhook. The body is kept as raw bytes so the signature covers exactly what was sent.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ResponseJSON(w, http.StatusRequestEntityTooLarge, false, "Payload too large", nil, nil)
			return
		}
		utils.ResponseBadRequest(w, "Unable to read request body", nil)
		return
	}

	err = h.relay.Handle(r.Context(), payload, r.Header.Get("Content-Type"), r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		var upstream *webhook.UpstreamError
		switch {
		case webhook.IsSignatureError(err):
			h.log.Warn("Webhook signature rejected", zap.Error(err))
			utils.ResponseBadRequest(w, "Invalid webhook signature", nil)
		case errors.As(err, &upstream):
			h.log.Error("Upstream rejected webhook", zap.Int("status", upstream.StatusCode))
			utils.ResponseJSON(w, http.StatusBadGateway, false, "Upstream webhook handler failed", nil, nil)
		default:
			h.log.Error("Failed to relay webhook", zap.Error(err))
			utils.ResponseJSON(w, http.StatusBadGateway, false, "Upstream webhook handler unavailable", nil, nil)
		}
		return
	}

	utils.ResponseSuccess(w, "Webhook received", nil)
}
