package httpapi

import (
	"net/http"

	"smartcane-relay/internal/service"

	"go.uber.org/zap"
)

// WebhookHandler POST /webhook 平台回调，始终返回 200
type WebhookHandler struct {
	relay  *service.RelayService
	logger *zap.Logger
}

func NewWebhookHandler(relay *service.RelayService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{relay: relay, logger: logger}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.logger.Warn("Failed to read webhook body", zap.Error(err))
	} else {
		h.relay.HandleCallback(r.Context(), body)
	}
	writeJSON(w, http.StatusOK, Ok())
}
