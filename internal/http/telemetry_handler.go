package httpapi

import (
	"errors"
	"net/http"
	"time"

	"smartcane-relay/internal/auth"
	"smartcane-relay/internal/metrics"
	"smartcane-relay/internal/models"
	"smartcane-relay/internal/service"

	"go.uber.org/zap"
)

// TelemetryHandler POST /iot 设备上报
type TelemetryHandler struct {
	auth    *auth.Authenticator
	relay   *service.RelayService
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewTelemetryHandler 创建设备上报 Handler
func NewTelemetryHandler(a *auth.Authenticator, relay *service.RelayService, logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		auth:    a,
		relay:   relay,
		logger:  logger,
		nowFunc: time.Now,
	}
}

func (h *TelemetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	receivedAt := h.nowFunc()

	if !h.auth.Authorize(r.Header.Get(auth.HeaderDeviceKey)) {
		metrics.IncTelemetry(metrics.TelemetryUnauthorized)
		h.logger.Warn("Rejected device request", zap.String("remote_addr", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, Fail("Unauthorized"))
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		metrics.IncTelemetry(metrics.TelemetryMalformed)
		h.logger.Warn("Failed to read telemetry body",
			zap.Bool("too_large", isBodyTooLarge(err)),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadRequest, Fail("Invalid JSON"))
		return
	}
	raw, err := models.ParseRawTelemetry(body)
	if err != nil {
		metrics.IncTelemetry(metrics.TelemetryMalformed)
		h.logger.Debug("Invalid telemetry body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Fail("Invalid JSON"))
		return
	}

	out, err := h.relay.HandleTelemetry(r.Context(), raw, receivedAt)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, ErrorResult{Error: "line_send_failed", Detail: err.Error()})
		return
	}

	res := Ok()
	res.Action = string(out.Action)
	switch out.Action {
	case service.ActionSent:
		res.Text = out.Text
	case service.ActionIgnored:
		res.Reason = "not fall"
	}
	writeJSON(w, http.StatusOK, res)
}

// isBodyTooLarge 判断是否因为超过大小限制而失败
func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
