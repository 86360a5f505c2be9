package mqtt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartcane-relay/internal/metrics"
	"smartcane-relay/internal/models"
	"smartcane-relay/internal/service"

	"go.uber.org/zap"
)

// TelemetryProcessor 处理一条设备上报
type TelemetryProcessor interface {
	HandleTelemetry(ctx context.Context, raw models.RawTelemetry, receivedAt time.Time) (service.Outcome, error)
}

// TelemetrySubscriber feeds device telemetry published on the broker into the
// same pipeline as POST /iot. Broker credentials take the place of the
// shared-secret header.
type TelemetrySubscriber struct {
	processor TelemetryProcessor
	topic     string
	qos       byte
	timeout   time.Duration
	logger    *zap.Logger
}

// NewTelemetrySubscriber 创建订阅者；timeout 限制单条消息的处理时间
func NewTelemetrySubscriber(processor TelemetryProcessor, topic string, qos byte, timeout time.Duration, logger *zap.Logger) *TelemetrySubscriber {
	return &TelemetrySubscriber{
		processor: processor,
		topic:     topic,
		qos:       qos,
		timeout:   timeout,
		logger:    logger,
	}
}

// HandleMessage 处理 MQTT 消息
func (s *TelemetrySubscriber) HandleMessage(topic string, payload []byte) error {
	receivedAt := time.Now()
	deviceID := deviceFromTopic(topic)

	raw, err := models.ParseRawTelemetry(payload)
	if err != nil {
		metrics.IncTelemetry(metrics.TelemetryMalformed)
		return fmt.Errorf("device %s: %w", deviceID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	out, err := s.processor.HandleTelemetry(ctx, raw, receivedAt)
	if err != nil {
		return fmt.Errorf("device %s: failed to deliver fall alert: %w", deviceID, err)
	}

	s.logger.Debug("MQTT telemetry processed",
		zap.String("device_id", deviceID),
		zap.String("action", string(out.Action)),
	)
	return nil
}

// Start 订阅设备上报主题
func (s *TelemetrySubscriber) Start(client *Client) error {
	if err := client.Subscribe(s.topic, s.qos, s.HandleMessage); err != nil {
		return err
	}
	s.logger.Info("MQTT telemetry subscriber started",
		zap.String("topic", s.topic),
		zap.Uint8("qos", s.qos),
	)
	return nil
}

// Stop 取消订阅
func (s *TelemetrySubscriber) Stop(client *Client) error {
	return client.Unsubscribe(s.topic)
}

// deviceFromTopic 取 smartcane/<device>/telemetry 中的设备段
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 3 {
		return parts[1]
	}
	return topic
}
