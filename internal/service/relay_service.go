package service

import (
	"context"
	"time"

	"smartcane-relay/internal/evaluator"
	"smartcane-relay/internal/metrics"
	"smartcane-relay/internal/models"
	"smartcane-relay/internal/normalizer"
	"smartcane-relay/internal/notifier"
	"smartcane-relay/internal/store"
	"smartcane-relay/internal/webhook"

	"go.uber.org/zap"
)

// Action 处理结果
type Action string

const (
	ActionSent      Action = "sent_line"
	ActionIgnored   Action = "ignored"
	ActionDebounced Action = "debounced"
)

// Outcome 单次设备上报的处理结果
type Outcome struct {
	Action Action
	Event  models.FallEvent
	Text   string
}

// RelayService 设备上报 → 归一化 → 跌倒判定 → 推送；平台回调 → 回复
type RelayService struct {
	evaluator   *evaluator.FallEvaluator
	dispatcher  notifier.Dispatcher
	debouncer   store.Debouncer
	caregiverID string
	greeting    string
	logger      *zap.Logger
}

// RelayOptions RelayService 依赖
type RelayOptions struct {
	Evaluator   *evaluator.FallEvaluator
	Dispatcher  notifier.Dispatcher
	Debouncer   store.Debouncer
	CaregiverID string
	Greeting    string
	Logger      *zap.Logger
}

// NewRelayService 创建 RelayService
func NewRelayService(opts RelayOptions) *RelayService {
	if opts.Evaluator == nil {
		opts.Evaluator = evaluator.NewFallEvaluator(nil)
	}
	if opts.Debouncer == nil {
		opts.Debouncer = store.NoopDebouncer{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &RelayService{
		evaluator:   opts.Evaluator,
		dispatcher:  opts.Dispatcher,
		debouncer:   opts.Debouncer,
		caregiverID: opts.CaregiverID,
		greeting:    opts.Greeting,
		logger:      opts.Logger,
	}
}

// HandleTelemetry runs one resolved telemetry value through the pipeline.
// A non-nil error means a fall was detected but the caregiver push failed.
func (s *RelayService) HandleTelemetry(ctx context.Context, raw models.RawTelemetry, receivedAt time.Time) (Outcome, error) {
	ev := normalizer.Normalize(raw, receivedAt)

	alert, isFall := s.evaluator.Evaluate(ev)
	if !isFall {
		s.logger.Debug("Telemetry ignored, not a fall",
			zap.String("kind", ev.Kind),
			zap.String("summary", ev.RawSummary),
		)
		metrics.IncTelemetry(metrics.TelemetryIgnored)
		return Outcome{Action: ActionIgnored, Event: ev}, nil
	}

	allowed, err := s.debouncer.Allow(ctx, s.caregiverID)
	if err != nil {
		// 抑制存储不可用时仍然发送
		s.logger.Warn("Debounce check failed, sending alert anyway", zap.Error(err))
		allowed = true
	}
	if !allowed {
		s.logger.Info("Fall alert suppressed inside debounce window")
		metrics.IncTelemetry(metrics.TelemetryDebounced)
		return Outcome{Action: ActionDebounced, Event: ev, Text: alert.Text}, nil
	}

	if err := s.dispatcher.Push(ctx, models.PushRequest{RecipientID: s.caregiverID, Text: alert.Text}); err != nil {
		s.logger.Error("Failed to push fall alert",
			zap.String("kind", ev.Kind),
			zap.Error(err),
		)
		if relErr := s.debouncer.Release(ctx, s.caregiverID); relErr != nil {
			s.logger.Warn("Failed to release debounce window", zap.Error(relErr))
		}
		metrics.IncTelemetry(metrics.TelemetryDispatchFail)
		return Outcome{Action: ActionSent, Event: ev, Text: alert.Text}, err
	}

	s.logger.Info("Fall alert pushed",
		zap.String("kind", ev.Kind),
		zap.Bool("device_timestamp", !ev.TimestampFromReceipt),
	)
	metrics.IncTelemetry(metrics.TelemetrySent)
	return Outcome{Action: ActionSent, Event: ev, Text: alert.Text}, nil
}

// HandleCallback replies to the first event of a platform callback with the
// greeting. It never fails: the reply is best-effort.
func (s *RelayService) HandleCallback(ctx context.Context, body []byte) {
	cb := webhook.ExtractCallbackEvent(body)
	if !cb.Present {
		s.logger.Debug("Webhook callback without reply token")
		return
	}
	s.dispatcher.Reply(ctx, models.ReplyRequest{ReplyHandle: cb.ReplyHandle, Text: s.greeting}).Acknowledge(s.logger)
}
