package notifier

import "go.uber.org/zap"

// BestEffort 回复路径的发送结果
//
// A failed reply is never propagated: the platform callback is acknowledged
// with 200 regardless. Callers consume the result through Acknowledge so the
// absorption stays visible at the call site.
type BestEffort struct {
	Mode string
	Err  error
}

// Delivered 是否发送成功
func (r BestEffort) Delivered() bool {
	return r.Err == nil
}

// Acknowledge logs a failed delivery and drops it.
func (r BestEffort) Acknowledge(logger *zap.Logger) {
	if r.Err == nil {
		return
	}
	logger.Warn("best-effort delivery failed, ignoring",
		zap.String("mode", r.Mode),
		zap.Error(r.Err),
	)
}
