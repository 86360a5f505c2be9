package evaluator

import (
	"strconv"
	"strings"
	"time"

	"smartcane-relay/internal/models"
)

const (
	// AlertHeader 看护人提醒的固定标题
	AlertHeader = "⚠️ ตรวจพบการล้มจากไม้เท้า"

	impactLabel    = "แรงกระแทก"
	thresholdLabel = "ค่าเกณฑ์"
	timeLabel      = "เวลา"
	unknownValue   = "ไม่ทราบ"

	timeLayout = "02/01/2006 15:04:05"
)

// FallEvaluator 跌倒判定与提醒文本渲染
//
// Evaluate is a pure function of the FallEvent, except that events without a
// device timestamp carry the receipt time, so their rendered time line differs
// between deliveries of the same telemetry.
type FallEvaluator struct {
	loc *time.Location
}

// NewFallEvaluator 创建评估器；loc 为 nil 时使用 UTC
func NewFallEvaluator(loc *time.Location) *FallEvaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &FallEvaluator{loc: loc}
}

// Evaluate returns the caregiver alert for a fall. ok is false for non-fall
// events and the caller must not dispatch anything.
func (e *FallEvaluator) Evaluate(ev models.FallEvent) (msg models.AlertMessage, ok bool) {
	if !ev.IsFall {
		return models.AlertMessage{}, false
	}

	lines := []string{AlertHeader}
	if ev.ImpactG != nil {
		lines = append(lines, impactLabel+": "+formatMagnitude(ev.ImpactG))
	}
	if ev.ThresholdG != nil {
		lines = append(lines, thresholdLabel+": "+formatMagnitude(ev.ThresholdG))
	}
	if !ev.Timestamp.IsZero() {
		lines = append(lines, timeLabel+": "+ev.Timestamp.In(e.loc).Format(timeLayout))
	}

	return models.AlertMessage{Text: strings.Join(lines, "\n")}, true
}

func formatMagnitude(m *models.Magnitude) string {
	if !m.Known {
		return unknownValue
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64) + " G"
}
