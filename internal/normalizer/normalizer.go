package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"smartcane-relay/internal/models"
)

const (
	fallKeyword = "fall"
	noMessage   = "no message"

	// 小于该值的数字时间戳按秒处理，否则按毫秒
	epochMillisThreshold = 1e12
	// 超过该毫秒值（约公元 33658 年）的时间戳不可用
	maxEpochMillis = 1e15
)

// IsFallKeyword 关键字是否为 "fall"（忽略大小写和首尾空白）
func IsFallKeyword(keyword string) bool {
	return strings.EqualFold(strings.TrimSpace(keyword), fallKeyword)
}

// Normalize converts a resolved telemetry value into the canonical FallEvent.
// Only the keyword decides IsFall. Unparseable auxiliary fields never fail
// normalization. receivedAt fills Timestamp when the device sent none.
func Normalize(raw models.RawTelemetry, receivedAt time.Time) models.FallEvent {
	ev := models.FallEvent{
		Kind:                 raw.Kind.String(),
		Timestamp:            receivedAt,
		TimestampFromReceipt: true,
	}

	switch raw.Kind {
	case models.KindKeyword, models.KindMessage:
		classifyKeyword(&ev, raw.Keyword)
	case models.KindEvent:
		classifyKeyword(&ev, stringify(raw.Fields["event"]))
		if !ev.IsFall && strings.TrimSpace(stringify(raw.Fields["event"])) != "" {
			ev.RawSummary = "Notification: " + render(raw.Fields)
		}
		ev.ImpactG = magnitude(raw.Fields, "impact_g", "a_norm_g")
		ev.ThresholdG = magnitude(raw.Fields, "threshold_g")
		if ts, ok := parseTimestamp(raw.Fields["timestamp"]); ok {
			ev.Timestamp = ts
			ev.TimestampFromReceipt = false
		}
	default:
		if raw.Value == nil {
			ev.RawSummary = noMessage
		} else {
			ev.RawSummary = "Received: " + render(raw.Value)
		}
	}

	return ev
}

func classifyKeyword(ev *models.FallEvent, keyword string) {
	switch {
	case strings.TrimSpace(keyword) == "":
		ev.RawSummary = noMessage
	case IsFallKeyword(keyword):
		ev.IsFall = true
		ev.RawSummary = fallKeyword
	default:
		ev.RawSummary = "Notification: " + keyword
	}
}

// magnitude 读取第一个存在的字段；null 视为不存在
func magnitude(fields map[string]any, keys ...string) *models.Magnitude {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			return &models.Magnitude{}
		}
		return &models.Magnitude{Value: f, Known: true}
	}
	return nil
}

// toFloat 只接受有限数值；NaN / Inf 视为无法解析
func toFloat(v any) (float64, bool) {
	f, ok := rawFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// parseTimestamp accepts epoch milliseconds, epoch seconds, numeric strings
// and RFC 3339 strings.
func parseTimestamp(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t, true
		}
	}
	f, ok := toFloat(v)
	if !ok || f <= 0 {
		return time.Time{}, false
	}
	if f < epochMillisThreshold {
		f *= 1000
	}
	if f >= maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(f)), true
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

func render(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
