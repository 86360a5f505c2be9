package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedInput 请求体不是合法 JSON
var ErrMalformedInput = errors.New("malformed telemetry body")

// TelemetryKind 设备上报数据的形态
type TelemetryKind int

const (
	// KindUnknown 无法识别关键字（null、空 body、数字、数组、无 message/event 的对象）
	KindUnknown TelemetryKind = iota
	// KindKeyword 旧版设备直接上报字符串，如 "fall"
	KindKeyword
	// KindMessage 对象带 message 字段
	KindMessage
	// KindEvent 对象带 event 字段，可附带 impact_g / threshold_g / timestamp
	KindEvent
)

func (k TelemetryKind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindMessage:
		return "message"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// RawTelemetry 设备上报的原始数据（tagged union）
//
// Keyword is set for KindKeyword and KindMessage. Fields is the event object
// for KindEvent. Value keeps the decoded body for summaries of unknown shapes.
type RawTelemetry struct {
	Kind    TelemetryKind
	Keyword string
	Fields  map[string]any
	Value   any
}

// ParseRawTelemetry decodes a device body and resolves which accepted shape it
// is. An empty body is not an error: it resolves to KindUnknown with a nil
// Value so that it classifies as "no message".
func ParseRawTelemetry(body []byte) (RawTelemetry, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return RawTelemetry{Kind: KindUnknown}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return RawTelemetry{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	// trailing garbage after the first value
	if dec.More() {
		return RawTelemetry{}, fmt.Errorf("%w: unexpected data after JSON value", ErrMalformedInput)
	}
	return ResolveTelemetry(v), nil
}

// ResolveTelemetry 按优先级判定形态：字符串 → message → event → unknown
func ResolveTelemetry(v any) RawTelemetry {
	switch val := v.(type) {
	case string:
		return RawTelemetry{Kind: KindKeyword, Keyword: val, Value: val}
	case map[string]any:
		// a non-null message decides alone; the outer event is not consulted
		if msg, ok := val["message"]; ok && msg != nil {
			switch m := msg.(type) {
			case string:
				return RawTelemetry{Kind: KindMessage, Keyword: m, Value: val}
			case map[string]any:
				// devices that wrap the event object under "message"
				if _, hasEvent := m["event"]; hasEvent {
					return RawTelemetry{Kind: KindEvent, Fields: m, Value: m}
				}
			}
			return RawTelemetry{Kind: KindUnknown, Value: msg}
		}
		if _, ok := val["event"]; ok {
			return RawTelemetry{Kind: KindEvent, Fields: val, Value: val}
		}
		return RawTelemetry{Kind: KindUnknown, Value: val}
	default:
		return RawTelemetry{Kind: KindUnknown, Value: val}
	}
}
