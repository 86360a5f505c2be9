package models

import "time"

// Magnitude 可选数值字段（impact_g / threshold_g）
// Known=false 表示字段存在但无法解析，显示为“未知”
type Magnitude struct {
	Value float64 `json:"value"`
	Known bool    `json:"known"`
}

// FallEvent 归一化后的跌倒事件
type FallEvent struct {
	IsFall     bool       `json:"is_fall"`
	Kind       string     `json:"kind"`
	ImpactG    *Magnitude `json:"impact_g,omitempty"`
	ThresholdG *Magnitude `json:"threshold_g,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	// TimestampFromReceipt 设备未提供（或无法解析）时间戳，Timestamp 取接收时间
	TimestampFromReceipt bool   `json:"timestamp_from_receipt"`
	RawSummary           string `json:"raw_summary"`
}

// AlertMessage 发送给看护人的提醒文本
type AlertMessage struct {
	Text string `json:"text"`
}

// PushRequest 主动推送请求
type PushRequest struct {
	RecipientID string
	Text        string
}

// ReplyRequest 回复请求（使用平台下发的 reply token）
type ReplyRequest struct {
	ReplyHandle string
	Text        string
}

// WebhookCallbackEvent 平台回调中提取出的回复句柄
type WebhookCallbackEvent struct {
	ReplyHandle string
	Present     bool
}
