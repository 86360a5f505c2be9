package webhook

import (
	"encoding/json"

	"smartcane-relay/internal/models"
)

// callbackBody LINE webhook 回调体（只关心 replyToken）
type callbackBody struct {
	Events []struct {
		Type       string `json:"type"`
		ReplyToken string `json:"replyToken"`
	} `json:"events"`
}

// ExtractCallbackEvent returns the reply token of the first event, whatever
// its type. Bodies that do not parse, or carry no events, yield an absent
// handle.
func ExtractCallbackEvent(body []byte) models.WebhookCallbackEvent {
	var cb callbackBody
	if err := json.Unmarshal(body, &cb); err != nil {
		return models.WebhookCallbackEvent{}
	}
	if len(cb.Events) == 0 || cb.Events[0].ReplyToken == "" {
		return models.WebhookCallbackEvent{}
	}
	return models.WebhookCallbackEvent{ReplyHandle: cb.Events[0].ReplyToken, Present: true}
}
