package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCallbackEvent(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		present bool
		handle  string
	}{
		{"message event", `{"destination":"x","events":[{"type":"message","replyToken":"rt-1","message":{"type":"text","text":"hi"}}]}`, true, "rt-1"},
		{"first event wins", `{"events":[{"type":"follow","replyToken":"rt-a"},{"type":"message","replyToken":"rt-b"}]}`, true, "rt-a"},
		{"any event type", `{"events":[{"type":"unfollow","replyToken":"rt-u"}]}`, true, "rt-u"},
		{"empty events", `{"events":[]}`, false, ""},
		{"no events key", `{}`, false, ""},
		{"first event without token", `{"events":[{"type":"unsend"}]}`, false, ""},
		{"invalid json", `{"events":`, false, ""},
		{"empty body", ``, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ExtractCallbackEvent([]byte(tt.body))
			assert.Equal(t, tt.present, ev.Present)
			assert.Equal(t, tt.handle, ev.ReplyHandle)
		})
	}
}
