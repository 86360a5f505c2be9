package normalizer

import (
	"testing"
	"time"

	"smartcane-relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var receivedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func normalize(t *testing.T, body string) models.FallEvent {
	t.Helper()
	raw, err := models.ParseRawTelemetry([]byte(body))
	require.NoError(t, err)
	return Normalize(raw, receivedAt)
}

func TestNormalize_FallKeywordAcrossShapes(t *testing.T) {
	bodies := []string{
		`"fall"`,
		`"FALL"`,
		`"  Fall\n"`,
		`{"message":"fall"}`,
		`{"message":" fAlL "}`,
		`{"event":"FALL"}`,
		`{"event":"fall ","impact_g":"oops"}`,
		`{"message":{"type":"event","event":"fall","impact_g":9}}`,
	}
	for _, body := range bodies {
		ev := normalize(t, body)
		assert.True(t, ev.IsFall, body)
	}
}

func TestNormalize_NonFallKeywords(t *testing.T) {
	bodies := map[string]string{
		`"help"`:                             "Notification: help",
		`"falling"`:                          "Notification: falling",
		`{"message":"battery low"}`:          "Notification: battery low",
		`{"event":"step","steps":10}`:        `Notification: {"event":"step","steps":10}`,
		`{"battery":80}`:                     `Received: {"battery":80}`,
		`42`:                                 "Received: 42",
		`[1,2]`:                              "Received: [1,2]",
		`{"message":5,"event":"fall"}`:       "Received: 5",
		`{"message":{"x":1},"event":"fall"}`: `Received: {"x":1}`,
	}
	for body, summary := range bodies {
		ev := normalize(t, body)
		assert.False(t, ev.IsFall, body)
		assert.Equal(t, summary, ev.RawSummary, body)
	}
}

func TestNormalize_NoMessage(t *testing.T) {
	for _, body := range []string{``, `null`, `""`, `"   "`, `{"message":""}`, `{"event":""}`, `{"event":null}`} {
		ev := normalize(t, body)
		assert.False(t, ev.IsFall, body)
		assert.Equal(t, "no message", ev.RawSummary, body)
	}
}

func TestNormalize_OnlyKeywordDecides(t *testing.T) {
	// high impact without the keyword is still not a fall
	ev := normalize(t, `{"event":"tap","impact_g":30,"threshold_g":8}`)
	assert.False(t, ev.IsFall)
	require.NotNil(t, ev.ImpactG)
	assert.Equal(t, 30.0, ev.ImpactG.Value)

	// message keyword wins over event keyword
	ev = normalize(t, `{"message":"ok","event":"fall"}`)
	assert.False(t, ev.IsFall)
}

func TestNormalize_EventFields(t *testing.T) {
	ev := normalize(t, `{"event":"FALL","impact_g":12.4,"threshold_g":8,"timestamp":1700000000000}`)

	assert.True(t, ev.IsFall)
	assert.Equal(t, "event", ev.Kind)
	require.NotNil(t, ev.ImpactG)
	assert.True(t, ev.ImpactG.Known)
	assert.Equal(t, 12.4, ev.ImpactG.Value)
	require.NotNil(t, ev.ThresholdG)
	assert.Equal(t, 8.0, ev.ThresholdG.Value)
	assert.False(t, ev.TimestampFromReceipt)
	assert.Equal(t, int64(1700000000000), ev.Timestamp.UnixMilli())
}

func TestNormalize_ANormFallback(t *testing.T) {
	ev := normalize(t, `{"event":"fall","a_norm_g":"3.25"}`)
	require.NotNil(t, ev.ImpactG)
	assert.True(t, ev.ImpactG.Known)
	assert.Equal(t, 3.25, ev.ImpactG.Value)

	// impact_g takes precedence
	ev = normalize(t, `{"event":"fall","impact_g":5,"a_norm_g":3}`)
	assert.Equal(t, 5.0, ev.ImpactG.Value)
}

func TestNormalize_DegradedFields(t *testing.T) {
	ev := normalize(t, `{"event":"fall","impact_g":"heavy","threshold_g":{"x":1},"timestamp":"yesterday"}`)

	assert.True(t, ev.IsFall)
	require.NotNil(t, ev.ImpactG)
	assert.False(t, ev.ImpactG.Known)
	require.NotNil(t, ev.ThresholdG)
	assert.False(t, ev.ThresholdG.Known)
	assert.True(t, ev.TimestampFromReceipt)
	assert.Equal(t, receivedAt, ev.Timestamp)
}

func TestNormalize_NonFiniteMagnitudesAreUnknown(t *testing.T) {
	bodies := []string{
		`{"event":"fall","impact_g":"NaN","threshold_g":"Inf"}`,
		`{"event":"fall","impact_g":"-Infinity","threshold_g":"+inf"}`,
		`{"event":"fall","a_norm_g":" nan ","threshold_g":"1e400"}`,
	}
	for _, body := range bodies {
		ev := normalize(t, body)
		assert.True(t, ev.IsFall, body)
		require.NotNil(t, ev.ImpactG, body)
		assert.False(t, ev.ImpactG.Known, body)
		require.NotNil(t, ev.ThresholdG, body)
		assert.False(t, ev.ThresholdG.Known, body)
	}
}

func TestNormalize_AbsentFields(t *testing.T) {
	ev := normalize(t, `{"event":"fall","impact_g":null}`)
	assert.Nil(t, ev.ImpactG)
	assert.Nil(t, ev.ThresholdG)
	assert.True(t, ev.TimestampFromReceipt)

	ev = normalize(t, `{"message":"fall","impact_g":12}`)
	assert.Nil(t, ev.ImpactG)
}

func TestNormalize_TimestampFormats(t *testing.T) {
	tests := map[string]int64{
		`1700000000000`:          1700000000000,
		`1700000000`:             1700000000000,
		`"1700000000000"`:        1700000000000,
		`"2023-11-14T22:13:20Z"`: 1700000000000,
	}
	for ts, want := range tests {
		ev := normalize(t, `{"event":"fall","timestamp":`+ts+`}`)
		assert.False(t, ev.TimestampFromReceipt, ts)
		assert.Equal(t, want, ev.Timestamp.UnixMilli(), ts)
	}

	unusable := []string{`-5`, `0`, `1e300`, `1e15`, `"NaN"`, `"Infinity"`, `"-Inf"`, `"999999999999999999999"`}
	for _, ts := range unusable {
		ev := normalize(t, `{"event":"fall","timestamp":`+ts+`}`)
		assert.True(t, ev.TimestampFromReceipt, ts)
		assert.Equal(t, receivedAt, ev.Timestamp, ts)
	}

	// largest accepted instant still formats as a real date
	ev := normalize(t, `{"event":"fall","timestamp":999999999999999}`)
	assert.False(t, ev.TimestampFromReceipt)
	assert.Equal(t, int64(999999999999999), ev.Timestamp.UnixMilli())
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, body := range []string{`"fall"`, `{"message":"x"}`, `{"event":"fall","impact_g":1,"timestamp":"bad"}`, `null`} {
		raw, err := models.ParseRawTelemetry([]byte(body))
		require.NoError(t, err)
		assert.Equal(t, Normalize(raw, receivedAt), Normalize(raw, receivedAt), body)
	}
}
