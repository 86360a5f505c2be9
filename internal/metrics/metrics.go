package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "smartcane_"

// Result labels.
const (
	ResultSuccess        = "success"
	ResultConfigError    = "config_error"
	ResultProviderError  = "provider_error"
	ResultTransportError = "transport_error"

	TelemetrySent         = "sent"
	TelemetryIgnored      = "ignored"
	TelemetryDebounced    = "debounced"
	TelemetryUnauthorized = "unauthorized"
	TelemetryMalformed    = "malformed"
	TelemetryDispatchFail = "dispatch_failed"
)

var (
	registerOnce sync.Once

	telemetryTotal  *prometheus.CounterVec
	dispatchTotal   *prometheus.CounterVec
	dispatchLatency *prometheus.HistogramVec
)

// Init registers relay metrics with reg. Passing nil uses the default
// registerer. Only the first call has any effect.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		telemetryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "telemetry_total",
				Help: "Device telemetry requests by outcome",
			},
			[]string{"result"},
		)
		dispatchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dispatch_total",
				Help: "Messaging provider calls by mode and result",
			},
			[]string{"mode", "result"},
		)
		dispatchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "dispatch_latency_seconds",
				Help:    "Messaging provider call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		)
		reg.MustRegister(telemetryTotal, dispatchTotal, dispatchLatency)
	})
}

// IncTelemetry counts one device telemetry outcome.
func IncTelemetry(result string) {
	if result == "" {
		result = "unknown"
	}
	if telemetryTotal != nil {
		telemetryTotal.WithLabelValues(result).Inc()
	}
}

// ObserveDispatch records a provider call. Calls that never reached the
// network pass a zero duration and skip the latency histogram.
func ObserveDispatch(mode, result string, duration time.Duration) {
	if dispatchTotal != nil {
		dispatchTotal.WithLabelValues(mode, result).Inc()
	}
	if duration > 0 && dispatchLatency != nil {
		dispatchLatency.WithLabelValues(mode).Observe(duration.Seconds())
	}
}
