// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	StreamsStarted      prometheus.Counter
	StreamsStopped      prometheus.Counter
	StartFailures       prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	ChannelSyncCycles   prometheus.Counter

	// Histograms (seconds)
	ResolveDuration prometheus.Observer
	NotifyDuration  prometheus.Observer

	// Gauges
	ActiveStreamsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		StreamsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_streams_started_total", Help: "Number of live stream relays started"})
		StreamsStopped = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_streams_stopped_total", Help: "Number of live stream relays stopped"})
		StartFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_start_failures_total", Help: "Number of relay start attempts that failed"})
		NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_notifications_sent_total", Help: "Number of channel announcements delivered"})
		NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_notifications_failed_total", Help: "Number of channel announcements that failed to send"})
		ChannelSyncCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_channel_sync_cycles_total", Help: "Number of channel sync cycles run"})
		ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "relay_resolve_duration_seconds", Help: "YouTube metadata resolution duration seconds", Buckets: prometheus.DefBuckets})
		NotifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "relay_notify_duration_seconds", Help: "Telegram announcement send duration seconds", Buckets: prometheus.DefBuckets})
		ActiveStreamsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "relay_active_streams", Help: "Current number of active relays"})
	})
}

// The increment helpers are nil-safe so library code can record metrics
// without caring whether Init ran (it doesn't in most unit tests).

func IncStreamStarted() {
	if StreamsStarted != nil {
		StreamsStarted.Inc()
	}
}

func IncStreamStopped() {
	if StreamsStopped != nil {
		StreamsStopped.Inc()
	}
}

func IncStartFailure() {
	if StartFailures != nil {
		StartFailures.Inc()
	}
}

func IncNotificationSent() {
	if NotificationsSent != nil {
		NotificationsSent.Inc()
	}
}

func IncNotificationFailed() {
	if NotificationsFailed != nil {
		NotificationsFailed.Inc()
	}
}

func IncChannelSyncCycle() {
	if ChannelSyncCycles != nil {
		ChannelSyncCycles.Inc()
	}
}

// SetActiveStreams records the current active relay count.
func SetActiveStreams(n int) {
	if ActiveStreamsGauge != nil {
		ActiveStreamsGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
