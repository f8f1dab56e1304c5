package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestHelpersAreNilSafeBeforeInit(t *testing.T) {
	// Before Init the metric vars are nil; the helpers must not panic.
	IncStreamStarted()
	IncStreamStopped()
	IncStartFailure()
	IncNotificationSent()
	IncNotificationFailed()
	IncChannelSyncCycle()
	SetActiveStreams(3)
	if d := TimeFunc(nil, func() { time.Sleep(time.Millisecond) }); d <= 0 {
		t.Fatalf("expected positive duration, got %v", d)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init() // second call must not re-register with promauto

	if StreamsStarted == nil || ActiveStreamsGauge == nil || ResolveDuration == nil {
		t.Fatalf("metrics not registered after Init")
	}

	// Registered helpers still work.
	IncStreamStarted()
	SetActiveStreams(1)
	TimeFunc(NotifyDuration, func() {})
}

func TestCorrelationContext(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Fatalf("expected empty correlation on fresh context, got %q", got)
	}

	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Fatalf("expected abc-123, got %q", got)
	}

	if logger := LoggerWithCorr(ctx); logger == nil {
		t.Fatalf("expected logger")
	}
}
