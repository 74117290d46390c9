// Package metrics records dictation pipeline instruments through the
// OpenTelemetry metrics API and exposes them for Prometheus scraping.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/agarwal-mihir/SpeakFlow"

// Stage names used for the latency histogram.
const (
	StageCapture    = "capture"
	StageTranscribe = "transcribe"
	StageCleanup    = "cleanup"
	StagePaste      = "paste"
	StageSession    = "session"
)

// latencyBuckets are seconds, sized for local inference plus one network hop.
var latencyBuckets = []float64{
	0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16,
}

// Metrics holds the pipeline instruments. Safe for concurrent use.
type Metrics struct {
	// StageDuration is labelled with attribute "stage".
	StageDuration metric.Float64Histogram

	// Sessions counts terminal sessions by "outcome".
	Sessions metric.Int64Counter

	// CleanupResults counts cleanup attempts by "provider" and "applied".
	CleanupResults metric.Int64Counter

	// PasteAttempts counts dispatches by "method" and "status".
	PasteAttempts metric.Int64Counter

	// DuckFailures counts ducker engage/release errors.
	DuckFailures metric.Int64Counter
}

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("speakflow.stage.duration",
		metric.WithDescription("Latency of each dictation pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Sessions, err = m.Int64Counter("speakflow.sessions",
		metric.WithDescription("Terminal dictation sessions by outcome."),
	); err != nil {
		return nil, err
	}
	if met.CleanupResults, err = m.Int64Counter("speakflow.cleanup.results",
		metric.WithDescription("Cleanup attempts by provider and whether the rewrite was applied."),
	); err != nil {
		return nil, err
	}
	if met.PasteAttempts, err = m.Int64Counter("speakflow.paste.attempts",
		metric.WithDescription("Paste dispatches by method and status."),
	); err != nil {
		return nil, err
	}
	if met.DuckFailures, err = m.Int64Counter("speakflow.duck.failures",
		metric.WithDescription("System audio ducking errors."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// Noop returns instruments that record nothing.
func Noop() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

// ObserveStage records d for stage.
func (m *Metrics) ObserveStage(ctx context.Context, stage string, d time.Duration) {
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// CountSession increments the outcome counter.
func (m *Metrics) CountSession(ctx context.Context, outcome string) {
	m.Sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// CountCleanup increments the cleanup counter.
func (m *Metrics) CountCleanup(ctx context.Context, provider string, applied bool) {
	m.CleanupResults.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("applied", applied),
	))
}

// CountPaste increments the paste counter.
func (m *Metrics) CountPaste(ctx context.Context, method string, status string) {
	m.PasteAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	))
}

// CountDuckFailure increments the ducking error counter.
func (m *Metrics) CountDuckFailure(ctx context.Context, op string) {
	m.DuckFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
