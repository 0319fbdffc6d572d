package observe

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lguimbarda/readall/flow/core"
)

// Metric instrument names.
const (
	MetricChunks      = "readall.chunks"
	MetricBytes       = "readall.bytes"
	MetricCompletions = "readall.completions"
	MetricErrors      = "readall.errors"
	MetricSize        = "readall.size"
	MetricDuration    = "readall.duration"
)

var (
	outcomeOK    = metric.WithAttributes(attribute.String("outcome", "ok"))
	outcomeError = metric.WithAttributes(attribute.String("outcome", "error"))
)

// WithMetrics attaches hooks that record OpenTelemetry metrics on meter:
// chunk and byte counters, a completion counter labelled with the outcome,
// a counter of failed consumptions, and histograms of the accepted size and
// of the duration (ms) per consumption.
//
// Instruments are recorded against ctx as it was when WithMetrics was
// called.
func WithMetrics(ctx context.Context, meter metric.Meter) (context.Context, error) {
	chunks, err := meter.Int64Counter(MetricChunks,
		metric.WithDescription("chunks accepted from sources"))
	if err != nil {
		return ctx, fmt.Errorf("create %s counter: %w", MetricChunks, err)
	}
	bytes, err := meter.Int64Counter(MetricBytes,
		metric.WithDescription("bytes accepted from sources"),
		metric.WithUnit("By"))
	if err != nil {
		return ctx, fmt.Errorf("create %s counter: %w", MetricBytes, err)
	}
	completions, err := meter.Int64Counter(MetricCompletions,
		metric.WithDescription("consumptions that delivered an outcome"))
	if err != nil {
		return ctx, fmt.Errorf("create %s counter: %w", MetricCompletions, err)
	}
	failures, err := meter.Int64Counter(MetricErrors,
		metric.WithDescription("consumptions that completed with an error"))
	if err != nil {
		return ctx, fmt.Errorf("create %s counter: %w", MetricErrors, err)
	}
	size, err := meter.Int64Histogram(MetricSize,
		metric.WithDescription("bytes accepted per consumption"),
		metric.WithUnit("By"))
	if err != nil {
		return ctx, fmt.Errorf("create %s histogram: %w", MetricSize, err)
	}
	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("time from attaching to a source to its outcome"),
		metric.WithUnit("ms"))
	if err != nil {
		return ctx, fmt.Errorf("create %s histogram: %w", MetricDuration, err)
	}

	recordCtx := ctx
	return core.WithHooks(ctx, core.Hooks{
		OnChunk: func(b []byte) {
			chunks.Add(recordCtx, 1)
			bytes.Add(recordCtx, int64(len(b)))
		},
		OnComplete: func(o core.Outcome) {
			attrs := outcomeOK
			if o.Err != nil {
				attrs = outcomeError
				failures.Add(recordCtx, 1)
			}
			completions.Add(recordCtx, 1, attrs)
			size.Record(recordCtx, o.Bytes, attrs)
			duration.Record(recordCtx, float64(o.Duration)/float64(time.Millisecond), attrs)
		},
	}), nil
}
