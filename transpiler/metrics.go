package transpiler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for conversion operations.
var (
	tracer = otel.Tracer("qonduit.transpiler")
	meter  = otel.Meter("qonduit.transpiler")
)

var (
	transpileLatency metric.Float64Histogram
	transpileTotal   metric.Int64Counter
	transpileFailed  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error

	totalCount  atomic.Int64
	failedCount atomic.Int64
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		transpileLatency, err = meter.Float64Histogram(
			"transpile_duration_seconds",
			metric.WithDescription("Duration of circuit conversions"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		transpileTotal, err = meter.Int64Counter(
			"transpile_total",
			metric.WithDescription("Total number of circuit conversions"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		transpileFailed, err = meter.Int64Counter(
			"transpile_failures_total",
			metric.WithDescription("Total number of failed circuit conversions"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startTranspileSpan creates a span for one conversion.
func startTranspileSpan(ctx context.Context, jobID, source, target string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Transpile",
		trace.WithAttributes(
			attribute.String("transpile.job_id", jobID),
			attribute.String("transpile.source", source),
			attribute.String("transpile.target", target),
		),
	)
}

// recordTranspileMetrics records metrics for one conversion.
func recordTranspileMetrics(ctx context.Context, duration time.Duration, source, target string, success bool) {
	totalCount.Add(1)
	if !success {
		failedCount.Add(1)
	}
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("target", target),
		attribute.Bool("success", success),
	)

	transpileLatency.Record(ctx, duration.Seconds(), attrs)
	transpileTotal.Add(ctx, 1, attrs)
	if !success {
		transpileFailed.Add(ctx, 1, attrs)
	}
}

// TotalConversions is the running total of conversions since start.
// The metrics log task reports it periodically.
func TotalConversions() int64 {
	return totalCount.Load()
}

// FailedConversions is the running total of failed conversions since start.
func FailedConversions() int64 {
	return failedCount.Load()
}
