package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "inventory-graphql"

// GraphQLMetrics holds custom metrics for GraphQL operations.
type GraphQLMetrics struct {
	requestDuration metric.Float64Histogram
	requestCounter  metric.Int64Counter
	errorCounter    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
	resultsCount    metric.Int64Histogram
	mutationCounter metric.Int64Counter
}

// InitGraphQLMetrics initializes GraphQL-specific metrics.
func InitGraphQLMetrics() (*GraphQLMetrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"graphql.request.duration",
		metric.WithDescription("Duration of GraphQL requests in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	requestCounter, err := meter.Int64Counter(
		"graphql.requests.total",
		metric.WithDescription("Total number of GraphQL requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"graphql.errors.total",
		metric.WithDescription("Total number of GraphQL errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"graphql.requests.active",
		metric.WithDescription("Number of active GraphQL requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active requests counter: %w", err)
	}

	resultsCount, err := meter.Int64Histogram(
		"graphql.results.count",
		metric.WithDescription("Number of rows in batch query result sets before pagination"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create results count histogram: %w", err)
	}

	mutationCounter, err := meter.Int64Counter(
		"graphql.mutations.total",
		metric.WithDescription("Total number of mutations by entity and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mutation counter: %w", err)
	}

	return &GraphQLMetrics{
		requestDuration: requestDuration,
		requestCounter:  requestCounter,
		errorCounter:    errorCounter,
		activeRequests:  activeRequests,
		resultsCount:    resultsCount,
		mutationCounter: mutationCounter,
	}, nil
}

// RecordRequest records a GraphQL request with its duration and outcome.
func (m *GraphQLMetrics) RecordRequest(ctx context.Context, duration time.Duration, hasErrors bool, operationType string) {
	attrs := []attribute.KeyValue{
		attribute.String("operation_type", operationType),
		attribute.Bool("has_errors", hasErrors),
	}
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	if hasErrors {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation_type", operationType),
		))
	}
}

// RecordResultsCount records the size of a batch read's filtered result set.
func (m *GraphQLMetrics) RecordResultsCount(ctx context.Context, count int64, entityName string) {
	m.resultsCount.Record(ctx, count, metric.WithAttributes(
		attribute.String("entity", entityName),
	))
}

// RecordMutation records a mutation attempt by entity, action, and outcome.
func (m *GraphQLMetrics) RecordMutation(ctx context.Context, entityName, action string, ok bool) {
	m.mutationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entityName),
		attribute.String("action", action),
		attribute.Bool("ok", ok),
	))
}

// IncrementActiveRequests increments the active requests counter.
func (m *GraphQLMetrics) IncrementActiveRequests(ctx context.Context) {
	m.activeRequests.Add(ctx, 1)
}

// DecrementActiveRequests decrements the active requests counter.
func (m *GraphQLMetrics) DecrementActiveRequests(ctx context.Context) {
	m.activeRequests.Add(ctx, -1)
}

// InitMetrics initializes all custom metrics.
func InitMetrics(logger *slog.Logger) (*GraphQLMetrics, error) {
	metrics, err := InitGraphQLMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GraphQL metrics: %w", err)
	}
	logger.Info("custom GraphQL metrics initialized")
	return metrics, nil
}

type graphQLMetricsContextKey struct{}

// ContextWithGraphQLMetrics stores GraphQL metrics in the provided context.
func ContextWithGraphQLMetrics(ctx context.Context, metrics *GraphQLMetrics) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, graphQLMetricsContextKey{}, metrics)
}

// GraphQLMetricsFromContext retrieves GraphQL metrics from the context.
func GraphQLMetricsFromContext(ctx context.Context) *GraphQLMetrics {
	if ctx == nil {
		return nil
	}
	metrics, _ := ctx.Value(graphQLMetricsContextKey{}).(*GraphQLMetrics)
	return metrics
}

// Task metrics are package level because dispatchers are constructed in
// several places (server, worker, tests) and share one set of instruments.
var (
	taskMetricsOnce sync.Once
	taskDispatched  metric.Int64Counter
	taskFailed      metric.Int64Counter
)

func initTaskMetrics() {
	meter := otel.Meter(meterName)
	var err error
	taskDispatched, err = meter.Int64Counter(
		"tasks.dispatched.total",
		metric.WithDescription("Total number of background tasks dispatched"),
	)
	if err != nil {
		otel.Handle(err)
	}
	taskFailed, err = meter.Int64Counter(
		"tasks.failed.total",
		metric.WithDescription("Total number of background tasks that failed"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

// RecordTaskDispatched counts one dispatched task. Mode is inline or queue.
func RecordTaskDispatched(ctx context.Context, kind, mode string) {
	taskMetricsOnce.Do(initTaskMetrics)
	if taskDispatched == nil {
		return
	}
	taskDispatched.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("mode", mode),
	))
}

// RecordTaskFailed counts one failed task execution.
func RecordTaskFailed(ctx context.Context, kind string) {
	taskMetricsOnce.Do(initTaskMetrics)
	if taskFailed == nil {
		return
	}
	taskFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}
