package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"inventory-graphql/internal/logging"
)

// GraphQLTracingMiddleware instruments GraphQL execution with an inner span
// carrying the parsed operation shape, and stamps trace and span IDs onto
// the request logger.
func GraphQLTracingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query, operationName := extractGraphQLRequest(r)
			if strings.TrimSpace(query) == "" {
				next.ServeHTTP(w, r)
				return
			}

			tracer := otel.Tracer("inventory-graphql/graphql")
			ctx, span := tracer.Start(r.Context(), "graphql.execute")
			defer span.End()

			if spanCtx := span.SpanContext(); spanCtx.IsValid() {
				reqLogger := logging.FromContext(ctx).WithFields(
					slog.String("trace_id", spanCtx.TraceID().String()),
					slog.String("span_id", spanCtx.SpanID().String()),
				)
				ctx = logging.WithLogger(ctx, reqLogger)
			}

			if span.IsRecording() {
				attrs := []attribute.KeyValue{}
				if operationName != "" {
					attrs = append(attrs, attribute.String("graphql.operation.name", operationName))
				}
				if metadata, err := extractQueryMetadata(query, operationName); err == nil && metadata != nil {
					attrs = append(attrs,
						attribute.String("graphql.operation.type", metadata.operationType),
						attribute.Int("graphql.request.field_count", metadata.fieldCount),
						attribute.Int("graphql.request.selection_depth", metadata.selectionDepth),
						attribute.Int("graphql.request.variable_count", metadata.variableCount),
					)
				}
				span.SetAttributes(attrs...)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
