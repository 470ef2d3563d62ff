package normalizer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ast "github.com/eduardotrandafilov/relay/internal/ast"
	store "github.com/eduardotrandafilov/relay/internal/store"
)

const tracerName = "relay/normalizer"

// Instrument runs Normalize inside an OpenTelemetry span, recording the root
// identity and payload counts. The result is returned unchanged; hosts that
// install no tracer provider pay only the no-op span cost.
func Instrument(ctx context.Context, source store.RecordSource, selector ast.Selector, data map[string]any, opts Options) (*Result, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "normalizer.normalize",
		trace.WithAttributes(attribute.String("normalize.root_id", string(selector.ID))))
	defer span.End()

	result, err := Normalize(source, selector, data, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("normalize.incremental_payloads", len(result.IncrementalPayloads)),
		attribute.Int("normalize.field_payloads", len(result.FieldPayloads)),
		attribute.Int("normalize.match_payloads", len(result.MatchPayloads)),
	)
	return result, nil
}
