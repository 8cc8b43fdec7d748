package tracing

import (
	"context"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel/propagation"
)

// HeaderTask carries the task name on every published message so pipeline
// workers can route without decoding the envelope.
const HeaderTask = "task"

// TaskHeaders builds the record headers for a task message: the task name
// plus the OpenTelemetry trace context, so workers continue the trace that
// started at the ingestion endpoint.
func TaskHeaders(ctx context.Context, task string) []sarama.RecordHeader {
	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)

	headers := make([]sarama.RecordHeader, 0, len(carrier)+1)
	headers = append(headers, sarama.RecordHeader{
		Key:   []byte(HeaderTask),
		Value: []byte(task),
	})
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}
	return headers
}
