package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalmesh/alertgate/internal/metrics"
	"github.com/signalmesh/alertgate/internal/model"
	"github.com/signalmesh/alertgate/pkg/tracing"
)

// Dispatcher is the one-way boundary to the async alert pipeline. Enqueue
// methods return once the task is accepted by the transport, never waiting
// for execution; tasks for one channel keep their submission order.
type Dispatcher interface {
	Start(ctx context.Context)
	EnqueueCreateAlert(ctx context.Context, alert model.NormalizedAlert) error
	EnqueueAlertmanagerAlert(ctx context.Context, channelID int64, rawAlert json.RawMessage) error
	Close(ctx context.Context)
}

type kafkaDispatcher struct {
	asyncProducer sarama.AsyncProducer
	topic         string
	log           *slog.Logger
	wg            *sync.WaitGroup
	closeOnce     sync.Once
	tracer        *tracing.Tracer
}

// NewKafkaDispatcher uses DI to inject AsyncProducer, topic, logger,
// WaitGroup, and tracer.
func NewKafkaDispatcher(asyncProducer sarama.AsyncProducer, topic string, log *slog.Logger, wg *sync.WaitGroup, tracer *tracing.Tracer) Dispatcher {
	if asyncProducer == nil || log == nil || wg == nil || tracer == nil {
		panic("NewKafkaDispatcher: nil dependencies provided")
	}
	if topic == "" {
		panic("NewKafkaDispatcher: topic must not be empty")
	}
	return &kafkaDispatcher{
		asyncProducer: asyncProducer,
		topic:         topic,
		log:           log,
		wg:            wg,
		tracer:        tracer,
	}
}

// Start launches background handlers for success and error channels
func (d *kafkaDispatcher) Start(ctx context.Context) {
	d.log.Info("Starting task dispatcher handlers")
	d.wg.Add(2)
	go d.handleSuccess(ctx)
	go d.handleErrors(ctx)
}

// handleSuccess counts confirmed deliveries
func (d *kafkaDispatcher) handleSuccess(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case msg, ok := <-d.asyncProducer.Successes():
			if !ok {
				d.log.Info("Kafka successes channel closed")
				return
			}

			metrics.TaskDeliveries.WithLabelValues(taskName(msg)).Inc()
			key, _ := msg.Key.Encode()
			d.log.Debug("Task delivered",
				slog.String("topic", msg.Topic),
				slog.Int64("offset", msg.Offset),
				slog.String("key", string(key)))
		case <-ctx.Done():
			d.log.Info("Kafka success handler stopped by context")
			return
		}
	}
}

// handleErrors logs failed deliveries. A failed delivery is not surfaced to
// the request that enqueued it; the response has long been sent.
func (d *kafkaDispatcher) handleErrors(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case err, ok := <-d.asyncProducer.Errors():
			if !ok {
				d.log.Info("Kafka errors channel closed")
				return
			}
			metrics.TaskDeliveryFailures.WithLabelValues(taskName(err.Msg)).Inc()
			d.log.Error("Task delivery failed",
				slog.String("topic", err.Msg.Topic),
				slog.Any("error", err.Err))
		case <-ctx.Done():
			d.log.Info("Kafka error handler stopped by context")
			return
		}
	}
}

func (d *kafkaDispatcher) EnqueueCreateAlert(ctx context.Context, alert model.NormalizedAlert) error {
	key := strconv.FormatInt(alert.AlertReceiveChannelPK, 10)
	return d.publish(ctx, key, NewCreateAlertTask(alert))
}

func (d *kafkaDispatcher) EnqueueAlertmanagerAlert(ctx context.Context, channelID int64, rawAlert json.RawMessage) error {
	key := strconv.FormatInt(channelID, 10)
	return d.publish(ctx, key, NewAlertmanagerAlertTask(channelID, rawAlert))
}

// publish sends a task envelope to the task topic with tracing and context
// propagation. The key is the channel primary key, which pins every task of
// a channel to one partition and preserves batch order end to end.
func (d *kafkaDispatcher) publish(ctx context.Context, key string, task TaskMessage) error {
	ctx, span := d.tracer.StartClientSpan(ctx, "EnqueueTask")
	defer span.End()

	data, err := json.Marshal(task)
	if err != nil {
		d.log.Error("Failed to marshal task",
			slog.String("task", task.Task),
			slog.Any("error", err))
		span.RecordError(err)
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	// Task name and trace context propagate to the workers as headers
	headers := tracing.TaskHeaders(ctx, task.Task)

	msg := &sarama.ProducerMessage{
		Topic:     d.topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(data),
		Timestamp: time.Now(),
		Headers:   headers,
		Metadata:  task.Task,
	}

	select {
	case d.asyncProducer.Input() <- msg:
		metrics.TasksEnqueued.WithLabelValues(task.Task).Inc()
		d.log.Debug("Task queued",
			slog.String("topic", d.topic),
			slog.String("task", task.Task),
			slog.String("task_id", task.TaskID),
			slog.String("key", key))
		span.SetAttributes(
			attribute.String(tracing.AttrMessagingSystem, "kafka"),
			attribute.String(tracing.AttrMessagingDestination, d.topic),
			attribute.String(tracing.AttrMessagingOperation, "publish"),
			attribute.String("task.name", task.Task),
			attribute.String("task.id", task.TaskID),
		)
		return nil
	case <-ctx.Done():
		d.log.Warn("Enqueue cancelled by context",
			slog.String("task", task.Task))
		span.SetStatus(codes.Error, "enqueue cancelled by context")
		return ctx.Err()
	}
}

// Close shuts down the dispatcher and waits for the drain handlers
func (d *kafkaDispatcher) Close(_ context.Context) {
	d.closeOnce.Do(func() {
		d.log.Info("Closing task dispatcher...")
		d.asyncProducer.AsyncClose()
		d.wg.Wait()
		d.log.Info("Task dispatcher closed")
	})
}

// taskName recovers the task label attached at publish time.
func taskName(msg *sarama.ProducerMessage) string {
	if name, ok := msg.Metadata.(string); ok {
		return name
	}
	return "unknown"
}
