package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/logger"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/rabbit"
)

const (
	ExchangeTelemetryTopic = "telemetry_topic"

	QueueZoneDetection = "zone_detection"

	bindingFixAccepted = "telemetry.fixes.*"
)

// TelemetryBroker moves accepted fixes between the telemetry service and
// the zone detector.
type TelemetryBroker struct {
	client *rabbit.RabbitMQ
	l      logger.Logger
}

func NewTelemetryBroker(client *rabbit.RabbitMQ, l logger.Logger) *TelemetryBroker {
	return &TelemetryBroker{client: client, l: l}
}

// Setup declares the exchange and the zone detection queue. Idempotent,
// both sides call it on startup.
func (r *TelemetryBroker) Setup(ctx context.Context) error {
	const op = "TelemetryBroker.Setup"

	if err := r.client.Channel.ExchangeDeclare(
		ExchangeTelemetryTopic, "topic", true, false, false, false, nil,
	); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: declare exchange failed: %w", op, err))
	}

	q, err := r.client.Channel.QueueDeclare(QueueZoneDetection, true, false, false, false, nil)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: declare queue failed: %w", op, err))
	}

	if err := r.client.Channel.QueueBind(q.Name, bindingFixAccepted, ExchangeTelemetryTopic, false, nil); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: bind queue failed: %w", op, err))
	}

	return nil
}

// PublishFixAccepted announces one persisted fix to downstream consumers.
func (r *TelemetryBroker) PublishFixAccepted(ctx context.Context, msg models.FixAcceptedMessage) error {
	ctx = wrap.WithAction(ctx, "publish_fix_accepted")
	key := fmt.Sprintf("telemetry.fixes.%s", msg.WorkerID)

	body, err := json.Marshal(msg)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("marshal: %w", err))
	}

	pub := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		Timestamp:     time.Now(),
		CorrelationId: wrap.GetRequestID(ctx),
	}

	if err := retry(5, time.Second*2, func() error {
		return r.client.Channel.PublishWithContext(ctx, ExchangeTelemetryTopic, key, false, false, pub)
	}); err != nil {
		return wrap.Error(ctx, fmt.Errorf("publish: %w", err))
	}

	return nil
}

type FixHandlerFunc func(ctx context.Context, msg models.FixAcceptedMessage) error

// ConsumeFixes delivers accepted fixes to fn until ctx is cancelled,
// recovering the connection and the subscription as needed.
func (r *TelemetryBroker) ConsumeFixes(ctx context.Context, fn FixHandlerFunc) error {
	const op = "TelemetryBroker.ConsumeFixes"

	for {
		if ctx.Err() != nil {
			r.l.Debug(ctx, "consume fixes stopped by context")
			return nil
		}

		if err := r.client.EnsureConnection(ctx); err != nil {
			r.l.Error(ctx, "ensure connection failed", err, "op", op)
			time.Sleep(2 * time.Second)
			continue
		}

		if err := r.Setup(ctx); err != nil {
			r.l.Error(ctx, "broker setup failed", err, "op", op)
			time.Sleep(2 * time.Second)
			continue
		}

		msgs, err := r.client.Channel.Consume(QueueZoneDetection, "", false, false, false, false, nil)
		if err != nil {
			r.l.Error(ctx, "consume failed", err, "op", op)
			time.Sleep(2 * time.Second)
			continue
		}

		r.l.Info(ctx, "start consuming accepted fixes", "queue", QueueZoneDetection)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				r.l.Info(ctx, "fix consumer shutting down", "op", op)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					r.l.Warn(ctx, "message channel closed, reconnecting...", "op", op)
					time.Sleep(2 * time.Second)
					break consumeLoop
				}

				r.handleFixAccepted(ctx, fn, msg)
			}
		}
	}
}

// handleFixAccepted decodes and dispatches one delivery. Fix order matters
// to the zone state machine, so deliveries are handled inline rather than
// in per-message goroutines.
func (r *TelemetryBroker) handleFixAccepted(ctx context.Context, fn FixHandlerFunc, msg amqp.Delivery) {
	ctx = wrap.WithAction(ctx, types.ActionZoneDetect)

	var m models.FixAcceptedMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		r.l.Error(ctx, "decode failed", err)
		_ = msg.Nack(false, false)
		return
	}

	ctxx := wrap.WithRequestID(wrap.WithWorkerID(ctx, m.WorkerID.String()), msg.CorrelationId)

	if err := fn(ctxx, m); err != nil {
		r.l.Error(ctxx, "failed to handle accepted fix", err)

		if errors.Is(err, types.ErrValidationFailed) {
			// Malformed payloads never become processable, drop them.
			_ = msg.Reject(false)
			return
		}

		_ = msg.Nack(false, true)
		return
	}

	if err := msg.Ack(false); err != nil {
		r.l.Warn(ctxx, "ack failed", "err", err.Error())
	}
}

func retry(n int, sleep time.Duration, fn func() error) error {
	var err error
	for range n {
		if err = fn(); err == nil {
			return nil
		}
		time.Sleep(sleep)
	}
	return err
}
