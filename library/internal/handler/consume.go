package handler

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/notify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type recordEvent func(ctx context.Context, e notify.Event) error

const (
	recordTimeout = 5 * time.Second

	defaultRetryInitial = 100 * time.Millisecond
	defaultRetryMax     = 5 * time.Second
)

// Consumer feeds borrowing events from the topic into the payment ledger.
type Consumer struct {
	recordEventHandler recordEvent
	log                *zap.Logger

	retryInitial time.Duration
	retryMax     time.Duration
}

type ConsumerOption func(*Consumer)

// WithRetryBackoff bounds the delay between attempts to record an event that
// failed transiently. The delay doubles from initial up to max.
func WithRetryBackoff(initial, max time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if initial > 0 {
			c.retryInitial = initial
		}
		if max >= c.retryInitial {
			c.retryMax = max
		}
	}
}

func NewConsumer(recordEvent recordEvent, log *zap.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		recordEventHandler: recordEvent,
		log:                log.Named("consumer"),
		retryInitial:       defaultRetryInitial,
		retryMax:           defaultRetryMax,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim marks undecodable messages so they are skipped. A transient
// ledger failure is retried in place, so no later offset is committed past
// it. If the session ends first the message stays unmarked and is redelivered;
// recording is idempotent per borrowing and payment type.
func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			event, err := notify.Decode(message.Value)
			if err != nil {
				consumer.log.Error("decode", zap.Error(err), zap.Int64("offset", message.Offset))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.record(session.Context(), event); err != nil {
				if errors.Is(err, errs.ErrTransient) || session.Context().Err() != nil {
					// session is over, leave it for redelivery
					return nil
				}
				consumer.log.Error("consumer.recordEventHandler", zap.Error(err), zap.String("event_id", event.ID))
			}

			consumer.log.Debug("Message claimed:",
				zap.String("kind", string(event.Kind)),
				zap.Int64("borrowing_id", event.BorrowingID),
				zap.Time("timestamp", message.Timestamp),
				zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// record returns ErrTransient only when ctx ends before a transient failure
// clears. Any other error is final.
func (consumer *Consumer) record(ctx context.Context, event notify.Event) error {
	delay := consumer.retryInitial
	for attempt := 1; ; attempt++ {
		recordCtx, cancel := context.WithTimeout(ctx, recordTimeout)
		err := consumer.recordEventHandler(recordCtx, event)
		cancel()
		if err == nil || !errors.Is(err, errs.ErrTransient) || ctx.Err() != nil {
			return err
		}
		consumer.log.Warn("record event, retrying",
			zap.Error(err),
			zap.String("event_id", event.ID),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		if delay *= 2; delay > consumer.retryMax {
			delay = consumer.retryMax
		}
	}
}
