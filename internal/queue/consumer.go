package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/carddash/internal/repository"
)

// EngagementStore applies engagement counters to the card store.
type EngagementStore interface {
	ApplyEngagement(ctx context.Context, cardID, kind string, rating int) error
}

// EngagementConsumer drains the card.engagement queue into the card store.
// The counters it maintains are the authoritative ones the dashboard reads.
type EngagementConsumer struct {
	url   string
	store EngagementStore
	log   *slog.Logger
}

func NewEngagementConsumer(url string, store EngagementStore, log *slog.Logger) *EngagementConsumer {
	return &EngagementConsumer{url: url, store: store, log: log}
}

// Run connects to RabbitMQ, declares the queue and consumes until ctx is
// cancelled.  Dial failures back off exponentially up to 30s; a dropped
// connection is re-dialled.  Messages that can never apply are rejected;
// transient failures are requeued after a short pause.
func (c *EngagementConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("engagement consumer dial failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("engagement consume loop ended; reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *EngagementConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("engagement consumer set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(EngagementQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EngagementQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				requeue := shouldRequeue(ctx, err)
				c.log.Warn("engagement message not applied", "error", err, "requeue", requeue)
				_ = d.Nack(false, requeue)
				if requeue && !sleep(ctx, time.Second) {
					return ctx.Err()
				}
				continue
			}
			_ = d.Ack(false)
		}
	}
}

var errMalformed = errors.New("malformed engagement event")

func (c *EngagementConsumer) handle(ctx context.Context, body []byte) error {
	var ev EngagementEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if u, err := uuid.Parse(ev.CardID); err != nil || u.String() != ev.CardID {
		return fmt.Errorf("%w: card id %q", errMalformed, ev.CardID)
	}
	if err := c.store.ApplyEngagement(ctx, ev.CardID, ev.Type, ev.Rating); err != nil {
		return fmt.Errorf("apply %s to %s: %w", ev.Type, ev.CardID, err)
	}
	return nil
}

// shouldRequeue keeps a message when it may apply later: store outages and
// shutdown mid-apply.  Events that can never apply are dropped.
func shouldRequeue(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	switch {
	case errors.Is(err, errMalformed),
		errors.Is(err, repository.ErrUnknownEngagement),
		errors.Is(err, repository.ErrCardNotFound),
		errors.Is(err, repository.ErrRatingOutOfRange):
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
