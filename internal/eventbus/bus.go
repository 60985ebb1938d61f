// Package eventbus wraps Watermill pub/sub for the typed events the
// services exchange. Delivery is at-least-once per consumer group; ordering
// holds only within a partition, keyed by short code.
package eventbus

import (
	"context"
	"fmt"
	"time"

	"shorty/internal/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
)

// PartitionKeyMetadata is the message metadata key carrying the partition
// key for backends that support keyed routing.
const PartitionKeyMetadata = "partition_key"

const (
	publishInitialBackoff = 300 * time.Millisecond
	publishMaxAttempts    = 5
)

// Publisher publishes typed events to a topic.
type Publisher interface {
	// Publish delivers the event, retrying transient failures with bounded
	// exponential backoff. Exhausting the retry budget returns an error,
	// never a silent drop.
	Publish(ctx context.Context, topic string, e events.Event) error
}

// Compile-time interface check
var _ Publisher = (*BusPublisher)(nil)

// BusPublisher adapts a Watermill publisher to the typed event contract.
type BusPublisher struct {
	pub    message.Publisher
	logger watermill.LoggerAdapter
	clock  func() time.Time
}

// NewPublisher creates a publisher over any Watermill backend.
func NewPublisher(pub message.Publisher, logger watermill.LoggerAdapter) *BusPublisher {
	return &BusPublisher{
		pub:    pub,
		logger: logger,
		clock:  time.Now,
	}
}

// Publish encodes the event into its wire envelope, stamps the partition
// key, and publishes with retry.
func (p *BusPublisher) Publish(ctx context.Context, topic string, e events.Event) error {
	raw, err := events.Encode(e, p.clock())
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), raw)
	msg.Metadata.Set(PartitionKeyMetadata, e.PartitionKey())
	msg.SetContext(ctx)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = publishInitialBackoff

	attempt := 0
	op := func() error {
		attempt++
		if err := p.pub.Publish(topic, msg); err != nil {
			p.logger.Error("publish attempt failed", err, watermill.LogFields{
				"topic":   topic,
				"type":    e.EventType(),
				"attempt": attempt,
			})
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, publishMaxAttempts-1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.EventType(), topic, err)
	}
	return nil
}
