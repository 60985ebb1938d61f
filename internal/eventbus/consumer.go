package eventbus

import (
	"context"

	"shorty/internal/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// HandlerFunc processes a single decoded event. Returning an error marks
// the event as unprocessable; the consumer logs it and moves on.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Consumer runs long-lived consumption loops over subscribed topics. One
// loop per topic processes events sequentially, preserving the per-code
// ordering the bus guarantees within a partition.
type Consumer struct {
	router *message.Router
	sub    message.Subscriber
	logger watermill.LoggerAdapter
}

// NewConsumer creates a consumer over any Watermill subscriber.
func NewConsumer(sub message.Subscriber, logger watermill.LoggerAdapter) (*Consumer, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, err
	}
	router.AddMiddleware(middleware.Recoverer)

	return &Consumer{
		router: router,
		sub:    sub,
		logger: logger,
	}, nil
}

// On registers a handler for a topic. Events are decoded once at the bus
// boundary; decode failures and handler errors are logged and skipped so a
// single bad message never terminates the loop.
func (c *Consumer) On(name, topic string, fn HandlerFunc) {
	c.router.AddNoPublisherHandler(name, topic, c.sub, func(msg *message.Message) error {
		e, err := events.Decode(msg.Payload)
		if err != nil {
			c.logger.Error("failed to decode event, skipping", err, watermill.LogFields{
				"handler":    name,
				"topic":      topic,
				"message_id": msg.UUID,
			})
			return nil
		}

		if err := fn(msg.Context(), e); err != nil {
			c.logger.Error("failed to handle event, skipping", err, watermill.LogFields{
				"handler":    name,
				"topic":      topic,
				"type":       e.EventType(),
				"message_id": msg.UUID,
			})
			return nil
		}

		return nil
	})
}

// Run starts all consumption loops and blocks until the context is
// canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running returns a channel closed once all loops are consuming.
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

// Close stops the consumption loops.
func (c *Consumer) Close() error {
	return c.router.Close()
}
