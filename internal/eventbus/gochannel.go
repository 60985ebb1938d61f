package eventbus

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewInProcessPubSub creates an in-memory pub/sub backend. Used by tests
// and single-process local runs; the semantics (at-least-once, per-channel
// ordering) match what the Kafka backend provides within a partition.
func NewInProcessPubSub(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 100,
			Persistent:          false,
		},
		logger,
	)
}
