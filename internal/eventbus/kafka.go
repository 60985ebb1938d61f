package eventbus

import (
	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// KafkaSubscriberConfig configures a Kafka consumer group subscription.
type KafkaSubscriberConfig struct {
	Brokers       []string
	ConsumerGroup string
	// FromBeginning makes a group with no committed offset start at the
	// earliest retained message, so a cold-started service rebuilds its
	// state from history.
	FromBeginning bool
}

// NewKafkaPublisher creates a Kafka-backed publisher that routes each
// message by its partition key metadata, keeping all events for one code on
// one partition.
func NewKafkaPublisher(brokers []string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: partitioningMarshaler(),
	}, logger)
}

// NewKafkaSubscriber creates a Kafka consumer group subscriber.
func NewKafkaSubscriber(cfg KafkaSubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	saramaCfg := kafka.DefaultSaramaSubscriberConfig()
	if cfg.FromBeginning {
		saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	return kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.Brokers,
		Unmarshaler:           partitioningMarshaler(),
		ConsumerGroup:         cfg.ConsumerGroup,
		OverwriteSaramaConfig: saramaCfg,
	}, logger)
}

func partitioningMarshaler() kafka.MarshalerUnmarshaler {
	return kafka.NewWithPartitioningMarshaler(func(topic string, msg *message.Message) (string, error) {
		return msg.Metadata.Get(PartitionKeyMetadata), nil
	})
}
