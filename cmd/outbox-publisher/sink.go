package main

import (
	"context"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

// sink delivers one message to a named topic and blocks until it is acked.
type sink interface {
	Name() string
	Ping(ctx context.Context) error
	Send(ctx context.Context, topic string, msg outbox.Message) error
}

type pubsubPublishers interface {
	Ping(ctx context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

// pubsubSink publishes with the aggregate id as ordering key.
type pubsubSink struct {
	client pubsubPublishers
}

func newPubSubSink(client pubsubPublishers) *pubsubSink {
	return &pubsubSink{client: client}
}

func (s *pubsubSink) Name() string { return "pubsub" }

func (s *pubsubSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *pubsubSink) Send(ctx context.Context, topic string, msg outbox.Message) error {
	pub := s.client.Publisher(topic)
	if pub == nil {
		return errUnknownTopic(topic)
	}
	result := pub.Publish(ctx, &gcppubsub.Message{
		Data:        msg.Data,
		Attributes:  msg.Attributes,
		OrderingKey: msg.Key,
	})
	if _, err := result.Get(ctx); err != nil {
		pub.ResumePublish(msg.Key)
		return err
	}
	return nil
}

type kafkaWriter interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
	Ping(ctx context.Context) error
}

// kafkaSink keys records by aggregate id so one order stays on one partition.
type kafkaSink struct {
	producer kafkaWriter
}

func newKafkaSink(producer kafkaWriter) *kafkaSink {
	return &kafkaSink{producer: producer}
}

func (s *kafkaSink) Name() string { return "kafka" }

func (s *kafkaSink) Ping(ctx context.Context) error {
	return s.producer.Ping(ctx)
}

func (s *kafkaSink) Send(ctx context.Context, topic string, msg outbox.Message) error {
	if topic == "" {
		return errUnknownTopic(topic)
	}
	return s.producer.Publish(ctx, topic, []byte(msg.Key), msg.Data, msg.Attributes)
}

var errNoTopic = errors.New("no publisher for topic")

func errUnknownTopic(topic string) error {
	return fmt.Errorf("%w %q", errNoTopic, topic)
}
