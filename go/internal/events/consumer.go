package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

var errMalformed = errors.New("malformed event")

// ConsumerConfig holds configuration for a JetStream event consumer
type ConsumerConfig struct {
	URL           string
	StreamName    string
	ConsumerName  string // empty for an ephemeral consumer
	SubjectFilter string // e.g. "bingo.events.>"
	DeliverNew    bool   // only events published after the consumer starts
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConsumerConfig() ConsumerConfig {
	js := DefaultJetStreamConfig()
	return ConsumerConfig{
		URL:           js.URL,
		StreamName:    js.StreamName,
		SubjectFilter: js.SubjectPrefix + ".>",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Consumer reads room events back from the stream and hands each one to a
// Publisher. Events the handler rejects are NAKed for redelivery; undecodable
// messages are terminated.
type Consumer struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	handler  Publisher
	config   ConsumerConfig
}

func NewConsumer(ctx context.Context, cfg ConsumerConfig, handler Publisher) (*Consumer, error) {
	nc, js, err := dial(cfg.URL, "wordbingo-consumer", cfg.MaxReconnects, cfg.ReconnectWait)
	if err != nil {
		return nil, err
	}

	c := &Consumer{nc: nc, js: js, handler: handler, config: cfg}
	if err := c.ensureConsumer(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}
	return c, nil
}

func (c *Consumer) consumerConfig() jetstream.ConsumerConfig {
	policy := jetstream.DeliverAllPolicy
	if c.config.DeliverNew {
		policy = jetstream.DeliverNewPolicy
	}
	return jetstream.ConsumerConfig{
		Name:          c.config.ConsumerName,
		Durable:       c.config.ConsumerName,
		Description:   "Word bingo event consumer",
		FilterSubject: c.config.SubjectFilter,
		DeliverPolicy: policy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    c.config.MaxDeliver,
		AckWait:       c.config.AckWait,
		MaxAckPending: c.config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	}
}

func (c *Consumer) ensureConsumer(ctx context.Context) error {
	stream, err := c.js.Stream(ctx, c.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	if c.config.ConsumerName != "" {
		if existing, err := stream.Consumer(ctx, c.config.ConsumerName); err == nil {
			log.Info().
				Str("consumer", c.config.ConsumerName).
				Str("stream", c.config.StreamName).
				Msg("using existing JetStream consumer")
			c.consumer = existing
			return nil
		}
	}

	consumer, err := stream.CreateConsumer(ctx, c.consumerConfig())
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	log.Info().
		Str("consumer", c.config.ConsumerName).
		Str("stream", c.config.StreamName).
		Msg("created JetStream consumer")
	c.consumer = consumer
	return nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	messages := make(chan jetstream.Msg, c.config.MaxAckPending)

	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messages <- msg:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg := <-messages:
			if err := c.process(ctx, msg); err != nil {
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process message")
				if errors.Is(err, errMalformed) {
					if termErr := msg.Term(); termErr != nil {
						log.Error().Err(termErr).Msg("failed to terminate message")
					}
					continue
				}
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg jetstream.Msg) error {
	var event Event
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	log.Debug().
		Str("event_id", event.ID.String()).
		Str("room_code", event.RoomCode).
		Str("event_type", string(event.Type)).
		Msg("processing JetStream event")

	return c.handler.Publish(ctx, event)
}

func (c *Consumer) Close() error {
	if c.nc != nil {
		c.nc.Close()
	}
	return nil
}
