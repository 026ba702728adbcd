// Package bus is the at-most-once pub/sub transport between the write
// side (order and inventory authorities, saga orchestrator) and the
// read side (marketing projector). It wraps redis/go-redis's Pub/Sub,
// which offers no durability and no redelivery: a subscriber that is
// down when a message is published never sees it (spec §4.6).
package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Envelope is the wire format published on every channel: an event type
// tag plus its JSON payload, the same shape the original system's
// publishers used (`{"event_type": ..., "data": ...}`).
type Envelope struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

// Publisher publishes envelopes to a Redis channel.
type Publisher struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewPublisher builds a Publisher over client.
func NewPublisher(client *redis.Client, logger zerolog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger.With().Str("component", "bus_publisher").Logger()}
}

// Publish marshals eventType/data into an Envelope and publishes it on
// channel. Publication happens strictly after the caller's own database
// transaction has committed (publish-after-commit, spec §4.1/§9 open
// question): if this call fails, the write-side state has already
// changed and the event is simply lost to any subscriber.
func (p *Publisher) Publish(ctx context.Context, channel, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	envelope := Envelope{EventType: eventType, Data: payload}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		p.logger.Error().Err(err).Str("channel", channel).Str("event_type", eventType).Msg("publish failed")
		return err
	}
	return nil
}

// Handler processes one received envelope. A returned error is logged
// by Subscriber.Run and the loop continues; the message is not retried
// or redelivered (there is nowhere to redeliver it from).
type Handler func(ctx context.Context, envelope Envelope) error

// Subscriber polls a Redis channel and invokes a Handler per message.
type Subscriber struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewSubscriber builds a Subscriber over client.
func NewSubscriber(client *redis.Client, logger zerolog.Logger) *Subscriber {
	return &Subscriber{client: client, logger: logger.With().Str("component", "bus_subscriber").Logger()}
}

// Run subscribes to channel and calls handler for every message received
// until ctx is cancelled. Instead of the original subscriber's
// `get_message(timeout=1.0)` polling loop, it waits on the subscription's
// message channel and on ctx at the same time, so cancellation is
// observed as soon as it happens; the channel pings the connection
// every second as a health check. The subscription is closed on return.
func (s *Subscriber) Run(ctx context.Context, channel string, handler Handler) error {
	pubsub := s.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel(redis.WithChannelHealthCheckInterval(1 * time.Second))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var envelope Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				s.logger.Error().Err(err).Str("channel", channel).Msg("malformed event envelope, skipping")
				continue
			}
			if err := handler(ctx, envelope); err != nil {
				s.logger.Error().Err(err).
					Str("channel", channel).
					Str("event_type", envelope.EventType).
					Msg("handler failed, continuing")
			}
		}
	}
}
