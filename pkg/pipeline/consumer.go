/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/decoytrace/pkg/logger"
)

const (
	defaultMaxPullMessages = 50
	defaultPullExpiry      = 30 * time.Second
	defaultMaxDeliveries   = 3
	fetchRetryBackoff      = time.Second
)

// Consumer wraps a JetStream durable pull consumer over the raw decoy
// event stream. Pull fetching bounds in-flight work, so queue pressure
// slows the consumer rate instead of dropping events.
type Consumer struct {
	js           jetstream.JetStream
	streamName   string
	consumerName string
	consumer     jetstream.Consumer
	logger       logger.Logger
}

// NewConsumer creates or retrieves the durable pull consumer.
func NewConsumer(ctx context.Context, js jetstream.JetStream, streamName, consumerName, subject string, log logger.Logger) (*Consumer, error) {
	consumer, err := js.Consumer(ctx, streamName, consumerName)
	if err != nil {
		cfg := jetstream.ConsumerConfig{
			Durable:       consumerName,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       30 * time.Second,
			MaxDeliver:    defaultMaxDeliveries,
			MaxAckPending: 1000,
			FilterSubject: subject,
		}

		consumer, err = js.CreateConsumer(ctx, streamName, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create consumer: %w", err)
		}

		log.Info().
			Str("stream_name", streamName).
			Str("consumer_name", consumerName).
			Msg("created pull consumer")
	}

	return &Consumer{
		js:           js,
		streamName:   streamName,
		consumerName: consumerName,
		consumer:     consumer,
		logger:       log,
	}, nil
}

// ProcessMessages continuously fetches and processes messages until the
// context is canceled.
func (c *Consumer) ProcessMessages(ctx context.Context, processor *Processor) {
	c.logger.Info().
		Str("stream_name", c.streamName).
		Str("consumer_name", c.consumerName).
		Msg("starting pull consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping message processing due to context cancellation")
			return
		default:
			msgs, err := c.consumer.Fetch(defaultMaxPullMessages, jetstream.FetchMaxWait(defaultPullExpiry))
			if err != nil {
				c.logger.Error().Err(err).Msg("failed to fetch messages")
				time.Sleep(fetchRetryBackoff)

				continue
			}

			for msg := range msgs.Messages() {
				c.handleMessage(ctx, msg, processor)
			}

			if fetchErr := msgs.Error(); fetchErr != nil {
				c.logger.Error().Err(fetchErr).Msg("fetch error")
			}
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg jetstream.Msg, processor *Processor) {
	err := processor.Process(ctx, msg.Data())
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			c.logger.Error().Err(ackErr).Msg("failed to ack message")
		}

		return
	}

	c.logger.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process message")

	metadata, metaErr := msg.Metadata()
	if metaErr == nil && metadata.NumDelivered >= defaultMaxDeliveries {
		// Out of redeliveries. Park the payload in the dead-letter
		// sink rather than dropping it silently.
		if dlErr := processor.deadLetter(ctx, msg.Data(), err); dlErr != nil {
			c.logger.Error().Err(dlErr).Msg("failed to dead-letter exhausted message")
		}

		_ = msg.Ack()

		return
	}

	if nakErr := msg.Nak(); nakErr != nil {
		c.logger.Error().Err(nakErr).Msg("failed to nak message")
	}
}
