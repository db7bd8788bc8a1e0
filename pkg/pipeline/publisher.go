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
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/decoytrace/pkg/logger"
	"github.com/carverauto/decoytrace/pkg/models"
)

// EventSink publishes enriched events and dead-letter records to their
// destinations. The processor depends on this interface so tests can
// swap in an in-memory sink.
type EventSink interface {
	PublishEnriched(ctx context.Context, subject string, ev *models.EnrichedEvent) error
	PublishDeadLetter(ctx context.Context, subject string, rec *models.DeadLetterRecord) error
}

// Publisher writes to NATS JetStream sink streams.
type Publisher struct {
	js     jetstream.JetStream
	logger logger.Logger
}

// NewPublisher ensures the sink stream exists and returns a publisher
// bound to it.
func NewPublisher(ctx context.Context, js jetstream.JetStream, streamName string, subjects []string, log logger.Logger) (*Publisher, error) {
	_, err := js.Stream(ctx, streamName)
	if err != nil {
		streamConfig := jetstream.StreamConfig{
			Name:     streamName,
			Subjects: subjects,
		}

		_, err = js.CreateOrUpdateStream(ctx, streamConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create or get stream %s: %w", streamName, err)
		}

		log.Info().
			Str("stream_name", streamName).
			Strs("subjects", subjects).
			Msg("created sink stream")
	}

	return &Publisher{js: js, logger: log}, nil
}

// PublishEnriched implements EventSink.
func (p *Publisher) PublishEnriched(ctx context.Context, subject string, ev *models.EnrichedEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal enriched event: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish enriched event to %s: %w", subject, err)
	}

	return nil
}

// PublishDeadLetter implements EventSink.
func (p *Publisher) PublishDeadLetter(ctx context.Context, subject string, rec *models.DeadLetterRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal dead-letter record: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish dead-letter record to %s: %w", subject, err)
	}

	return nil
}
