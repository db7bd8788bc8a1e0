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
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/decoytrace/pkg/classify"
	"github.com/carverauto/decoytrace/pkg/fingerprint"
	"github.com/carverauto/decoytrace/pkg/geo"
	"github.com/carverauto/decoytrace/pkg/logger"
	"github.com/carverauto/decoytrace/pkg/models"
	"github.com/carverauto/decoytrace/pkg/reputation"
)

// PipelineVersion is stamped into every enriched event.
const PipelineVersion = "1.2.0"

// State tracks an event's progress through the pipeline stages.
type State string

const (
	StateReceived   State = "received"
	StateEnriched   State = "enriched"
	StateClassified State = "classified"
	StateScored     State = "scored"
	StateRouted     State = "routed"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Processor runs one raw event through every stage. Stages are pure
// except for the reputation increment, so reprocessing after a crash is
// safe; dedup by event id is the ingestion boundary's responsibility.
type Processor struct {
	enricher   *geo.Enricher
	classifier *classify.Classifier
	scorer     *reputation.Scorer
	router     *Router
	sink       EventSink
	metrics    *Metrics
	logger     logger.Logger

	// nowUTC allows tests to override the timestamp source.
	nowUTC func() time.Time
}

// NewProcessor wires the pipeline stages together.
func NewProcessor(enricher *geo.Enricher, classifier *classify.Classifier, scorer *reputation.Scorer,
	router *Router, sink EventSink, metrics *Metrics, log logger.Logger) *Processor {
	return &Processor{
		enricher:   enricher,
		classifier: classifier,
		scorer:     scorer,
		router:     router,
		sink:       sink,
		metrics:    metrics,
		logger:     log,
		nowUTC:     func() time.Time { return time.Now().UTC() },
	}
}

// Process runs one event end to end. It returns a non-nil error only
// when a sink publish fails, so the consumer can Nak for redelivery;
// every per-stage degradation is absorbed into the enriched record.
func (p *Processor) Process(ctx context.Context, payload []byte) error {
	start := time.Now()
	defer func() {
		p.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	raw, err := models.ParseRawEvent(payload)
	if err != nil {
		if errors.Is(err, models.ErrStructuralInput) {
			return p.deadLetter(ctx, payload, err)
		}

		return err
	}

	ev := &models.EnrichedEvent{
		RawEvent:        *raw,
		PipelineVersion: PipelineVersion,
		ProcessedAt:     p.nowUTC(),
	}

	enrichment := p.enricher.Enrich(ctx, raw.SourceIP)
	ev.Geo = enrichment.Geo

	classification := p.classifier.Classify(raw)

	for _, marker := range enrichment.Markers {
		if !classification.HasTag(marker) {
			classification.Tags = append(classification.Tags, marker)
		}

		if marker == geo.MarkerLookupFailed {
			p.metrics.GeoLookupFailures.Inc()
		}
	}

	ev.Classification = classification

	ev.SessionID = fingerprint.SessionID(raw.SourceIP, raw.Service)

	outcome := p.scorer.Score(ctx, raw.SourceIP, classification.Tags, classification.BaseThreatLevel, ev.ProcessedAt)
	ev.ReputationScore = outcome.Score
	ev.AttackCount = outcome.AttackCount
	ev.FinalThreatLevel = outcome.FinalThreatLevel
	ev.HighFrequencyAttacker = outcome.HighFrequencyAttacker
	ev.ReputationStateDegraded = outcome.StateDegraded

	if outcome.StateDegraded {
		p.metrics.ReputationDegraded.Inc()
	}

	dest := p.router.Route(ev)

	if err := p.sink.PublishEnriched(ctx, dest.Primary, ev); err != nil {
		return err
	}

	if dest.Alert != "" {
		if err := p.sink.PublishEnriched(ctx, dest.Alert, ev); err != nil {
			return err
		}

		p.metrics.Alerted.WithLabelValues(string(raw.Service)).Inc()
	}

	p.metrics.Processed.WithLabelValues(string(raw.Service)).Inc()

	p.logger.Debug().
		Str("state", string(StateDone)).
		Str("source_ip", raw.SourceIP).
		Str("service", string(raw.Service)).
		Str("threat_level", string(ev.FinalThreatLevel)).
		Int64("attack_count", ev.AttackCount).
		Msg("event processed")

	return nil
}

// deadLetter routes a structurally invalid payload to the dead-letter
// sink with the original bytes preserved. The pipeline keeps running
// for subsequent events.
func (p *Processor) deadLetter(ctx context.Context, payload []byte, cause error) error {
	rec := &models.DeadLetterRecord{
		ID:          uuid.New().String(),
		RawPayload:  payload,
		ErrorReason: cause.Error(),
		Timestamp:   p.nowUTC(),
	}

	if err := p.sink.PublishDeadLetter(ctx, p.router.DeadLetter(), rec); err != nil {
		return err
	}

	p.metrics.DeadLettered.Inc()

	p.logger.Warn().
		Str("state", string(StateFailed)).
		Str("dead_letter_id", rec.ID).
		Str("reason", rec.ErrorReason).
		Msg("event dead-lettered")

	return nil
}
