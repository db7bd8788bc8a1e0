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
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/decoytrace/pkg/classify"
	"github.com/carverauto/decoytrace/pkg/geo"
	"github.com/carverauto/decoytrace/pkg/logger"
	"github.com/carverauto/decoytrace/pkg/models"
	"github.com/carverauto/decoytrace/pkg/reputation"
)

// memorySink records published events per subject.
type memorySink struct {
	mu          sync.Mutex
	enriched    map[string][]*models.EnrichedEvent
	deadLetters []*models.DeadLetterRecord
}

func newMemorySink() *memorySink {
	return &memorySink{enriched: make(map[string][]*models.EnrichedEvent)}
}

func (s *memorySink) PublishEnriched(_ context.Context, subject string, ev *models.EnrichedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *ev
	s.enriched[subject] = append(s.enriched[subject], &copied)

	return nil
}

func (s *memorySink) PublishDeadLetter(_ context.Context, _ string, rec *models.DeadLetterRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deadLetters = append(s.deadLetters, rec)

	return nil
}

func (s *memorySink) primaryEvents() []*models.EnrichedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.EnrichedEvent

	for subject, evs := range s.enriched {
		if strings.HasPrefix(subject, "enriched.events.") {
			out = append(out, evs...)
		}
	}

	return out
}

func (s *memorySink) alertEvents() []*models.EnrichedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.EnrichedEvent

	for subject, evs := range s.enriched {
		if strings.HasPrefix(subject, "enriched.alerts.") {
			out = append(out, evs...)
		}
	}

	return out
}

type staticResolver struct {
	result models.GeoContext
	err    error
}

func (r *staticResolver) Resolve(_ context.Context, _ net.IP) (models.GeoContext, error) {
	if r.err != nil {
		return models.GeoContext{}, r.err
	}

	return r.result, nil
}

func (*staticResolver) Close() error { return nil }

type processorFixture struct {
	processor *Processor
	sink      *memorySink
}

func newProcessorFixture(t *testing.T, resolver geo.Resolver, store reputation.Store) *processorFixture {
	t.Helper()

	log := logger.NewTestLogger()

	enricher, err := geo.NewEnricher(resolver, 0, 0, log)
	require.NoError(t, err)

	sink := newMemorySink()
	router := NewRouter("enriched.events", "enriched.alerts", "enriched.deadletter")
	scorer := reputation.NewScorer(store, reputation.ScorerConfig{}, log)
	metrics := NewMetrics(prometheus.NewRegistry())

	proc := NewProcessor(enricher, classify.NewClassifier(nil), scorer, router, sink, metrics, log)

	return &processorFixture{processor: proc, sink: sink}
}

func TestProcessEnrichesAndRoutes(t *testing.T) {
	resolver := &staticResolver{result: models.GeoContext{CountryCode: "NL", CityName: "Amsterdam"}}
	fx := newProcessorFixture(t, resolver, reputation.NewMemoryStore())

	payload := []byte(`{
		"timestamp": "2026-08-30T14:05:00Z",
		"service": "ssh",
		"event_type": "auth_attempt",
		"source_ip": "203.0.113.7",
		"username": "root",
		"password": "123456"
	}`)

	require.NoError(t, fx.processor.Process(context.Background(), payload))

	events := fx.sink.primaryEvents()
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "NL", ev.Geo.CountryCode)
	assert.Contains(t, ev.Classification.Tags, classify.TagBruteForce)
	assert.Equal(t, int64(1), ev.AttackCount)
	assert.Equal(t, 10, ev.ReputationScore)
	assert.Equal(t, models.ThreatMedium, ev.FinalThreatLevel)
	assert.NotEmpty(t, ev.SessionID)
	assert.Equal(t, PipelineVersion, ev.PipelineVersion)
	assert.False(t, ev.ProcessedAt.IsZero())
	assert.Empty(t, fx.sink.deadLetters)
}

func TestProcessHighThreatGoesToAlertSink(t *testing.T) {
	fx := newProcessorFixture(t, &staticResolver{}, reputation.NewMemoryStore())

	payload := []byte(`{
		"timestamp": "2026-08-30T14:05:00Z",
		"service": "telnet",
		"event_type": "login_attempt",
		"source_ip": "203.0.113.9",
		"username": "admin",
		"password": "admin"
	}`)

	require.NoError(t, fx.processor.Process(context.Background(), payload))

	alerts := fx.sink.alertEvents()
	require.Len(t, alerts, 1)
	assert.Equal(t, classify.AttackIoTCompromise, alerts[0].Classification.AttackType)
	assert.Equal(t, models.ThreatHigh, alerts[0].FinalThreatLevel)

	// The alert copy supplements the primary copy, never replaces it.
	assert.Len(t, fx.sink.primaryEvents(), 1)
}

func TestProcessLowThreatSkipsAlertSink(t *testing.T) {
	fx := newProcessorFixture(t, &staticResolver{}, reputation.NewMemoryStore())

	payload := []byte(`{"service": "ssh", "event_type": "disconnect", "source_ip": "203.0.113.9"}`)

	require.NoError(t, fx.processor.Process(context.Background(), payload))

	assert.Empty(t, fx.sink.alertEvents())
	require.Len(t, fx.sink.primaryEvents(), 1)
	assert.Equal(t, models.ThreatLow, fx.sink.primaryEvents()[0].FinalThreatLevel)
}

func TestProcessStructurallyInvalidGoesToDeadLetterOnly(t *testing.T) {
	fx := newProcessorFixture(t, &staticResolver{}, reputation.NewMemoryStore())

	payload := []byte(`{"timestamp": "2026-08-30T14:05:00Z", "event_type": "connection"}`)

	require.NoError(t, fx.processor.Process(context.Background(), payload))

	require.Len(t, fx.sink.deadLetters, 1)
	rec := fx.sink.deadLetters[0]
	assert.NotEmpty(t, rec.ID)
	assert.JSONEq(t, string(payload), string(rec.RawPayload))
	assert.Contains(t, rec.ErrorReason, "source_ip and service both absent")

	assert.Empty(t, fx.sink.primaryEvents())
	assert.Empty(t, fx.sink.alertEvents())
}

func TestProcessMalformedTimestampDeadLetters(t *testing.T) {
	fx := newProcessorFixture(t, &staticResolver{}, reputation.NewMemoryStore())

	payload := []byte(`{"timestamp": "not-a-time", "service": "http", "source_ip": "203.0.113.9"}`)

	require.NoError(t, fx.processor.Process(context.Background(), payload))
	require.Len(t, fx.sink.deadLetters, 1)
	assert.Empty(t, fx.sink.primaryEvents())
}

func TestProcessStoreUnavailableFailsOpen(t *testing.T) {
	fx := newProcessorFixture(t, &staticResolver{}, &downStore{})

	payload := []byte(`{"service": "ssh", "event_type": "auth_attempt", "source_ip": "203.0.113.9"}`)

	require.NoError(t, fx.processor.Process(context.Background(), payload))

	events := fx.sink.primaryEvents()
	require.Len(t, events, 1)
	assert.True(t, events[0].ReputationStateDegraded)
	assert.Equal(t, int64(1), events[0].AttackCount)
}

func TestProcessGeoFailureIsAbsorbed(t *testing.T) {
	fx := newProcessorFixture(t, &staticResolver{err: geo.ErrNotFound}, reputation.NewMemoryStore())

	payload := []byte(`{"service": "http", "event_type": "request", "source_ip": "203.0.113.9", "request_uri": "/index.html"}`)

	require.NoError(t, fx.processor.Process(context.Background(), payload))

	events := fx.sink.primaryEvents()
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Classification.Tags, geo.MarkerLookupFailed)
	assert.True(t, events[0].Geo.IsEmpty())
}

func TestProcessPrivateSourceTaggedWithoutLookup(t *testing.T) {
	fx := newProcessorFixture(t, &staticResolver{result: models.GeoContext{CountryCode: "XX"}}, reputation.NewMemoryStore())

	payload := []byte(`{"service": "ssh", "event_type": "auth_attempt", "source_ip": "192.168.1.5"}`)

	require.NoError(t, fx.processor.Process(context.Background(), payload))

	events := fx.sink.primaryEvents()
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Classification.Tags, geo.MarkerPrivateIP)
	assert.True(t, events[0].Geo.IsEmpty())
}

func TestProcessAttackCountSequence(t *testing.T) {
	fx := newProcessorFixture(t, &staticResolver{}, reputation.NewMemoryStore())

	payload := []byte(`{"service": "ftp", "event_type": "login_attempt", "source_ip": "203.0.113.50"}`)

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, fx.processor.Process(context.Background(), payload))
	}

	events := fx.sink.primaryEvents()
	require.Len(t, events, 4)

	counts := make([]int64, 0, len(events))
	for _, ev := range events {
		counts = append(counts, ev.AttackCount)
	}

	assert.ElementsMatch(t, []int64{1, 2, 3, 4}, counts)
}

func TestProcessFinalNeverBelowBase(t *testing.T) {
	fx := newProcessorFixture(t, &staticResolver{}, reputation.NewMemoryStore())

	// XSS gives base high with a tag score below the high threshold
	// once sql_injection is absent.
	payload := []byte(`{"service": "http", "event_type": "request", "source_ip": "203.0.113.9", "request_uri": "/p?x=<script>alert(document.cookie)</script>"}`)

	require.NoError(t, fx.processor.Process(context.Background(), payload))

	events := fx.sink.primaryEvents()
	require.Len(t, events, 1)

	ev := events[0]
	assert.GreaterOrEqual(t, ev.FinalThreatLevel.Severity(), ev.Classification.BaseThreatLevel.Severity())
	assert.Equal(t, models.ThreatHigh, ev.FinalThreatLevel)
}

// downStore simulates an unreachable reputation store.
type downStore struct{}

func (*downStore) IncrementAttackCount(context.Context, string, time.Time) (int64, error) {
	return 0, errors.New("connection refused")
}

func (*downStore) Get(context.Context, string) (*models.ReputationState, error) {
	return nil, errors.New("connection refused")
}

func (*downStore) Close() {}
