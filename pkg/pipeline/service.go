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
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carverauto/decoytrace/pkg/classify"
	"github.com/carverauto/decoytrace/pkg/geo"
	"github.com/carverauto/decoytrace/pkg/logger"
	"github.com/carverauto/decoytrace/pkg/natsutil"
	"github.com/carverauto/decoytrace/pkg/reputation"
	"github.com/carverauto/decoytrace/pkg/version"
)

const shutdownTimeout = 10 * time.Second

// Service owns the pipeline's runtime: NATS connection, reputation
// store, geo databases, consumer goroutine, and the metrics/health
// listener.
type Service struct {
	cfg       *Config
	logger    logger.Logger
	nc        *nats.Conn
	js        jetstream.JetStream
	store     reputation.Store
	resolver  geo.Resolver
	consumer  *Consumer
	processor *Processor
	httpSrv   *http.Server
	wg        sync.WaitGroup
}

// NewService validates the configuration and returns an unstarted
// service.
func NewService(cfg *Config, log logger.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Service{cfg: cfg, logger: log}, nil
}

// Start connects the external collaborators and begins consuming.
func (s *Service) Start(ctx context.Context) error {
	rules, err := classify.LoadRules(s.cfg.RulesFile)
	if err != nil {
		return err
	}

	resolver, err := geo.NewMaxMindResolver(s.cfg.GeoCityDB, s.cfg.GeoASNDB)
	if err != nil {
		return err
	}

	s.resolver = resolver

	enricher, err := geo.NewEnricher(resolver, s.cfg.GeoCacheSize, s.cfg.GeoTimeoutDuration(), s.logger)
	if err != nil {
		return err
	}

	store, err := reputation.NewPostgresStore(ctx, &s.cfg.Database, s.logger)
	if err != nil {
		return err
	}

	s.store = store

	nc, err := natsutil.Connect(s.cfg.NATSURL, s.cfg.Security, s.logger)
	if err != nil {
		return err
	}

	s.nc = nc

	var js jetstream.JetStream

	if s.cfg.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, s.cfg.Domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	s.js = js

	if _, err = js.Stream(ctx, s.cfg.StreamName); err != nil {
		if !errors.Is(err, jetstream.ErrStreamNotFound) {
			nc.Close()
			return fmt.Errorf("failed to get stream %s: %w", s.cfg.StreamName, err)
		}

		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     s.cfg.StreamName,
			Subjects: []string{s.cfg.Subject},
		})
		if err != nil {
			nc.Close()
			return fmt.Errorf("failed to create stream %s: %w", s.cfg.StreamName, err)
		}
	}

	sinkSubjects := []string{
		s.cfg.EventSubjectPrefix + ".>",
		s.cfg.AlertSubjectPrefix + ".>",
		s.cfg.DeadLetterSubject,
	}

	publisher, err := NewPublisher(ctx, js, s.cfg.SinkStreamName, sinkSubjects, s.logger)
	if err != nil {
		nc.Close()
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	scorer := reputation.NewScorer(store, reputation.ScorerConfig{
		Weights:            s.cfg.ScoreWeights,
		MediumScore:        s.cfg.MediumScore,
		HighScore:          s.cfg.HighScore,
		FrequencyThreshold: s.cfg.FrequencyThreshold,
		StoreTimeout:       s.cfg.ReputationTimeoutDuration(),
	}, s.logger)

	router := NewRouter(s.cfg.EventSubjectPrefix, s.cfg.AlertSubjectPrefix, s.cfg.DeadLetterSubject)

	s.processor = NewProcessor(enricher, classify.NewClassifier(rules), scorer, router, publisher, metrics, s.logger)

	s.consumer, err = NewConsumer(ctx, js, s.cfg.StreamName, s.cfg.ConsumerName, s.cfg.Subject, s.logger)
	if err != nil {
		nc.Close()
		return err
	}

	s.startHTTP(registry)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.consumer.ProcessMessages(ctx, s.processor)
	}()

	s.logger.Info().
		Str("version", version.GetFullVersion()).
		Str("stream_name", s.cfg.StreamName).
		Str("consumer_name", s.cfg.ConsumerName).
		Str("listen_addr", s.cfg.ListenAddr).
		Msg("enrichment pipeline started")

	return nil
}

func (s *Service) startHTTP(registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.httpSrv = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("metrics listener failed")
		}
	}()
}

// Stop shuts the service down.
func (s *Service) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if s.httpSrv != nil {
		_ = s.httpSrv.Shutdown(shutdownCtx)
	}

	if s.nc != nil {
		s.nc.Close()
	}

	if s.store != nil {
		s.store.Close()
	}

	if s.resolver != nil {
		_ = s.resolver.Close()
	}

	s.wg.Wait()

	s.logger.Info().Msg("enrichment pipeline stopped")

	return nil
}
