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

// Package pipeline wires the enrichment stages into a streaming
// consumer: raw decoy event in, enriched event out to the primary,
// alert, and dead-letter sinks.
package pipeline

import (
	"errors"
	"time"

	"github.com/carverauto/decoytrace/pkg/logger"
	"github.com/carverauto/decoytrace/pkg/models"
)

var (
	ErrMissingListenAddr   = errors.New("listen_addr is required")
	ErrMissingNATSURL      = errors.New("nats_url is required")
	ErrMissingStreamName   = errors.New("stream_name is required")
	ErrMissingConsumerName = errors.New("consumer_name is required")
	ErrMissingDatabase     = errors.New("database configuration is required")
	ErrMissingGeoDatabase  = errors.New("at least one geo database path is required")
)

const (
	defaultSubject           = "decoy.events.>"
	defaultSinkStream        = "DECOYTRACE_ENRICHED"
	defaultEventPrefix       = "enriched.events"
	defaultAlertPrefix       = "enriched.alerts"
	defaultDeadLetterSubject = "enriched.deadletter"
)

// Config holds the full pipeline configuration, loaded from JSON.
type Config struct {
	ListenAddr   string `json:"listen_addr"`
	NATSURL      string `json:"nats_url"`
	Domain       string `json:"domain,omitempty"`
	StreamName   string `json:"stream_name"`
	Subject      string `json:"subject"`
	ConsumerName string `json:"consumer_name"`

	SinkStreamName     string `json:"sink_stream_name"`
	EventSubjectPrefix string `json:"event_subject_prefix"`
	AlertSubjectPrefix string `json:"alert_subject_prefix"`
	DeadLetterSubject  string `json:"dead_letter_subject"`

	GeoCityDB    string          `json:"geo_city_db"`
	GeoASNDB     string          `json:"geo_asn_db"`
	GeoCacheSize int             `json:"geo_cache_size,omitempty"`
	GeoTimeout   models.Duration `json:"geo_timeout,omitempty"`

	Database          models.DatabaseConfig `json:"database"`
	ReputationTimeout models.Duration       `json:"reputation_timeout,omitempty"`

	FrequencyThreshold int64          `json:"frequency_threshold,omitempty"`
	ScoreWeights       map[string]int `json:"score_weights,omitempty"`
	MediumScore        int            `json:"medium_score,omitempty"`
	HighScore          int            `json:"high_score,omitempty"`

	RulesFile string `json:"rules_file,omitempty"`

	Security *models.SecurityConfig `json:"security,omitempty"`

	Logging *logger.Config `json:"logging,omitempty"`
}

// Validate checks the configuration for required fields and fills in
// sink defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, ErrMissingListenAddr)
	}

	if c.NATSURL == "" {
		errs = append(errs, ErrMissingNATSURL)
	}

	if c.StreamName == "" {
		errs = append(errs, ErrMissingStreamName)
	}

	if c.ConsumerName == "" {
		errs = append(errs, ErrMissingConsumerName)
	}

	if c.Database.Host == "" || c.Database.Database == "" {
		errs = append(errs, ErrMissingDatabase)
	}

	if c.GeoCityDB == "" && c.GeoASNDB == "" {
		errs = append(errs, ErrMissingGeoDatabase)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if c.Subject == "" {
		c.Subject = defaultSubject
	}

	if c.SinkStreamName == "" {
		c.SinkStreamName = defaultSinkStream
	}

	if c.EventSubjectPrefix == "" {
		c.EventSubjectPrefix = defaultEventPrefix
	}

	if c.AlertSubjectPrefix == "" {
		c.AlertSubjectPrefix = defaultAlertPrefix
	}

	if c.DeadLetterSubject == "" {
		c.DeadLetterSubject = defaultDeadLetterSubject
	}

	return nil
}

// GeoTimeoutDuration returns the configured geo lookup timeout.
func (c *Config) GeoTimeoutDuration() time.Duration {
	return time.Duration(c.GeoTimeout)
}

// ReputationTimeoutDuration returns the configured store timeout.
func (c *Config) ReputationTimeoutDuration() time.Duration {
	return time.Duration(c.ReputationTimeout)
}
