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

package reputation

import (
	"context"
	"time"

	"github.com/carverauto/decoytrace/pkg/classify"
	"github.com/carverauto/decoytrace/pkg/logger"
	"github.com/carverauto/decoytrace/pkg/models"
)

const (
	defaultMediumScore        = 10
	defaultHighScore          = 20
	defaultFrequencyThreshold = 100
	defaultStoreTimeout       = 200 * time.Millisecond
)

// DefaultWeights returns the per-tag score increments. Each weight is
// applied once per tag present, regardless of how many sub-conditions
// fired.
func DefaultWeights() map[string]int {
	return map[string]int{
		classify.TagBruteForce:    10,
		classify.TagSQLInjection:  20,
		classify.TagAutomatedScan: 15,
		classify.TagIoTBotnet:     25,
	}
}

// ScorerConfig tunes the scoring thresholds. Zero values select the
// defaults.
type ScorerConfig struct {
	Weights            map[string]int
	MediumScore        int
	HighScore          int
	FrequencyThreshold int64
	StoreTimeout       time.Duration
}

func (c *ScorerConfig) applyDefaults() {
	if c.Weights == nil {
		c.Weights = DefaultWeights()
	}

	if c.MediumScore <= 0 {
		c.MediumScore = defaultMediumScore
	}

	if c.HighScore <= 0 {
		c.HighScore = defaultHighScore
	}

	if c.FrequencyThreshold <= 0 {
		c.FrequencyThreshold = defaultFrequencyThreshold
	}

	if c.StoreTimeout <= 0 {
		c.StoreTimeout = defaultStoreTimeout
	}
}

// Outcome is the scoring result for one event.
type Outcome struct {
	Score                 int
	AttackCount           int64
	FinalThreatLevel      models.ThreatLevel
	HighFrequencyAttacker bool
	StateDegraded         bool
}

// Scorer combines classification tags and the stored attack count into
// a reputation score and final threat level.
type Scorer struct {
	store  Store
	cfg    ScorerConfig
	logger logger.Logger
}

// NewScorer builds a scorer over the given store.
func NewScorer(store Store, cfg ScorerConfig, log logger.Logger) *Scorer {
	cfg.applyDefaults()

	return &Scorer{store: store, cfg: cfg, logger: log}
}

// Score increments the source's attack count and derives the final
// outcome. Every processed event counts as one attack regardless of
// classification. A store failure fails open: the event proceeds with
// a count of one and the degraded flag set so downstream consumers can
// discount the score.
func (s *Scorer) Score(ctx context.Context, sourceIP string, tags []string, base models.ThreatLevel, seen time.Time) Outcome {
	out := Outcome{Score: s.tagScore(tags)}

	tagLevel := s.scoreLevel(out.Score)

	out.AttackCount = 1

	if sourceIP == "" {
		// No address to attribute the event to; skip the store and
		// mark the score as degraded.
		out.StateDegraded = true
	} else {
		storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
		defer cancel()

		count, err := s.store.IncrementAttackCount(storeCtx, sourceIP, seen)
		if err != nil {
			s.logger.Warn().
				Str("source_ip", sourceIP).
				Err(err).
				Msg("reputation store unavailable, scoring degraded")

			out.StateDegraded = true
		} else {
			out.AttackCount = count
		}
	}

	if out.AttackCount >= s.cfg.FrequencyThreshold {
		out.HighFrequencyAttacker = true
		out.FinalThreatLevel = models.ThreatCritical

		return out
	}

	final := models.MaxLevel(base, tagLevel)
	if final == models.ThreatUnset {
		final = models.ThreatLow
	}

	out.FinalThreatLevel = final

	return out
}

func (s *Scorer) tagScore(tags []string) int {
	score := 0

	for _, tag := range tags {
		score += s.cfg.Weights[tag]
	}

	return score
}

func (s *Scorer) scoreLevel(score int) models.ThreatLevel {
	switch {
	case score >= s.cfg.HighScore:
		return models.ThreatHigh
	case score >= s.cfg.MediumScore:
		return models.ThreatMedium
	default:
		return models.ThreatLow
	}
}
