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

package models

import (
	"encoding/json"
	"time"
)

// GeoContext holds the location and ASN attributes resolved for a
// source address. All fields are optional; a lookup may miss.
type GeoContext struct {
	CountryName     string  `json:"country_name,omitempty"`
	CountryCode     string  `json:"country_code,omitempty"`
	CityName        string  `json:"city_name,omitempty"`
	ContinentCode   string  `json:"continent_code,omitempty"`
	Latitude        float64 `json:"latitude,omitempty"`
	Longitude       float64 `json:"longitude,omitempty"`
	Timezone        string  `json:"timezone,omitempty"`
	ASNNumber       uint    `json:"asn,omitempty"`
	ASNOrganization string  `json:"as_org,omitempty"`
}

// IsEmpty reports whether no lookup data was resolved.
func (g *GeoContext) IsEmpty() bool {
	return *g == GeoContext{}
}

// ClassificationResult is the outcome of running the rule tables over
// one raw event. Tags are additive across rules; AttackType and
// BaseThreatLevel follow last-writer-wins in rule declaration order.
type ClassificationResult struct {
	ServiceCategory ServiceType `json:"service_category"`
	Tags            []string    `json:"tags,omitempty"`
	AttackType      string      `json:"attack_type,omitempty"`
	BaseThreatLevel ThreatLevel `json:"base_threat_level,omitempty"`
}

// HasTag reports whether a tag is present in the result.
func (c *ClassificationResult) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}

	return false
}

// ReputationState is the per-source aggregate kept in the reputation
// store. AttackCount increases by exactly one for every processed event
// attributed to the address.
type ReputationState struct {
	SourceIP    string    `json:"source_ip"`
	AttackCount int64     `json:"attack_count"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
}

// EnrichedEvent is the pipeline's terminal artifact: the raw event plus
// geo context, classification, session fingerprint, and reputation
// outcome. FinalThreatLevel is never less severe than the
// classification's BaseThreatLevel.
type EnrichedEvent struct {
	RawEvent

	Geo                     GeoContext           `json:"geoip"`
	Classification          ClassificationResult `json:"classification"`
	SessionID               string               `json:"session_id"`
	ReputationScore         int                  `json:"reputation_score"`
	AttackCount             int64                `json:"attack_count"`
	FinalThreatLevel        ThreatLevel          `json:"threat_level"`
	HighFrequencyAttacker   bool                 `json:"high_frequency_attacker"`
	ReputationStateDegraded bool                 `json:"reputation_state_degraded,omitempty"`
	PipelineVersion         string               `json:"pipeline_version"`
	ProcessedAt             time.Time            `json:"processed_at"`
}

// DeadLetterRecord wraps a structurally invalid payload for the
// dead-letter sink. The original bytes are preserved verbatim.
type DeadLetterRecord struct {
	ID          string          `json:"id"`
	RawPayload  json.RawMessage `json:"raw_payload"`
	ErrorReason string          `json:"error_reason"`
	Timestamp   time.Time       `json:"timestamp"`
}
