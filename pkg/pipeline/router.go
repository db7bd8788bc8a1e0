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
	"fmt"

	"github.com/carverauto/decoytrace/pkg/models"
)

// dayFormat partitions the primary stream by day.
const dayFormat = "20060102"

// Destinations lists the subjects one enriched event is published to.
// Alert is empty when the event does not cross the alerting threshold.
type Destinations struct {
	Primary string
	Alert   string
}

// Router decides destination subjects. It only reads the final threat
// level; it never changes scoring.
type Router struct {
	eventPrefix       string
	alertPrefix       string
	deadLetterSubject string
}

// NewRouter builds a router with the configured subject prefixes.
func NewRouter(eventPrefix, alertPrefix, deadLetterSubject string) *Router {
	return &Router{
		eventPrefix:       eventPrefix,
		alertPrefix:       alertPrefix,
		deadLetterSubject: deadLetterSubject,
	}
}

// Route returns the destinations for an enriched event. Every event
// goes to the day- and service-partitioned primary subject; high and
// critical events additionally go to the alert subject.
func (r *Router) Route(ev *models.EnrichedEvent) Destinations {
	day := ev.ProcessedAt.UTC().Format(dayFormat)

	dest := Destinations{
		Primary: fmt.Sprintf("%s.%s.%s", r.eventPrefix, ev.Service, day),
	}

	if ev.FinalThreatLevel.Severity() >= models.ThreatHigh.Severity() {
		dest.Alert = fmt.Sprintf("%s.%s", r.alertPrefix, ev.Service)
	}

	return dest
}

// DeadLetter returns the dead-letter subject.
func (r *Router) DeadLetter() string {
	return r.deadLetterSubject
}
