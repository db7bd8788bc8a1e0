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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes pipeline counters and timings.
type Metrics struct {
	Processed          *prometheus.CounterVec
	DeadLettered       prometheus.Counter
	Alerted            *prometheus.CounterVec
	GeoLookupFailures  prometheus.Counter
	ReputationDegraded prometheus.Counter
	ProcessingDuration prometheus.Histogram
}

// NewMetrics registers the pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Processed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "decoytrace_events_processed_total",
			Help: "Events fully processed, by service.",
		}, []string{"service"}),
		DeadLettered: factory.NewCounter(prometheus.CounterOpts{
			Name: "decoytrace_events_dead_lettered_total",
			Help: "Structurally invalid events routed to the dead-letter sink.",
		}),
		Alerted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "decoytrace_events_alerted_total",
			Help: "Events routed to the high-priority alert sink, by service.",
		}, []string{"service"}),
		GeoLookupFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "decoytrace_geo_lookup_failures_total",
			Help: "Geo lookups that missed, timed out, or errored.",
		}),
		ReputationDegraded: factory.NewCounter(prometheus.CounterOpts{
			Name: "decoytrace_reputation_degraded_total",
			Help: "Events scored without a usable reputation store.",
		}),
		ProcessingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "decoytrace_event_processing_seconds",
			Help:    "End-to-end processing time per event.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
