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

package geo

import (
	"context"
	"net"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/carverauto/decoytrace/pkg/logger"
	"github.com/carverauto/decoytrace/pkg/models"
)

// Marker tags attached to an event's classification by the enrichment
// stage.
const (
	// MarkerPrivateIP flags private, loopback, and link-local sources.
	// These skip the external lookup entirely.
	MarkerPrivateIP = "private_ip"
	// MarkerLookupFailed flags a miss, timeout, or resolver failure.
	// The event proceeds with an empty GeoContext.
	MarkerLookupFailed = "geo_lookup_failed"
)

const (
	defaultTimeout   = 300 * time.Millisecond
	defaultCacheSize = 4096
)

// Result is the outcome of enriching one source address.
type Result struct {
	Geo     models.GeoContext
	Markers []string
}

// Enricher resolves source addresses with a bounded timeout and an LRU
// cache in front of the resolver. Lookup failures are never fatal.
type Enricher struct {
	resolver Resolver
	cache    *lru.Cache[string, models.GeoContext]
	timeout  time.Duration
	logger   logger.Logger
}

// NewEnricher builds an enricher. Zero timeout and cache size select
// the defaults.
func NewEnricher(resolver Resolver, cacheSize int, timeout time.Duration, log logger.Logger) (*Enricher, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	cache, err := lru.New[string, models.GeoContext](cacheSize)
	if err != nil {
		return nil, err
	}

	return &Enricher{
		resolver: resolver,
		cache:    cache,
		timeout:  timeout,
		logger:   log,
	}, nil
}

// Enrich resolves one source address. Private ranges short-circuit
// without touching the resolver; any lookup failure yields an empty
// context plus the MarkerLookupFailed marker.
func (e *Enricher) Enrich(ctx context.Context, sourceIP string) Result {
	ip := net.ParseIP(sourceIP)
	if ip == nil {
		return Result{Markers: []string{MarkerLookupFailed}}
	}

	if isPrivate(ip) {
		return Result{Markers: []string{MarkerPrivateIP}}
	}

	if cached, ok := e.cache.Get(sourceIP); ok {
		return Result{Geo: cached}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	geoCtx, err := e.resolver.Resolve(lookupCtx, ip)
	if err != nil {
		e.logger.Debug().
			Str("source_ip", sourceIP).
			Err(err).
			Msg("geo lookup failed")

		return Result{Markers: []string{MarkerLookupFailed}}
	}

	e.cache.Add(sourceIP, geoCtx)

	return Result{Geo: geoCtx}
}

func isPrivate(ip net.IP) bool {
	return ip.IsPrivate() ||
		ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
