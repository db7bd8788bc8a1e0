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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/decoytrace/pkg/logger"
	"github.com/carverauto/decoytrace/pkg/models"
)

// fakeResolver counts lookups so tests can assert that private ranges
// and cache hits skip the resolver.
type fakeResolver struct {
	calls  int
	result models.GeoContext
	err    error
}

func (f *fakeResolver) Resolve(_ context.Context, _ net.IP) (models.GeoContext, error) {
	f.calls++

	if f.err != nil {
		return models.GeoContext{}, f.err
	}

	return f.result, nil
}

func (*fakeResolver) Close() error { return nil }

func newTestEnricher(t *testing.T, resolver Resolver) *Enricher {
	t.Helper()

	e, err := NewEnricher(resolver, 0, 0, logger.NewTestLogger())
	require.NoError(t, err)

	return e
}

func TestEnrichPublicAddress(t *testing.T) {
	resolver := &fakeResolver{result: models.GeoContext{
		CountryName:     "Netherlands",
		CountryCode:     "NL",
		CityName:        "Amsterdam",
		ContinentCode:   "EU",
		ASNNumber:       1136,
		ASNOrganization: "KPN B.V.",
	}}

	e := newTestEnricher(t, resolver)

	result := e.Enrich(context.Background(), "203.0.113.7")

	assert.Empty(t, result.Markers)
	assert.Equal(t, "NL", result.Geo.CountryCode)
	assert.Equal(t, uint(1136), result.Geo.ASNNumber)
	assert.Equal(t, 1, resolver.calls)
}

func TestEnrichPrivateRangesSkipLookup(t *testing.T) {
	resolver := &fakeResolver{}
	e := newTestEnricher(t, resolver)

	for _, ip := range []string{
		"10.1.2.3",
		"172.16.0.9",
		"192.168.1.50",
		"127.0.0.1",
		"169.254.10.10",
		"::1",
	} {
		result := e.Enrich(context.Background(), ip)

		assert.Equal(t, []string{MarkerPrivateIP}, result.Markers, "ip %s", ip)
		assert.True(t, result.Geo.IsEmpty(), "ip %s", ip)
	}

	assert.Zero(t, resolver.calls, "private addresses must never reach the resolver")
}

func TestEnrichLookupFailureIsNonFatal(t *testing.T) {
	resolver := &fakeResolver{err: ErrNotFound}
	e := newTestEnricher(t, resolver)

	result := e.Enrich(context.Background(), "198.51.100.23")

	assert.Equal(t, []string{MarkerLookupFailed}, result.Markers)
	assert.True(t, result.Geo.IsEmpty())
}

func TestEnrichUnparseableAddress(t *testing.T) {
	resolver := &fakeResolver{}
	e := newTestEnricher(t, resolver)

	result := e.Enrich(context.Background(), "not-an-ip")

	assert.Equal(t, []string{MarkerLookupFailed}, result.Markers)
	assert.Zero(t, resolver.calls)
}

func TestEnrichCachesResults(t *testing.T) {
	resolver := &fakeResolver{result: models.GeoContext{CountryCode: "DE"}}
	e := newTestEnricher(t, resolver)

	for i := 0; i < 5; i++ {
		result := e.Enrich(context.Background(), "203.0.113.7")
		assert.Equal(t, "DE", result.Geo.CountryCode)
	}

	assert.Equal(t, 1, resolver.calls)
}

func TestEnrichDoesNotCacheFailures(t *testing.T) {
	resolver := &fakeResolver{err: ErrNotFound}
	e := newTestEnricher(t, resolver)

	e.Enrich(context.Background(), "203.0.113.7")
	e.Enrich(context.Background(), "203.0.113.7")

	assert.Equal(t, 2, resolver.calls)
}
