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

// Package geo resolves source addresses to location and ASN context
// from MaxMind databases.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"

	"github.com/carverauto/decoytrace/pkg/models"
)

// ErrNotFound indicates the address is not present in the database.
var ErrNotFound = errors.New("address not found in geo database")

var errNoDatabases = errors.New("no geo databases configured")

// Resolver looks up geo context for an address. Implementations must
// honor context cancellation for lookups that can block.
type Resolver interface {
	Resolve(ctx context.Context, ip net.IP) (models.GeoContext, error)
	Close() error
}

// cityRecord maps the GeoLite2-City fields the pipeline keeps.
type cityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Continent struct {
		Code string `maxminddb:"code"`
	} `maxminddb:"continent"`
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
		TimeZone  string  `maxminddb:"time_zone"`
	} `maxminddb:"location"`
}

// asnRecord maps the GeoLite2-ASN fields.
type asnRecord struct {
	Number       uint   `maxminddb:"autonomous_system_number"`
	Organization string `maxminddb:"autonomous_system_organization"`
}

// MaxMindResolver resolves against local GeoLite2 City and ASN mmdb
// files. Either database may be absent; the other still contributes.
type MaxMindResolver struct {
	city *maxminddb.Reader
	asn  *maxminddb.Reader
}

// NewMaxMindResolver opens the configured databases. At least one path
// must be set.
func NewMaxMindResolver(cityPath, asnPath string) (*MaxMindResolver, error) {
	if cityPath == "" && asnPath == "" {
		return nil, errNoDatabases
	}

	r := &MaxMindResolver{}

	if cityPath != "" {
		city, err := maxminddb.Open(cityPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open city database '%s': %w", cityPath, err)
		}

		r.city = city
	}

	if asnPath != "" {
		asn, err := maxminddb.Open(asnPath)
		if err != nil {
			if r.city != nil {
				_ = r.city.Close()
			}

			return nil, fmt.Errorf("failed to open ASN database '%s': %w", asnPath, err)
		}

		r.asn = asn
	}

	return r, nil
}

// Resolve looks the address up in both databases. It returns
// ErrNotFound when neither database knows the address.
func (r *MaxMindResolver) Resolve(ctx context.Context, ip net.IP) (models.GeoContext, error) {
	if err := ctx.Err(); err != nil {
		return models.GeoContext{}, err
	}

	var out models.GeoContext

	if r.city != nil {
		var rec cityRecord

		if err := r.city.Lookup(ip, &rec); err != nil {
			return models.GeoContext{}, fmt.Errorf("city lookup failed: %w", err)
		}

		out.CountryName = rec.Country.Names["en"]
		out.CountryCode = rec.Country.ISOCode
		out.CityName = rec.City.Names["en"]
		out.ContinentCode = rec.Continent.Code
		out.Latitude = rec.Location.Latitude
		out.Longitude = rec.Location.Longitude
		out.Timezone = rec.Location.TimeZone
	}

	if r.asn != nil {
		var rec asnRecord

		if err := r.asn.Lookup(ip, &rec); err != nil {
			return models.GeoContext{}, fmt.Errorf("asn lookup failed: %w", err)
		}

		out.ASNNumber = rec.Number
		out.ASNOrganization = rec.Organization
	}

	if out.IsEmpty() {
		return models.GeoContext{}, ErrNotFound
	}

	return out, nil
}

// Close releases the underlying database readers.
func (r *MaxMindResolver) Close() error {
	var errs []error

	if r.city != nil {
		errs = append(errs, r.city.Close())
	}

	if r.asn != nil {
		errs = append(errs, r.asn.Close())
	}

	return errors.Join(errs...)
}
