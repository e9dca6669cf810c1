// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/camdev/padron/catalog"
	"github.com/camdev/padron/spatial"
	"github.com/camdev/padron/user"
)

// DefaultMinInterval is the minimum spacing between two upstream geocoding
// calls. The public Nominatim policy allows at most one request per second;
// the extra slack keeps bursts of addresses safely under it.
const DefaultMinInterval = 1500 * time.Millisecond

// MunicipalityLookup resolves municipality codes against the catalog.
type MunicipalityLookup interface {
	GetMunicipality(code string) (*catalog.Municipality, error)
}

// Enricher resolves coordinates for addresses that lack them. Failures to
// geocode an individual address are logged and tolerated; only catalog errors
// and context cancellation abort the batch.
type Enricher struct {
	geocoder Geocoder
	catalog  MunicipalityLookup
	interval time.Duration

	// wait pauses between upstream calls, honoring ctx. Replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewEnricher creates an enricher over the given geocoder and catalog. A
// non-positive minInterval falls back to DefaultMinInterval.
func NewEnricher(geocoder Geocoder, lookup MunicipalityLookup, minInterval time.Duration) *Enricher {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}

	return &Enricher{
		geocoder: geocoder,
		catalog:  lookup,
		interval: minInterval,
		wait:     sleepContext,
	}
}

// Enrich fills in coordinates for every address in the batch that has none.
// Addresses already carrying a point are left untouched and cost no upstream
// call. The batch is processed in order with at least the configured interval
// between upstream calls.
func (e *Enricher) Enrich(ctx context.Context, addresses []*user.Address) error {
	for _, a := range addresses {
		if a.Point != nil {
			continue
		}

		m, err := e.catalog.GetMunicipality(a.MunicipalityCode)
		if err != nil {
			return fmt.Errorf("resolving municipality %s: %w", a.MunicipalityCode, err)
		}

		if m == nil {
			log.Printf("WARN: skipping geocoding, unknown municipality code %q", a.MunicipalityCode)

			continue
		}

		if m.DepartmentCode != a.DepartmentCode {
			log.Printf("WARN: municipality %s belongs to department %s, address says %s",
				a.MunicipalityCode, m.DepartmentCode, a.DepartmentCode)
		}

		query := NormalizeQuery(a.Line1, m.Name)
		if query == "" {
			continue
		}

		result, err := e.geocoder.Geocode(ctx, query)

		switch {
		case err == nil:
			a.Point = &spatial.Point{Lat: result.Lat, Lng: result.Lon}
		case ctx.Err() != nil:
			return ctx.Err()
		case IsRateLimitError(err):
			log.Printf("WARN: rate limited geocoding %q, leaving address without coordinates", query)
		default:
			log.Printf("WARN: geocoding %q: %v", query, err)
		}

		if err := e.wait(ctx, e.interval); err != nil {
			return err
		}
	}

	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
