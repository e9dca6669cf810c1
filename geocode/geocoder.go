// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode resolves free-text Colombian addresses to coordinates through
// external geocoding providers, and fills missing coordinates on address
// batches under the provider's rate-limit contract.
package geocode

import "context"

// Result represents a geocoding result from any provider.
type Result struct {
	Lat         float64
	Lon         float64
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string
}

// Geocoder interface for different geocoding providers.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Result, error)
}
