// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/camdev/padron/utils/httputils"
)

// DefaultNominatimURL is the public OSM Nominatim search endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// NominatimOptions configures a NominatimGeocoder.
type NominatimOptions struct {
	// BaseURL of the search endpoint. Defaults to DefaultNominatimURL.
	BaseURL string

	// UserAgent identifies this service to the endpoint. Nominatim's usage
	// policy requires it to name the application and a contact.
	UserAgent string

	// Trace, when set, receives a dump of every HTTP transaction.
	Trace io.Writer
}

// NominatimGeocoder queries the OSM Nominatim search API, scoped to the
// catalog country. The client is stateless; request pacing is the caller's
// responsibility.
type NominatimGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a new Nominatim geocoder.
func NewNominatimGeocoder(opts *NominatimOptions) *NominatimGeocoder {
	if opts == nil {
		opts = &NominatimOptions{}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "padron/unknown"
	}

	transport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		Transport: &httputils.LoggingRoundTripper{
			Writer:    opts.Trace,
			DumpBody:  false,
			Transport: http.DefaultTransport,
		},
	}

	return &NominatimGeocoder{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

// Coordinates arrive as strings and are parsed with the locale-independent
// strconv format.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	if query == "" {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "empty query"}
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")
	params.Set("extratags", "1")
	params.Set("countrycodes", "co")
	params.Set("q", query)

	reqURL := g.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeNetworkError, Message: "geocoding request failed", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(results) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("no results found for query: %s", query),
		}
	}

	first := results[0]

	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", first.Lat, err)
	}

	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", first.Lon, err)
	}

	return &Result{
		Lat:         lat,
		Lon:         lon,
		Confidence:  "medium",
		Provider:    "nominatim",
		DisplayName: first.DisplayName,
	}, nil
}
