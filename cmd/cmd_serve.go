// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"

	"github.com/camdev/padron/catalog"
	"github.com/camdev/padron/geocode"
	"github.com/camdev/padron/server"
	"github.com/camdev/padron/user"
	"github.com/camdev/padron/utils/textutil"
)

const dbFile = "padron.duckdb"

type serveOptions struct {
	DbPath          string
	Listen          string
	SeedFile        string
	Geocoder        string
	UserAgent       string
	GeocodeInterval time.Duration
	TraceHTTP       bool
}

var serveFlags = serveOptions{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the profile HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := os.MkdirAll(serveFlags.DbPath, 0o750); err != nil {
			return fmt.Errorf("creating db directory: %w", err)
		}

		dbpath := filepath.Join(serveFlags.DbPath, dbFile)

		db, err := sql.Open("duckdb", dbpath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		catalogRepo := catalog.NewRepository(db)
		if err := catalogRepo.CreateSchema(); err != nil {
			return fmt.Errorf("creating catalog schema: %w", err)
		}

		userRepo := user.NewRepository(db)
		if err := userRepo.CreateSchema(); err != nil {
			return fmt.Errorf("creating profile schema: %w", err)
		}

		seeded, n, err := catalog.SeedIfEmpty(catalogRepo, serveFlags.SeedFile)
		if err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}

		if seeded {
			log.Printf("✅ Seeded catalog with %s municipalities from %s",
				textutil.FormatInt(int64(n)), serveFlags.SeedFile)
		}

		geocoder, err := buildGeocoder(cmd.Context())
		if err != nil {
			return err
		}

		enricher := geocode.NewEnricher(geocoder, catalogRepo, serveFlags.GeocodeInterval)
		service := user.NewService(userRepo, enricher)

		srv := server.NewServer(service, catalogRepo, geocoder)

		log.Printf("📍 Geocoding: %s (min interval %s)", serveFlags.Geocoder, serveFlags.GeocodeInterval)
		log.Printf("🌐 Listening on %s", serveFlags.Listen)

		return srv.Run(serveFlags.Listen)
	},
}

func buildGeocoder(ctx context.Context) (geocode.Geocoder, error) {
	switch serveFlags.Geocoder {
	case "nominatim":
		var trace io.Writer
		if serveFlags.TraceHTTP {
			trace = os.Stderr
		}

		return geocode.NewNominatimGeocoder(&geocode.NominatimOptions{
			UserAgent: serveFlags.UserAgent,
			Trace:     trace,
		}), nil
	case "google":
		apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
		if apiKey == "" {
			log.Println("GOOGLE_MAPS_API_KEY is not set. Attempting to retrieve via ADC...")

			var err error

			apiKey, err = geocode.APIKeyFromADC(ctx)
			if err != nil {
				return nil, fmt.Errorf("retrieving API key via ADC: %w", err)
			}

			log.Println("✅ Retrieved Google Maps API key via ADC")
		}

		return geocode.NewGoogleMapsGeocoder(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown geocoder %q (expected nominatim or google)", serveFlags.Geocoder)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.DbPath, "db-path", "db",
		"directory holding the duckdb database")
	serveCmd.Flags().StringVar(&serveFlags.Listen, "listen", "localhost:8080",
		"address to listen on")
	serveCmd.Flags().StringVar(&serveFlags.SeedFile, "seed-file", "data/locations.co.json",
		"catalog seed file, loaded once when the catalog is empty")
	serveCmd.Flags().StringVar(&serveFlags.Geocoder, "geocoder", "nominatim",
		"geocoding provider: nominatim or google")
	serveCmd.Flags().StringVar(&serveFlags.UserAgent, "user-agent", "padron/1.0 (cam@dev.com)",
		"User-Agent sent to the nominatim endpoint")
	serveCmd.Flags().DurationVar(&serveFlags.GeocodeInterval, "geocode-interval", geocode.DefaultMinInterval,
		"minimum spacing between geocoding calls")
	serveCmd.Flags().BoolVar(&serveFlags.TraceHTTP, "trace-http", false,
		"dump geocoding HTTP transactions to stderr")
}
