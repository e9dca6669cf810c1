// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/camdev/padron/catalog"
	"github.com/camdev/padron/utils/textutil"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the location catalog",
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load the catalog from a JSON seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		db, err := openCatalogDB()
		if err != nil {
			return err
		}
		defer db.Close()

		repo := catalog.NewRepository(db)
		if err := repo.CreateSchema(); err != nil {
			return fmt.Errorf("creating catalog schema: %w", err)
		}

		count, err := repo.CountCountries()
		if err != nil {
			return fmt.Errorf("counting countries: %w", err)
		}

		if count > 0 {
			return fmt.Errorf("catalog already has %d countries, refusing to reload", count)
		}

		seed, err := catalog.LoadSeed(args[0])
		if err != nil {
			return fmt.Errorf("loading seed: %w", err)
		}

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(seed.CountMunicipalities(),
				progressbar.OptionSetDescription("Loading "+seed.Country.Name),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		if err := repo.BulkInsert(seed, func(municipalities int) {
			if bar != nil {
				_ = bar.Add(municipalities)
			}
		}); err != nil {
			return fmt.Errorf("inserting seed: %w", err)
		}

		fmt.Printf("✅ Loaded %s departments and %s municipalities from %s\n",
			textutil.FormatInt(int64(len(seed.Departments))),
			textutil.FormatInt(int64(seed.CountMunicipalities())),
			args[0])

		return nil
	},
}

var catalogStoreCmd = &cobra.Command{
	Use:   "store <file>",
	Short: "Export the catalog to a JSON file",
	Long:  `Exports the whole catalog to a local JSON file. The file is sorted to minimize diffs when checking into version control.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		db, err := openCatalogDB()
		if err != nil {
			return err
		}
		defer db.Close()

		repo := catalog.NewRepository(db)
		if err := catalog.ExportToJSON(repo, args[0]); err != nil {
			return fmt.Errorf("exporting catalog: %w", err)
		}

		fmt.Printf("✅ Exported catalog to %s\n", args[0])

		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list [departmentCode]",
	Short: "List departments, or the municipalities of one department",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		db, err := openCatalogDB()
		if err != nil {
			return err
		}
		defer db.Close()

		repo := catalog.NewRepository(db)

		if len(args) == 1 {
			municipalities, err := repo.ListMunicipalities(args[0])
			if err != nil {
				return fmt.Errorf("listing municipalities: %w", err)
			}

			for _, m := range municipalities {
				fmt.Printf("%s\t%s\n", m.Code, m.Name)
			}

			return nil
		}

		countries, err := repo.ListCountries()
		if err != nil {
			return fmt.Errorf("listing countries: %w", err)
		}

		for _, c := range countries {
			departments, err := repo.ListDepartments(c.Code)
			if err != nil {
				return fmt.Errorf("listing departments of %s: %w", c.Code, err)
			}

			for _, d := range departments {
				fmt.Printf("%s\t%s\t%s\n", c.Code, d.Code, d.Name)
			}
		}

		return nil
	},
}

func openCatalogDB() (*sql.DB, error) {
	dbpath := filepath.Join(serveFlags.DbPath, dbFile)

	db, err := sql.Open("duckdb", dbpath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogLoadCmd)
	catalogCmd.AddCommand(catalogStoreCmd)
	catalogCmd.AddCommand(catalogListCmd)

	catalogCmd.PersistentFlags().StringVar(&serveFlags.DbPath, "db-path", "db",
		"directory holding the duckdb database")
}
