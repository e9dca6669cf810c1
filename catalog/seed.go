// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// SeedData represents the JSON seed file format, a country with its
// departments and their municipalities.
type SeedData struct {
	Country     CountrySeed      `json:"country"`
	Departments []DepartmentSeed `json:"departments"`
}

// CountrySeed is the root entry of a seed file.
type CountrySeed struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DepartmentSeed is a department entry with its municipalities.
type DepartmentSeed struct {
	Code           string             `json:"code"`
	Name           string             `json:"name"`
	Municipalities []MunicipalitySeed `json:"municipalities"`
}

// MunicipalitySeed is a municipality entry of a seed file.
type MunicipalitySeed struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CountMunicipalities returns the number of municipalities across all departments.
func (s *SeedData) CountMunicipalities() int {
	n := 0
	for _, d := range s.Departments {
		n += len(d.Municipalities)
	}

	return n
}

// LoadSeed reads and parses a seed file.
func LoadSeed(filepath string) (*SeedData, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	return &seed, nil
}

// ImportFromJSON imports a catalog tree from a JSON file. Returns the number of
// municipalities loaded.
func ImportFromJSON(repo Repository, filepath string, progress func(municipalities int)) (int, error) {
	seed, err := LoadSeed(filepath)
	if err != nil {
		return 0, err
	}

	if err := repo.BulkInsert(seed, progress); err != nil {
		return 0, fmt.Errorf("inserting seed: %w", err)
	}

	return seed.CountMunicipalities(), nil
}

// ExportToJSON exports the whole catalog to a JSON file, sorted by name so the
// output diffs cleanly when checked into version control.
func ExportToJSON(repo Repository, filepath string) error {
	countries, err := repo.ListCountries()
	if err != nil {
		return fmt.Errorf("listing countries: %w", err)
	}

	if len(countries) == 0 {
		return fmt.Errorf("catalog is empty, nothing to export")
	}

	// The data model is single-country; the first country is the tree root.
	seed := &SeedData{
		Country: CountrySeed{Code: countries[0].Code, Name: countries[0].Name},
	}

	departments, err := repo.ListDepartments(seed.Country.Code)
	if err != nil {
		return fmt.Errorf("listing departments: %w", err)
	}

	for _, d := range departments {
		ds := DepartmentSeed{Code: d.Code, Name: d.Name}

		municipalities, err := repo.ListMunicipalities(d.Code)
		if err != nil {
			return fmt.Errorf("listing municipalities of %s: %w", d.Code, err)
		}

		for _, m := range municipalities {
			ds.Municipalities = append(ds.Municipalities, MunicipalitySeed{Code: m.Code, Name: m.Name})
		}

		seed.Departments = append(seed.Departments, ds)
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

// SeedIfEmpty seeds the catalog from a JSON file if no countries exist.
func SeedIfEmpty(repo Repository, filepath string) (bool, int, error) {
	count, err := repo.CountCountries()
	if err != nil {
		return false, 0, fmt.Errorf("counting countries: %w", err)
	}

	if count > 0 {
		return false, count, nil
	}
	// Catalog is empty, try to seed
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		// No seed file exists, that's okay
		return false, 0, nil
	}

	imported, err := ImportFromJSON(repo, filepath, nil)
	if err != nil {
		return false, 0, err
	}

	return true, imported, nil
}
