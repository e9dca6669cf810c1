// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
)

func setupTestDB(t *testing.T) (*sql.DB, Repository) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	repo := NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db, repo
}

func testSeed() *SeedData {
	return &SeedData{
		Country: CountrySeed{Code: "CO", Name: "Colombia"},
		Departments: []DepartmentSeed{
			{
				Code: "CUN",
				Name: "Cundinamarca",
				Municipalities: []MunicipalitySeed{
					{Code: "SOA", Name: "Soacha"},
					{Code: "BOG", Name: "Bogotá"},
				},
			},
			{
				Code: "ANT",
				Name: "Antioquia",
				Municipalities: []MunicipalitySeed{
					{Code: "MED", Name: "Medellín"},
				},
			},
		},
	}
}

func TestCreateSchema(t *testing.T) {
	db, _ := setupTestDB(t)
	defer db.Close()

	for _, table := range []string{"countries", "departments", "municipalities"} {
		var tableName string

		err := db.QueryRow(
			"SELECT table_name FROM information_schema.tables WHERE table_name = ?", table,
		).Scan(&tableName)
		if err != nil {
			t.Fatalf("Table %s not created: %v", table, err)
		}
	}
}

func TestBulkInsertAndGetMunicipality(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	if err := repo.BulkInsert(testSeed(), nil); err != nil {
		t.Fatalf("BulkInsert() error = %v", err)
	}

	m, err := repo.GetMunicipality("BOG")
	if err != nil {
		t.Fatalf("GetMunicipality() error = %v", err)
	}

	if m == nil {
		t.Fatal("GetMunicipality() returned nil for seeded code")
	}

	if m.Name != "Bogotá" {
		t.Errorf("Name = %s, want Bogotá", m.Name)
	}

	if m.DepartmentCode != "CUN" {
		t.Errorf("DepartmentCode = %s, want CUN", m.DepartmentCode)
	}
}

func TestGetMunicipalityAbsent(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	m, err := repo.GetMunicipality("NOPE")
	if err != nil {
		t.Fatalf("GetMunicipality() error = %v", err)
	}

	if m != nil {
		t.Errorf("GetMunicipality() = %+v, want nil", m)
	}
}

func TestListingsAreOrderedByName(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	if err := repo.BulkInsert(testSeed(), nil); err != nil {
		t.Fatalf("BulkInsert() error = %v", err)
	}

	departments, err := repo.ListDepartments("CO")
	if err != nil {
		t.Fatalf("ListDepartments() error = %v", err)
	}

	if len(departments) != 2 {
		t.Fatalf("ListDepartments() returned %d departments, want 2", len(departments))
	}

	if departments[0].Code != "ANT" || departments[1].Code != "CUN" {
		t.Errorf("departments not ordered by name: %s, %s", departments[0].Code, departments[1].Code)
	}

	municipalities, err := repo.ListMunicipalities("CUN")
	if err != nil {
		t.Fatalf("ListMunicipalities() error = %v", err)
	}

	if len(municipalities) != 2 {
		t.Fatalf("ListMunicipalities() returned %d municipalities, want 2", len(municipalities))
	}

	if municipalities[0].Code != "BOG" || municipalities[1].Code != "SOA" {
		t.Errorf("municipalities not ordered by name: %s, %s", municipalities[0].Code, municipalities[1].Code)
	}
}

func TestBulkInsertReportsProgress(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	total := 0
	calls := 0

	if err := repo.BulkInsert(testSeed(), func(municipalities int) {
		total += municipalities
		calls++
	}); err != nil {
		t.Fatalf("BulkInsert() error = %v", err)
	}

	if calls != 2 {
		t.Errorf("progress called %d times, want 2", calls)
	}

	if total != 3 {
		t.Errorf("progress reported %d municipalities, want 3", total)
	}
}

func TestCountCountries(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	count, err := repo.CountCountries()
	if err != nil {
		t.Fatalf("CountCountries() error = %v", err)
	}

	if count != 0 {
		t.Errorf("CountCountries() = %d, want 0", count)
	}

	if err := repo.BulkInsert(testSeed(), nil); err != nil {
		t.Fatalf("BulkInsert() error = %v", err)
	}

	count, err = repo.CountCountries()
	if err != nil {
		t.Fatalf("CountCountries() error = %v", err)
	}

	if count != 1 {
		t.Errorf("CountCountries() = %d, want 1", count)
	}
}
