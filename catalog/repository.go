// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"database/sql"
	"errors"
	"fmt"
)

// Repository handles persistence of the location catalog.
type Repository interface {
	// CreateSchema creates the catalog tables
	CreateSchema() error

	// GetMunicipality returns a municipality by code, or nil when absent
	GetMunicipality(code string) (*Municipality, error)

	// ListCountries returns all countries ordered by name
	ListCountries() ([]*Country, error)

	// ListDepartments returns the departments of a country ordered by name
	ListDepartments(countryCode string) ([]*Department, error)

	// ListMunicipalities returns the municipalities of a department ordered by name
	ListMunicipalities(departmentCode string) ([]*Municipality, error)

	// CountCountries returns the number of seeded countries
	CountCountries() (int, error)

	// BulkInsert loads a whole seed tree in one transaction. The progress
	// callback, when non-nil, is invoked per department with the number of
	// municipalities inserted.
	BulkInsert(seed *SeedData, progress func(municipalities int)) error
}

type sqlCatalogRepository struct {
	db *sql.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *sql.DB) Repository {
	return &sqlCatalogRepository{db: db}
}

func (r *sqlCatalogRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS countries (
			code VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL
		);

		CREATE TABLE IF NOT EXISTS departments (
			code VARCHAR PRIMARY KEY,
			country_code VARCHAR NOT NULL,
			name VARCHAR NOT NULL
		);

		CREATE TABLE IF NOT EXISTS municipalities (
			code VARCHAR PRIMARY KEY,
			department_code VARCHAR NOT NULL,
			name VARCHAR NOT NULL
		);
	`)

	return err
}

func (r *sqlCatalogRepository) GetMunicipality(code string) (*Municipality, error) {
	m := &Municipality{}

	err := r.db.QueryRow(`
		SELECT code, department_code, name
		FROM municipalities
		WHERE code = ?
	`, code).Scan(&m.Code, &m.DepartmentCode, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return m, nil
}

func (r *sqlCatalogRepository) ListCountries() ([]*Country, error) {
	rows, err := r.db.Query(`SELECT code, name FROM countries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countries []*Country

	for rows.Next() {
		c := &Country{}
		if err := rows.Scan(&c.Code, &c.Name); err != nil {
			return nil, err
		}

		countries = append(countries, c)
	}

	return countries, rows.Err()
}

func (r *sqlCatalogRepository) ListDepartments(countryCode string) ([]*Department, error) {
	rows, err := r.db.Query(`
		SELECT code, country_code, name
		FROM departments
		WHERE country_code = ?
		ORDER BY name
	`, countryCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []*Department

	for rows.Next() {
		d := &Department{}
		if err := rows.Scan(&d.Code, &d.CountryCode, &d.Name); err != nil {
			return nil, err
		}

		departments = append(departments, d)
	}

	return departments, rows.Err()
}

func (r *sqlCatalogRepository) ListMunicipalities(departmentCode string) ([]*Municipality, error) {
	rows, err := r.db.Query(`
		SELECT code, department_code, name
		FROM municipalities
		WHERE department_code = ?
		ORDER BY name
	`, departmentCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var municipalities []*Municipality

	for rows.Next() {
		m := &Municipality{}
		if err := rows.Scan(&m.Code, &m.DepartmentCode, &m.Name); err != nil {
			return nil, err
		}

		municipalities = append(municipalities, m)
	}

	return municipalities, rows.Err()
}

func (r *sqlCatalogRepository) CountCountries() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM countries`).Scan(&count)

	return count, err
}

func (r *sqlCatalogRepository) BulkInsert(seed *SeedData, progress func(municipalities int)) error {
	if seed == nil {
		return errors.New("seed can't be nil")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		`INSERT INTO countries(code, name) VALUES (?, ?)`,
		seed.Country.Code, seed.Country.Name,
	); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return fmt.Errorf("inserting country %s: %w", seed.Country.Code, err)
	}

	deptStmt, err := tx.Prepare(`INSERT INTO departments(code, country_code, name) VALUES (?, ?, ?)`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer deptStmt.Close()

	muniStmt, err := tx.Prepare(`INSERT INTO municipalities(code, department_code, name) VALUES (?, ?, ?)`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer muniStmt.Close()

	for _, d := range seed.Departments {
		if _, err := deptStmt.Exec(d.Code, seed.Country.Code, d.Name); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return fmt.Errorf("inserting department %s: %w", d.Code, err)
		}

		for _, m := range d.Municipalities {
			if _, err := muniStmt.Exec(m.Code, d.Code, m.Name); err != nil {
				if rErr := tx.Rollback(); rErr != nil {
					err = rErr
				}

				return fmt.Errorf("inserting municipality %s: %w", m.Code, err)
			}
		}

		if progress != nil {
			progress(len(d.Municipalities))
		}
	}

	return tx.Commit()
}
