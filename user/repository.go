// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package user

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/camdev/padron/spatial"
)

// Repository handles persistence of profiles and their addresses.
type Repository interface {
	// CreateSchema creates the profile tables and sequences
	CreateSchema() error

	// GetUser returns a profile with its addresses, or nil when absent
	GetUser(id int64) (*UserProfile, error)

	// ListUsers returns all profiles with their addresses, ordered by id
	ListUsers() ([]*UserProfile, error)

	// CreateUser persists a new profile and its addresses, assigning ids
	CreateUser(u *UserProfile) error

	// UpdateUser replaces the profile fields and the whole address collection
	// in one transaction. Returns false when the profile does not exist.
	UpdateUser(u *UserProfile) (bool, error)

	// DeleteUser removes a profile and its addresses. Returns false when the
	// profile does not exist.
	DeleteUser(id int64) (bool, error)

	// CountAddresses returns how many addresses a profile owns
	CountAddresses(userID int64) (int, error)
}

type sqlUserRepository struct {
	db *sql.DB
}

// NewRepository creates a new profile repository.
func NewRepository(db *sql.DB) Repository {
	return &sqlUserRepository{db: db}
}

func (r *sqlUserRepository) CreateSchema() error {
	if _, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`); err != nil {
		return fmt.Errorf("loading spatial extension: %w", err)
	}

	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS users_seq;
		CREATE SEQUENCE IF NOT EXISTS addresses_seq;

		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('users_seq'),
			first_name VARCHAR NOT NULL,
			last_name VARCHAR NOT NULL,
			birth_date DATE
		);

		CREATE TABLE IF NOT EXISTS addresses (
			id BIGINT PRIMARY KEY DEFAULT nextval('addresses_seq'),
			user_id BIGINT NOT NULL,
			line1 VARCHAR NOT NULL,
			line2 VARCHAR,
			country_code VARCHAR NOT NULL,
			department_code VARCHAR NOT NULL,
			municipality_code VARCHAR NOT NULL,
			point POINT_2D,
			h3_res5 UBIGINT NOT NULL DEFAULT 0,
			h3_res6 UBIGINT NOT NULL DEFAULT 0,
			h3_res7 UBIGINT NOT NULL DEFAULT 0,
			h3_res8 UBIGINT NOT NULL DEFAULT 0
		);
	`)

	return err
}

func (r *sqlUserRepository) GetUser(id int64) (*UserProfile, error) {
	u := &UserProfile{}

	var birthDate sql.NullTime

	err := r.db.QueryRow(`
		SELECT id, first_name, last_name, birth_date
		FROM users
		WHERE id = ?
	`, id).Scan(&u.ID, &u.FirstName, &u.LastName, &birthDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if birthDate.Valid {
		u.BirthDate = &birthDate.Time
	}

	addresses, err := r.listAddresses(id)
	if err != nil {
		return nil, err
	}

	u.Addresses = addresses

	return u, nil
}

func (r *sqlUserRepository) ListUsers() ([]*UserProfile, error) {
	rows, err := r.db.Query(`
		SELECT id, first_name, last_name, birth_date
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*UserProfile

	for rows.Next() {
		u := &UserProfile{}

		var birthDate sql.NullTime

		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &birthDate); err != nil {
			return nil, err
		}

		if birthDate.Valid {
			u.BirthDate = &birthDate.Time
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, u := range users {
		addresses, err := r.listAddresses(u.ID)
		if err != nil {
			return nil, err
		}

		u.Addresses = addresses
	}

	return users, nil
}

const addressColumns = `id, user_id, line1, line2,
	country_code, department_code, municipality_code,
	point, h3_res5, h3_res6, h3_res7, h3_res8`

func (r *sqlUserRepository) listAddresses(userID int64) ([]*Address, error) {
	rows, err := r.db.Query(`
		SELECT `+addressColumns+`
		FROM addresses
		WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []*Address

	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}

		addresses = append(addresses, a)
	}

	return addresses, rows.Err()
}

func scanAddress(rows *sql.Rows) (*Address, error) {
	a := &Address{}

	var (
		line2 sql.NullString
		point spatial.NullPoint
	)

	if err := rows.Scan(
		&a.ID, &a.UserID, &a.Line1, &line2,
		&a.CountryCode, &a.DepartmentCode, &a.MunicipalityCode,
		&point, &a.H3Res5, &a.H3Res6, &a.H3Res7, &a.H3Res8,
	); err != nil {
		return nil, err
	}

	a.Line2 = line2.String

	if point.Valid {
		p := point.Point
		a.Point = &p
	}

	return a, nil
}

func (r *sqlUserRepository) CreateUser(u *UserProfile) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	if err := createUserTx(tx, u); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}

	return tx.Commit()
}

func createUserTx(tx *sql.Tx, u *UserProfile) error {
	var birthDate any
	if u.BirthDate != nil {
		birthDate = *u.BirthDate
	}

	if err := tx.QueryRow(`
		INSERT INTO users(first_name, last_name, birth_date)
		VALUES (?, ?, ?)
		RETURNING id
	`, u.FirstName, u.LastName, birthDate).Scan(&u.ID); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return insertAddresses(tx, u.ID, u.Addresses)
}

func insertAddresses(tx *sql.Tx, userID int64, addresses []*Address) error {
	for _, a := range addresses {
		a.UserID = userID

		if err := a.ComputeH3(); err != nil {
			return fmt.Errorf("computing h3 cells: %w", err)
		}

		var err error

		if a.Point != nil {
			err = tx.QueryRow(`
				INSERT INTO addresses(user_id, line1, line2,
					country_code, department_code, municipality_code,
					point, h3_res5, h3_res6, h3_res7, h3_res8)
				VALUES (?, ?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?)
				RETURNING id
			`, a.UserID, a.Line1, nullString(a.Line2),
				a.CountryCode, a.DepartmentCode, a.MunicipalityCode,
				a.Point.Lng, a.Point.Lat,
				a.H3Res5, a.H3Res6, a.H3Res7, a.H3Res8,
			).Scan(&a.ID)
		} else {
			err = tx.QueryRow(`
				INSERT INTO addresses(user_id, line1, line2,
					country_code, department_code, municipality_code,
					point, h3_res5, h3_res6, h3_res7, h3_res8)
				VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, ?)
				RETURNING id
			`, a.UserID, a.Line1, nullString(a.Line2),
				a.CountryCode, a.DepartmentCode, a.MunicipalityCode,
				a.H3Res5, a.H3Res6, a.H3Res7, a.H3Res8,
			).Scan(&a.ID)
		}

		if err != nil {
			return fmt.Errorf("inserting address for user %d: %w", userID, err)
		}
	}

	return nil
}

func (r *sqlUserRepository) UpdateUser(u *UserProfile) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}

	updated, err := updateUserTx(tx, u)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return false, err
	}

	if !updated {
		if err := tx.Rollback(); err != nil {
			return false, err
		}

		return false, nil
	}

	return true, tx.Commit()
}

func updateUserTx(tx *sql.Tx, u *UserProfile) (bool, error) {
	var birthDate any
	if u.BirthDate != nil {
		birthDate = *u.BirthDate
	}

	res, err := tx.Exec(`
		UPDATE users
		SET first_name = ?, last_name = ?, birth_date = ?
		WHERE id = ?
	`, u.FirstName, u.LastName, birthDate, u.ID)
	if err != nil {
		return false, fmt.Errorf("updating user %d: %w", u.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if n == 0 {
		return false, nil
	}

	// Full replace: the incoming collection is the truth, old rows go away.
	if _, err := tx.Exec(`DELETE FROM addresses WHERE user_id = ?`, u.ID); err != nil {
		return false, fmt.Errorf("clearing addresses of user %d: %w", u.ID, err)
	}

	if err := insertAddresses(tx, u.ID, u.Addresses); err != nil {
		return false, err
	}

	return true, nil
}

func (r *sqlUserRepository) DeleteUser(id int64) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}

	deleted, err := deleteUserTx(tx, id)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return false, err
	}

	if !deleted {
		if err := tx.Rollback(); err != nil {
			return false, err
		}

		return false, nil
	}

	return true, tx.Commit()
}

func deleteUserTx(tx *sql.Tx, id int64) (bool, error) {
	// Children first, then the parent row.
	if _, err := tx.Exec(`DELETE FROM addresses WHERE user_id = ?`, id); err != nil {
		return false, fmt.Errorf("deleting addresses of user %d: %w", id, err)
	}

	res, err := tx.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting user %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *sqlUserRepository) CountAddresses(userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM addresses WHERE user_id = ?`, userID).Scan(&count)

	return count, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
