// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package user

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/camdev/padron/spatial"
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

func TestCreateAndGetUser(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	birthDate := time.Date(1990, 5, 14, 0, 0, 0, 0, time.UTC)

	u := &UserProfile{
		FirstName: "Camila",
		LastName:  "Restrepo",
		BirthDate: &birthDate,
		Addresses: []*Address{
			{
				Line1:            "Carrera 7 # 45-10",
				Line2:            "Apto 302",
				CountryCode:      "CO",
				DepartmentCode:   "CUN",
				MunicipalityCode: "BOG",
				Point:            &spatial.Point{Lat: 4.7110, Lng: -74.0721},
			},
			{
				Line1:            "Calle 10 # 5-21",
				CountryCode:      "CO",
				DepartmentCode:   "ANT",
				MunicipalityCode: "MED",
			},
		},
	}

	if err := repo.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if u.ID == 0 {
		t.Fatal("CreateUser() did not assign an id")
	}

	retrieved, err := repo.GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	if retrieved == nil {
		t.Fatal("GetUser() returned nil for existing user")
	}

	if retrieved.FirstName != "Camila" {
		t.Errorf("FirstName = %s, want Camila", retrieved.FirstName)
	}

	if retrieved.BirthDate == nil || !retrieved.BirthDate.Equal(birthDate) {
		t.Errorf("BirthDate = %v, want %v", retrieved.BirthDate, birthDate)
	}

	if len(retrieved.Addresses) != 2 {
		t.Fatalf("got %d addresses, want 2", len(retrieved.Addresses))
	}

	first := retrieved.Addresses[0]
	if first.ID == 0 {
		t.Error("address id was not assigned")
	}

	if first.Line2 != "Apto 302" {
		t.Errorf("Line2 = %s, want Apto 302", first.Line2)
	}

	if first.Point == nil {
		t.Fatal("first address lost its point")
	}

	if first.Point.Lat != 4.7110 || first.Point.Lng != -74.0721 {
		t.Errorf("Point = %v, want (4.7110, -74.0721)", first.Point)
	}

	if first.H3Res8 == 0 {
		t.Error("H3Res8 = 0 for a geocoded address, want a cell")
	}

	second := retrieved.Addresses[1]
	if second.Point != nil {
		t.Errorf("Point = %v for ungeocoded address, want nil", second.Point)
	}

	if second.Line2 != "" {
		t.Errorf("Line2 = %q, want empty", second.Line2)
	}

	if second.H3Res5 != 0 {
		t.Errorf("H3Res5 = %d for ungeocoded address, want 0", second.H3Res5)
	}
}

func TestGetUserAbsent(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	u, err := repo.GetUser(4242)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	if u != nil {
		t.Errorf("GetUser() = %+v, want nil", u)
	}
}

func TestUpdateUserReplacesAddressCollection(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	u := &UserProfile{
		FirstName: "Julián",
		LastName:  "Mora",
		Addresses: []*Address{
			{Line1: "Calle 1 # 2-3", CountryCode: "CO", DepartmentCode: "CUN", MunicipalityCode: "BOG"},
			{Line1: "Calle 4 # 5-6", CountryCode: "CO", DepartmentCode: "CUN", MunicipalityCode: "BOG"},
		},
	}

	if err := repo.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	oldIDs := map[int64]bool{}
	for _, a := range u.Addresses {
		oldIDs[a.ID] = true
	}

	u.FirstName = "Julián Andrés"
	u.Addresses = []*Address{
		{Line1: "Avenida 68 # 22-11", CountryCode: "CO", DepartmentCode: "VAC", MunicipalityCode: "CAL"},
	}

	updated, err := repo.UpdateUser(u)
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	if !updated {
		t.Fatal("UpdateUser() = false for existing user")
	}

	retrieved, err := repo.GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	if retrieved.FirstName != "Julián Andrés" {
		t.Errorf("FirstName = %s, want Julián Andrés", retrieved.FirstName)
	}

	if len(retrieved.Addresses) != 1 {
		t.Fatalf("got %d addresses after replace, want 1", len(retrieved.Addresses))
	}

	if oldIDs[retrieved.Addresses[0].ID] {
		t.Error("replaced address reused an old id")
	}

	count, err := repo.CountAddresses(u.ID)
	if err != nil {
		t.Fatalf("CountAddresses() error = %v", err)
	}

	if count != 1 {
		t.Errorf("CountAddresses() = %d, want 1", count)
	}
}

func TestUpdateUserToEmptyCollection(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	u := &UserProfile{
		FirstName: "Sara",
		LastName:  "Giraldo",
		Addresses: []*Address{
			{Line1: "Calle 1 # 2-3", CountryCode: "CO", DepartmentCode: "CUN", MunicipalityCode: "BOG"},
		},
	}

	if err := repo.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	u.Addresses = nil

	updated, err := repo.UpdateUser(u)
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	if !updated {
		t.Fatal("UpdateUser() = false for existing user")
	}

	count, err := repo.CountAddresses(u.ID)
	if err != nil {
		t.Fatalf("CountAddresses() error = %v", err)
	}

	if count != 0 {
		t.Errorf("CountAddresses() = %d after clearing, want 0", count)
	}
}

func TestUpdateUserRollsBackOnFailedInsert(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	u := &UserProfile{
		FirstName: "Laura",
		LastName:  "Vélez",
		Addresses: []*Address{
			{Line1: "Calle 1 # 2-3", CountryCode: "CO", DepartmentCode: "CUN", MunicipalityCode: "BOG"},
			{Line1: "Calle 4 # 5-6", CountryCode: "CO", DepartmentCode: "CUN", MunicipalityCode: "BOG"},
		},
	}

	if err := repo.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	oldIDs := make([]int64, 0, len(u.Addresses))
	for _, a := range u.Addresses {
		oldIDs = append(oldIDs, a.ID)
	}

	// The second insert fails: DuckDB rejects VARCHAR values that are not
	// valid UTF-8. The first insert and the scalar update have already run
	// inside the same transaction by then.
	_, err := repo.UpdateUser(&UserProfile{
		ID:        u.ID,
		FirstName: "Laura María",
		LastName:  "Vélez",
		Addresses: []*Address{
			{Line1: "Avenida 68 # 22-11", CountryCode: "CO", DepartmentCode: "CUN", MunicipalityCode: "BOG"},
			{Line1: string([]byte{0xff, 0xfe, 0xfd}), CountryCode: "CO", DepartmentCode: "CUN", MunicipalityCode: "BOG"},
		},
	})
	if err == nil {
		t.Fatal("UpdateUser() error = nil, want insert failure")
	}

	retrieved, err := repo.GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	if retrieved == nil {
		t.Fatal("user disappeared after rolled-back update")
	}

	if retrieved.FirstName != "Laura" {
		t.Errorf("FirstName = %s after rollback, want Laura", retrieved.FirstName)
	}

	if len(retrieved.Addresses) != 2 {
		t.Fatalf("got %d addresses after rollback, want the original 2", len(retrieved.Addresses))
	}

	for i, a := range retrieved.Addresses {
		if a.ID != oldIDs[i] {
			t.Errorf("address %d id = %d after rollback, want %d", i, a.ID, oldIDs[i])
		}
	}

	if retrieved.Addresses[0].Line1 != "Calle 1 # 2-3" {
		t.Errorf("Line1 = %q after rollback, want the original line", retrieved.Addresses[0].Line1)
	}
}

func TestUpdateUserAbsent(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	updated, err := repo.UpdateUser(&UserProfile{ID: 4242, FirstName: "X", LastName: "Y"})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	if updated {
		t.Error("UpdateUser() = true for absent user, want false")
	}
}

func TestDeleteUserCascades(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	u := &UserProfile{
		FirstName: "Andrés",
		LastName:  "Pardo",
		Addresses: []*Address{
			{Line1: "Calle 1 # 2-3", CountryCode: "CO", DepartmentCode: "CUN", MunicipalityCode: "BOG"},
			{Line1: "Calle 4 # 5-6", CountryCode: "CO", DepartmentCode: "CUN", MunicipalityCode: "BOG"},
		},
	}

	if err := repo.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	deleted, err := repo.DeleteUser(u.ID)
	if err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	if !deleted {
		t.Fatal("DeleteUser() = false for existing user")
	}

	retrieved, err := repo.GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	if retrieved != nil {
		t.Error("user still present after delete")
	}

	var orphans int
	if err := db.QueryRow(`SELECT COUNT(*) FROM addresses WHERE user_id = ?`, u.ID).Scan(&orphans); err != nil {
		t.Fatalf("counting orphans: %v", err)
	}

	if orphans != 0 {
		t.Errorf("found %d orphan addresses after delete, want 0", orphans)
	}
}

func TestDeleteUserAbsent(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	deleted, err := repo.DeleteUser(4242)
	if err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	if deleted {
		t.Error("DeleteUser() = true for absent user, want false")
	}
}

func TestListUsers(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	for _, name := range []string{"Ana", "Beto"} {
		u := &UserProfile{FirstName: name, LastName: "Prueba"}
		if err := repo.CreateUser(u); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
	}

	users, err := repo.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}

	if len(users) != 2 {
		t.Fatalf("ListUsers() returned %d users, want 2", len(users))
	}

	if users[0].FirstName != "Ana" || users[1].FirstName != "Beto" {
		t.Errorf("users not ordered by id: %s, %s", users[0].FirstName, users[1].FirstName)
	}
}
