// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the Country → Department → Municipality reference tree.
// Rows are keyed by short natural codes, populated once by seeding and treated
// as read-only by the rest of the system.
package catalog

// Country is the root of the catalog tree.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Department belongs to a Country.
type Department struct {
	Code        string `json:"code"`
	CountryCode string `json:"countryCode"`
	Name        string `json:"name"`
}

// Municipality belongs to a Department.
type Municipality struct {
	Code           string `json:"code"`
	DepartmentCode string `json:"departmentCode"`
	Name           string `json:"name"`
}
