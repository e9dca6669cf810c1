// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

// Package user holds the profile aggregate: a person plus their postal
// addresses. Addresses are owned by their profile and are always persisted as
// a full collection, never patched row by row.
package user

import (
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/camdev/padron/spatial"
)

// UserProfile is the aggregate root.
type UserProfile struct {
	ID        int64
	FirstName string
	LastName  string
	BirthDate *time.Time
	Addresses []*Address
}

// Address is a postal address owned by a profile. Point and the H3 cells are
// set by enrichment; both stay empty when the address could not be geocoded.
type Address struct {
	ID               int64
	UserID           int64
	Line1            string
	Line2            string
	CountryCode      string
	DepartmentCode   string
	MunicipalityCode string
	Point            *spatial.Point
	H3Res5           int64
	H3Res6           int64
	H3Res7           int64
	H3Res8           int64
}

// ComputeH3 derives the H3 cells from Point, zeroing them when the address has
// no coordinates.
func (a *Address) ComputeH3() error {
	if a.Point == nil {
		a.H3Res5, a.H3Res6, a.H3Res7, a.H3Res8 = 0, 0, 0, 0

		return nil
	}

	latLng := h3.NewLatLng(a.Point.Lat, a.Point.Lng)

	for res := 5; res <= 8; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return err
		}

		switch res {
		case 5:
			a.H3Res5 = int64(cell)
		case 6:
			a.H3Res6 = int64(cell)
		case 7:
			a.H3Res7 = int64(cell)
		case 8:
			a.H3Res8 = int64(cell)
		}
	}

	return nil
}
