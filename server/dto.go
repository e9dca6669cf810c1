// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"time"

	"github.com/camdev/padron/spatial"
	"github.com/camdev/padron/user"
)

// UserDTO is the wire shape of a profile.
type UserDTO struct {
	ID        int64         `json:"id"`
	FirstName string        `json:"firstName" binding:"required"`
	LastName  string        `json:"lastName" binding:"required"`
	BirthDate *string       `json:"birthDate,omitempty"` // YYYY-MM-DD
	Addresses []*AddressDTO `json:"addresses"`
}

// AddressDTO is the wire shape of an address. Latitude and longitude are
// outputs of enrichment; clients may also send them to skip geocoding.
type AddressDTO struct {
	ID               int64    `json:"id"`
	Line1            string   `json:"line1" binding:"required"`
	Line2            string   `json:"line2,omitempty"`
	CountryCode      string   `json:"countryCode" binding:"required"`
	DepartmentCode   string   `json:"departmentCode" binding:"required"`
	MunicipalityCode string   `json:"municipalityCode" binding:"required"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
}

const birthDateLayout = "2006-01-02"

func (dto *UserDTO) toModel() (*user.UserProfile, error) {
	u := &user.UserProfile{
		ID:        dto.ID,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
	}

	if dto.BirthDate != nil && *dto.BirthDate != "" {
		t, err := time.Parse(birthDateLayout, *dto.BirthDate)
		if err != nil {
			return nil, err
		}

		u.BirthDate = &t
	}

	for _, a := range dto.Addresses {
		addr := &user.Address{
			ID:               a.ID,
			Line1:            a.Line1,
			Line2:            a.Line2,
			CountryCode:      a.CountryCode,
			DepartmentCode:   a.DepartmentCode,
			MunicipalityCode: a.MunicipalityCode,
		}

		if a.Latitude != nil && a.Longitude != nil {
			addr.Point = &spatial.Point{Lat: *a.Latitude, Lng: *a.Longitude}
		}

		u.Addresses = append(u.Addresses, addr)
	}

	return u, nil
}

func toUserDTO(u *user.UserProfile) *UserDTO {
	dto := &UserDTO{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Addresses: []*AddressDTO{},
	}

	if u.BirthDate != nil {
		s := u.BirthDate.Format(birthDateLayout)
		dto.BirthDate = &s
	}

	for _, a := range u.Addresses {
		addr := &AddressDTO{
			ID:               a.ID,
			Line1:            a.Line1,
			Line2:            a.Line2,
			CountryCode:      a.CountryCode,
			DepartmentCode:   a.DepartmentCode,
			MunicipalityCode: a.MunicipalityCode,
		}

		if a.Point != nil {
			lat, lng := a.Point.Lat, a.Point.Lng
			addr.Latitude = &lat
			addr.Longitude = &lng
		}

		dto.Addresses = append(dto.Addresses, addr)
	}

	return dto
}
