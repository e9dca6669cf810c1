// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the REST surface: profiles, the location catalog and
// an ad-hoc geocoding probe.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/camdev/padron/catalog"
	"github.com/camdev/padron/geocode"
	"github.com/camdev/padron/user"
)

type Server struct {
	users    *user.Service
	catalog  catalog.Repository
	geocoder geocode.Geocoder
}

// NewServer creates a new HTTP server over the given services.
func NewServer(users *user.Service, catalogRepo catalog.Repository, geocoder geocode.Geocoder) *Server {
	return &Server{
		users:    users,
		catalog:  catalogRepo,
		geocoder: geocoder,
	}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/catalog/countries", s.listCountries)
	r.GET("/catalog/departments", s.listDepartments)
	r.GET("/catalog/municipalities", s.listMunicipalities)

	r.GET("/users", s.listUsers)
	r.POST("/users", s.createUser)
	r.GET("/users/:id", s.getUser)
	r.PUT("/users/:id", s.updateUser)
	r.DELETE("/users/:id", s.deleteUser)

	r.GET("/geocode", s.geocodeQuery)

	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) listCountries(ctx *gin.Context) {
	countries, err := s.catalog.ListCountries()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if countries == nil {
		countries = []*catalog.Country{}
	}

	ctx.JSON(http.StatusOK, countries)
}

func (s *Server) listDepartments(ctx *gin.Context) {
	countryCode := ctx.Query("countryCode")
	if countryCode == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "countryCode query parameter is required"})

		return
	}

	departments, err := s.catalog.ListDepartments(countryCode)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if departments == nil {
		departments = []*catalog.Department{}
	}

	ctx.JSON(http.StatusOK, departments)
}

func (s *Server) listMunicipalities(ctx *gin.Context) {
	departmentCode := ctx.Query("departmentCode")
	if departmentCode == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "departmentCode query parameter is required"})

		return
	}

	municipalities, err := s.catalog.ListMunicipalities(departmentCode)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if municipalities == nil {
		municipalities = []*catalog.Municipality{}
	}

	ctx.JSON(http.StatusOK, municipalities)
}

func (s *Server) listUsers(ctx *gin.Context) {
	users, err := s.users.List()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	dtos := []*UserDTO{}
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}

	ctx.JSON(http.StatusOK, dtos)
}

func (s *Server) getUser(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	u, err := s.users.Get(id)
	if errors.Is(err, user.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "user not found"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, toUserDTO(u))
}

func (s *Server) createUser(ctx *gin.Context) {
	var dto UserDTO
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	u, err := dto.toModel()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid birthDate: %v", err)})

		return
	}

	created, err := s.users.Create(ctx.Request.Context(), u)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Header("Location", fmt.Sprintf("/users/%d", created.ID))
	ctx.JSON(http.StatusCreated, toUserDTO(created))
}

func (s *Server) updateUser(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var dto UserDTO
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	u, err := dto.toModel()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid birthDate: %v", err)})

		return
	}

	updated, err := s.users.Update(ctx.Request.Context(), id, u)
	if errors.Is(err, user.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "user not found"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, toUserDTO(updated))
}

func (s *Server) deleteUser(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	err := s.users.Delete(id)
	if errors.Is(err, user.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "user not found"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Status(http.StatusNoContent)
}

func (s *Server) geocodeQuery(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})

		return
	}

	result, err := s.geocoder.Geocode(ctx.Request.Context(), query)
	if geocode.IsNotFoundError(err) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no result", "details": err.Error()})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"latitude":    result.Lat,
		"longitude":   result.Lon,
		"confidence":  result.Confidence,
		"provider":    result.Provider,
		"displayName": result.DisplayName,
	})
}

func parseID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})

		return 0, false
	}

	return id, true
}
