// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package user

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound means the requested profile does not exist.
var ErrNotFound = errors.New("user not found")

// Enricher fills coordinates into addresses that lack them. Implementations
// may call remote services; ctx cancellation must abort the batch.
type Enricher interface {
	Enrich(ctx context.Context, addresses []*Address) error
}

// Service applies the profile use cases: enrichment happens before
// persistence so a stored address either has coordinates or was genuinely not
// resolvable at write time.
type Service struct {
	repo     Repository
	enricher Enricher
}

// NewService creates a new profile service.
func NewService(repo Repository, enricher Enricher) *Service {
	return &Service{repo: repo, enricher: enricher}
}

// Create enriches and persists a new profile. Incoming ids are ignored; the
// repository assigns them.
func (s *Service) Create(ctx context.Context, u *UserProfile) (*UserProfile, error) {
	u.ID = 0
	for _, a := range u.Addresses {
		a.ID = 0
	}

	if err := s.enricher.Enrich(ctx, u.Addresses); err != nil {
		return nil, fmt.Errorf("enriching addresses: %w", err)
	}

	if err := s.repo.CreateUser(u); err != nil {
		return nil, err
	}

	return u, nil
}

// Update replaces a profile and its whole address collection. Returns
// ErrNotFound when no profile has the given id.
func (s *Service) Update(ctx context.Context, id int64, u *UserProfile) (*UserProfile, error) {
	existing, err := s.repo.GetUser(id)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return nil, ErrNotFound
	}

	u.ID = id
	for _, a := range u.Addresses {
		a.ID = 0
	}

	if err := s.enricher.Enrich(ctx, u.Addresses); err != nil {
		return nil, fmt.Errorf("enriching addresses: %w", err)
	}

	updated, err := s.repo.UpdateUser(u)
	if err != nil {
		return nil, err
	}

	if !updated {
		return nil, ErrNotFound
	}

	return u, nil
}

// Get returns a profile or ErrNotFound.
func (s *Service) Get(id int64) (*UserProfile, error) {
	u, err := s.repo.GetUser(id)
	if err != nil {
		return nil, err
	}

	if u == nil {
		return nil, ErrNotFound
	}

	return u, nil
}

// List returns all profiles.
func (s *Service) List() ([]*UserProfile, error) {
	return s.repo.ListUsers()
}

// Delete removes a profile and its addresses, or returns ErrNotFound.
func (s *Service) Delete(id int64) error {
	deleted, err := s.repo.DeleteUser(id)
	if err != nil {
		return err
	}

	if !deleted {
		return ErrNotFound
	}

	return nil
}
