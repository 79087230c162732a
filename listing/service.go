package listing

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidListing signals a create with a required field left empty.
var ErrInvalidListing = errors.New("listing: invalid listing")

// Service exposes business-level listing operations.
type Service struct {
	repo Repository
}

// NewService builds a Service using the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new listing.
func (s *Service) Create(ctx context.Context, params CreateParams) (Listing, error) {
	if err := validate(params); err != nil {
		return Listing{}, err
	}
	return s.repo.Create(ctx, params)
}

// List returns all persisted listings, unfiltered and unpaged. Search and
// filtering happen client-side over the full set.
func (s *Service) List(ctx context.Context) ([]Listing, error) {
	return s.repo.List(ctx)
}

// Delete removes a listing by ID. Returns ErrNotFound when the ID is unknown.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidListing)
	}
	return s.repo.Delete(ctx, id)
}

func validate(params CreateParams) error {
	required := []struct {
		name  string
		value string
	}{
		{"title", params.Title},
		{"type", params.WasteType},
		{"quantity", params.Quantity},
		{"price", params.Price},
		{"location", params.Location},
		{"farmer", params.Farmer},
		{"image", params.Image},
		{"description", params.Description},
	}

	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidListing, f.name)
		}
	}

	return nil
}
