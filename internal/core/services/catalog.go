package services

import (
	"NaijaAuto/internal/core/domain"
	"context"
)

// ListFeaturedPackages returns the active featured placement catalog.
func (s *MarketplaceService) ListFeaturedPackages(ctx context.Context) ([]*domain.FeaturedPackage, error) {
	pkgs, err := s.repo.ListFeaturedPackages(ctx)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return pkgs, nil
}

// ListLocations returns the supported states and cities.
func (s *MarketplaceService) ListLocations(ctx context.Context) ([]domain.Location, error) {
	locs, err := s.repo.ListLocations(ctx)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return locs, nil
}
