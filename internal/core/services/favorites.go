package services

import (
	"NaijaAuto/internal/core/domain"
	"context"
	"errors"
)

// FavoriteSaved acknowledges AddFavorite.
type FavoriteSaved struct {
	Saved bool `json:"saved"`
}

// FavoriteRemoved reports whether RemoveFavorite deleted anything.
type FavoriteRemoved struct {
	Removed bool `json:"removed"`
}

// AddFavorite saves an approved listing for the caller. Saving twice is a no-op.
func (s *MarketplaceService) AddFavorite(ctx context.Context, actor *domain.Actor, identifier string) (*FavoriteSaved, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.upsertActor(ctx, actor); err != nil {
		return nil, err
	}

	listing, err := s.GetPublicListing(ctx, identifier)
	if err != nil {
		return nil, err
	}

	fav := &domain.Favorite{UserID: actor.ID, ListingID: listing.ID, CreatedAt: s.now()}
	if err := s.repo.AddFavorite(ctx, fav); err != nil {
		return nil, s.storeErr(err)
	}
	return &FavoriteSaved{Saved: true}, nil
}

// RemoveFavorite drops a saved listing.
func (s *MarketplaceService) RemoveFavorite(ctx context.Context, actor *domain.Actor, identifier string) (*FavoriteRemoved, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.upsertActor(ctx, actor); err != nil {
		return nil, err
	}

	listing, err := s.resolveListing(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &FavoriteRemoved{}, nil
		}
		return nil, err
	}

	removed, err := s.repo.RemoveFavorite(ctx, actor.ID, listing.ID)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return &FavoriteRemoved{Removed: removed}, nil
}
