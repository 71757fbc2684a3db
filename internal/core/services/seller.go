package services

import (
	"NaijaAuto/internal/core/domain"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ContactClickWindow is how far back the dashboard counts contact reveals.
const ContactClickWindow = 30 * 24 * time.Hour

// GetSellerOnboarding returns the caller's onboarding records and completeness.
func (s *MarketplaceService) GetSellerOnboarding(ctx context.Context, actor *domain.Actor) (*domain.SellerOnboarding, error) {
	if err := requireRole(actor, domain.RoleSeller); err != nil {
		return nil, err
	}
	user, err := s.upsertActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.loadOnboarding(ctx, user)
}

func (s *MarketplaceService) loadOnboarding(ctx context.Context, user *domain.User) (*domain.SellerOnboarding, error) {
	profile, err := s.repo.GetSellerProfile(ctx, user.ID)
	if err != nil {
		return nil, s.storeErr(err)
	}
	dealer, err := s.repo.GetDealerProfile(ctx, user.ID)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return &domain.SellerOnboarding{
		User:          user,
		SellerProfile: profile,
		DealerProfile: dealer,
		Completed:     domain.IsOnboardingComplete(user, profile, dealer),
	}, nil
}

// UpsertSellerOnboarding writes the seller type and profile. Dealer details
// are kept only while the seller type is dealer.
func (s *MarketplaceService) UpsertSellerOnboarding(ctx context.Context, actor *domain.Actor, payload []byte) (*domain.SellerOnboarding, error) {
	if err := requireRole(actor, domain.RoleSeller); err != nil {
		return nil, err
	}

	var in onboardingInput
	if err := s.decode(payload, &in); err != nil {
		return nil, err
	}
	if err := in.dealerRule(); err != nil {
		return nil, err
	}

	sellerType := domain.SellerType(in.SellerType)
	user, err := s.repo.UpsertUser(ctx, domain.UserUpsert{
		ID:            actor.ID,
		Role:          actor.Role,
		SellerType:    &sellerType,
		Email:         actor.Email,
		PhoneVerified: actor.PhoneVerified,
	})
	if err != nil {
		return nil, s.storeErr(err)
	}

	state, city := in.State, in.City
	profile, err := s.repo.UpsertSellerProfile(ctx, &domain.SellerProfile{
		UserID:   user.ID,
		FullName: in.FullName,
		State:    &state,
		City:     &city,
		Bio:      in.Bio,
	})
	if err != nil {
		return nil, s.storeErr(err)
	}

	var dealer *domain.DealerProfile
	if sellerType == domain.SellerDealer {
		dealer, err = s.repo.UpsertDealerProfile(ctx, &domain.DealerProfile{
			UserID:       user.ID,
			BusinessName: *in.BusinessName,
			CacNumber:    in.CacNumber,
			Address:      in.Address,
		})
	} else {
		err = s.repo.DeleteDealerProfile(ctx, user.ID)
	}
	if err != nil {
		return nil, s.storeErr(err)
	}

	s.audit(ctx, &user.ID, "seller_profiles", user.ID.String(), "seller_onboarding_updated", map[string]any{
		"sellerType": in.SellerType,
	})

	return &domain.SellerOnboarding{
		User:          user,
		SellerProfile: profile,
		DealerProfile: dealer,
		Completed:     domain.IsOnboardingComplete(user, profile, dealer),
	}, nil
}

// GetSellerDashboard gathers the seller's listings, notifications and favourites count.
func (s *MarketplaceService) GetSellerDashboard(ctx context.Context, actor *domain.Actor) (*domain.SellerDashboard, error) {
	if err := requireRole(actor, domain.RoleSeller); err != nil {
		return nil, err
	}
	if _, err := s.upsertActor(ctx, actor); err != nil {
		return nil, err
	}

	dash := &domain.SellerDashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		listings, err := s.repo.ListSellerListings(gctx, actor.ID)
		dash.Listings = listings
		return err
	})
	g.Go(func() error {
		notifications, err := s.repo.ListNotificationsByUser(gctx, actor.ID)
		dash.Notifications = notifications
		return err
	})
	g.Go(func() error {
		favorites, err := s.repo.ListFavoritesByUser(gctx, actor.ID)
		dash.FavoritesCount = len(favorites)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeErr(err)
	}

	clicks, err := s.contactClicks(ctx, dash.Listings)
	if err != nil {
		return nil, s.storeErr(err)
	}
	dash.ContactClicks = clicks
	return dash, nil
}

func (s *MarketplaceService) contactClicks(ctx context.Context, listings []*domain.Listing) (map[uuid.UUID]int, error) {
	since := s.now().Add(-ContactClickWindow)
	clicks := make(map[uuid.UUID]int)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, l := range listings {
		g.Go(func() error {
			events, err := s.repo.ListContactEventsByListingSince(gctx, l.ID, since)
			if err != nil || len(events) == 0 {
				return err
			}
			mu.Lock()
			clicks[l.ID] = len(events)
			mu.Unlock()
			return nil
		})
	}
	return clicks, g.Wait()
}
