// Package seed loads reference data into a fresh store. Every step is
// check-then-insert, so Run can be repeated safely.
package seed

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Demo identities, stable across runs so sessions can be faked locally.
var (
	DemoModeratorID = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	DemoSellerID    = uuid.MustParse("00000000-0000-4000-8000-000000000002")
)

type Options struct {
	DemoData bool
}

var LaunchLocations = []domain.Location{
	{State: "Lagos", City: "Lagos Island", Lat: 6.4541, Lng: 3.3947},
	{State: "Lagos", City: "Ikeja", Lat: 6.6018, Lng: 3.3515},
	{State: "Lagos", City: "Lekki", Lat: 6.4698, Lng: 3.5852},
	{State: "FCT", City: "Abuja", Lat: 9.0765, Lng: 7.3986},
	{State: "Rivers", City: "Port Harcourt", Lat: 4.8156, Lng: 7.0498},
	{State: "Kano", City: "Kano", Lat: 12.0022, Lng: 8.592},
	{State: "Oyo", City: "Ibadan", Lat: 7.3775, Lng: 3.947},
	{State: "Kaduna", City: "Kaduna", Lat: 10.5105, Lng: 7.4165},
	{State: "Enugu", City: "Enugu", Lat: 6.4584, Lng: 7.5464},
	{State: "Delta", City: "Warri", Lat: 5.5549, Lng: 5.7932},
	{State: "Ogun", City: "Abeokuta", Lat: 7.1475, Lng: 3.3619},
	{State: "Anambra", City: "Awka", Lat: 6.212, Lng: 7.0715},
	{State: "Edo", City: "Benin City", Lat: 6.3382, Lng: 5.6257},
	{State: "Plateau", City: "Jos", Lat: 9.8965, Lng: 8.8583},
	{State: "Akwa Ibom", City: "Uyo", Lat: 5.0377, Lng: 7.9128},
}

// FeaturedPackages are the purchasable boosts.
var FeaturedPackages = []domain.FeaturedPackage{
	{Code: "feature_7_days", Name: "Featured 7 days", DurationDays: 7, AmountNgn: 25_000, IsActive: true},
	{Code: "feature_14_days", Name: "Featured 14 days", DurationDays: 14, AmountNgn: 45_000, IsActive: true},
	{Code: "feature_30_days", Name: "Featured 30 days", DurationDays: 30, AmountNgn: 80_000, IsActive: true},
}

// Run seeds locations, featured packages and, when asked, demo users.
func Run(ctx context.Context, repo ports.Repository, opts Options, baseLogger *zerolog.Logger) error {
	log := baseLogger.With().Str("component", "seed").Logger()

	added := 0
	for _, loc := range LaunchLocations {
		existing, err := repo.GetLocation(ctx, loc.State, loc.City)
		if err != nil {
			return fmt.Errorf("seed location %s/%s: %w", loc.State, loc.City, err)
		}
		if existing != nil {
			continue
		}
		if err := repo.AddLocation(ctx, loc); err != nil {
			return fmt.Errorf("seed location %s/%s: %w", loc.State, loc.City, err)
		}
		added++
	}
	log.Info().Int("added", added).Msg("Locations seeded")

	for _, p := range FeaturedPackages {
		pkg := p
		pkg.ID = uuid.New()
		if err := repo.AddFeaturedPackage(ctx, &pkg); err != nil {
			return fmt.Errorf("seed package %s: %w", p.Code, err)
		}
	}
	log.Info().Int("packages", len(FeaturedPackages)).Msg("Featured packages seeded")

	if opts.DemoData {
		if err := seedDemoUsers(ctx, repo); err != nil {
			return err
		}
		log.Info().Msg("Demo users seeded")
	}
	return nil
}

func seedDemoUsers(ctx context.Context, repo ports.Repository) error {
	if _, err := repo.UpsertUser(ctx, domain.UserUpsert{ID: DemoModeratorID, Role: domain.RoleModerator}); err != nil {
		return fmt.Errorf("seed demo moderator: %w", err)
	}

	private := domain.SellerPrivate
	email := "demo.seller@naijaauto.ng"
	phone := "+2348000000000"
	if _, err := repo.UpsertUser(ctx, domain.UserUpsert{
		ID:            DemoSellerID,
		Role:          domain.RoleSeller,
		SellerType:    &private,
		Email:         &email,
		Phone:         &phone,
		PhoneVerified: true,
	}); err != nil {
		return fmt.Errorf("seed demo seller: %w", err)
	}

	existing, err := repo.GetSellerProfile(ctx, DemoSellerID)
	if err != nil {
		return fmt.Errorf("seed demo seller profile: %w", err)
	}
	if existing != nil {
		return nil
	}
	state, city := "Lagos", "Ikeja"
	if _, err := repo.UpsertSellerProfile(ctx, &domain.SellerProfile{
		UserID:   DemoSellerID,
		FullName: "Demo Seller",
		State:    &state,
		City:     &city,
	}); err != nil {
		return fmt.Errorf("seed demo seller profile: %w", err)
	}
	return nil
}
