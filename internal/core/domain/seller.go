package domain

import (
	"time"

	"github.com/google/uuid"
)

// SellerProfile is the one-to-one onboarding record of a seller.
type SellerProfile struct {
	UserID    uuid.UUID
	FullName  string
	State     *string
	City      *string
	Bio       *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DealerProfile exists only while the seller type is dealer.
type DealerProfile struct {
	UserID       uuid.UUID
	BusinessName string
	CacNumber    *string
	Address      *string
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SellerOnboarding bundles everything needed to decide onboarding completeness.
type SellerOnboarding struct {
	User          *User
	SellerProfile *SellerProfile
	DealerProfile *DealerProfile
	Completed     bool
}

// IsOnboardingComplete checks {sellerType, fullName, state, city} plus
// businessName when the seller is a dealer.
func IsOnboardingComplete(user *User, profile *SellerProfile, dealer *DealerProfile) bool {
	if user == nil || user.SellerType == nil || profile == nil {
		return false
	}
	if profile.FullName == "" || isBlank(profile.State) || isBlank(profile.City) {
		return false
	}
	if *user.SellerType == SellerDealer {
		return dealer != nil && dealer.BusinessName != ""
	}
	return true
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}
