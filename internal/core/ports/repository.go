package ports

import (
	"NaijaAuto/internal/core/domain"
	"context"
	"time"

	"github.com/google/uuid"
)

// Single-row reads return (nil, nil) when the row does not exist.

// UserRepository defines the persistence operations for Users.
type UserRepository interface {
	// UpsertUser updates or inserts the user keyed by ID.
	UpsertUser(ctx context.Context, in domain.UserUpsert) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	MarkPhoneVerified(ctx context.Context, userID uuid.UUID, phone string) (*domain.User, error)
}

// SellerProfileRepository persists onboarding data.
type SellerProfileRepository interface {
	GetSellerProfile(ctx context.Context, userID uuid.UUID) (*domain.SellerProfile, error)
	UpsertSellerProfile(ctx context.Context, profile *domain.SellerProfile) (*domain.SellerProfile, error)
	GetDealerProfile(ctx context.Context, userID uuid.UUID) (*domain.DealerProfile, error)
	UpsertDealerProfile(ctx context.Context, profile *domain.DealerProfile) (*domain.DealerProfile, error)
	DeleteDealerProfile(ctx context.Context, userID uuid.UUID) error
}

// OtpRepository persists phone verification challenges.
type OtpRepository interface {
	CreateOtp(ctx context.Context, otp *domain.OtpVerification) error
	// GetLatestOtp returns the most recently created record for (user, phone).
	GetLatestOtp(ctx context.Context, userID uuid.UUID, phone string) (*domain.OtpVerification, error)
	// ReserveOtpAttempt atomically spends one attempt while the budget lasts.
	// It returns nil when the budget is already spent or the record is gone.
	ReserveOtpAttempt(ctx context.Context, id uuid.UUID) (*domain.OtpVerification, error)
	MarkOtpVerified(ctx context.Context, id uuid.UUID, at time.Time) (*domain.OtpVerification, error)
}

// ListingRepository persists listings and answers the integrity queries.
type ListingRepository interface {
	// CreateListing returns domain.ErrConflict if the VIN is already live
	// or the slug is taken.
	CreateListing(ctx context.Context, listing *domain.Listing) error
	// UpdateListing replaces the stored listing. Same conflict rules as CreateListing.
	UpdateListing(ctx context.Context, listing *domain.Listing) error
	GetListingByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	GetListingBySlug(ctx context.Context, slug string) (*domain.Listing, error)
	ListSellerListings(ctx context.Context, sellerID uuid.UUID) ([]*domain.Listing, error)
	ListListingsByStatus(ctx context.Context, status domain.ListingStatus) ([]*domain.Listing, error)

	// HasDuplicateVin checks live listings (not rejected/archived), optionally excluding one.
	HasDuplicateVin(ctx context.Context, vin string, excludeID *uuid.UUID) (bool, error)
	// DetectDuplicateImageHashes counts photo fingerprint matches across other listings.
	DetectDuplicateImageHashes(ctx context.Context, hashes []string, excludeID *uuid.UUID) (domain.DuplicateImageSignal, error)

	// GetModerationQueue returns pending_review listings, oldest first.
	GetModerationQueue(ctx context.Context) ([]*domain.Listing, error)
}

// ModerationRepository stores moderator decisions.
type ModerationRepository interface {
	AddModerationReview(ctx context.Context, review *domain.ModerationReview) error
	ListModerationReviewsSince(ctx context.Context, since time.Time) ([]*domain.ModerationReview, error)
}

// ActivityRepository holds favorites and the append-only trails.
type ActivityRepository interface {
	// AddFavorite is idempotent on (userID, listingID).
	AddFavorite(ctx context.Context, fav *domain.Favorite) error
	RemoveFavorite(ctx context.Context, userID, listingID uuid.UUID) (bool, error)
	ListFavoritesByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Favorite, error)

	AddContactEvent(ctx context.Context, event *domain.ListingContactEvent) error
	ListContactEventsByListingSince(ctx context.Context, listingID uuid.UUID, since time.Time) ([]*domain.ListingContactEvent, error)

	AddNotification(ctx context.Context, n *domain.Notification) error
	ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)

	AddAuditLog(ctx context.Context, entry *domain.AuditLog) error
	ListAuditLogs(ctx context.Context) ([]*domain.AuditLog, error)
}

// CatalogRepository holds read-mostly reference data.
type CatalogRepository interface {
	ListLocations(ctx context.Context) ([]domain.Location, error)
	GetLocation(ctx context.Context, state, city string) (*domain.Location, error)
	// AddLocation inserts a location unless (state, city) already exists.
	AddLocation(ctx context.Context, loc domain.Location) error

	ListFeaturedPackages(ctx context.Context) ([]*domain.FeaturedPackage, error)
	// GetFeaturedPackageByCode returns active packages only.
	GetFeaturedPackageByCode(ctx context.Context, code string) (*domain.FeaturedPackage, error)
	// AddFeaturedPackage inserts a package unless its code already exists.
	AddFeaturedPackage(ctx context.Context, pkg *domain.FeaturedPackage) error
}

// PaymentRepository persists featured-checkout transactions.
type PaymentRepository interface {
	CreatePaymentTransaction(ctx context.Context, tx *domain.PaymentTransaction) error
	GetPaymentByReference(ctx context.Context, reference string) (*domain.PaymentTransaction, error)
	GetPaymentByWebhookEventID(ctx context.Context, eventID string) (*domain.PaymentTransaction, error)
	// MarkPaymentPaid transitions initiated -> paid exactly once.
	// Returns (nil, nil) for an unknown reference, domain.ErrAlreadyPaid when the
	// transaction is already paid, domain.ErrConflict when the event id is taken.
	MarkPaymentPaid(ctx context.Context, params domain.MarkPaidParams) (*domain.PaymentTransaction, error)
}

// Repository is the full persistence contract the core depends on.
type Repository interface {
	UserRepository
	SellerProfileRepository
	OtpRepository
	ListingRepository
	ModerationRepository
	ActivityRepository
	CatalogRepository
	PaymentRepository
}
