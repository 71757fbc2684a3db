// Package memory is the in-process Repository used for tests, local
// development and deployments without DATABASE_URL.
package memory

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type favoriteKey struct {
	userID    uuid.UUID
	listingID uuid.UUID
}

// Repository keeps every entity in maps guarded by a single RWMutex.
// Values are cloned on the way in and out so callers never alias stored state.
type Repository struct {
	mu sync.RWMutex

	users          map[uuid.UUID]*domain.User
	sellerProfiles map[uuid.UUID]*domain.SellerProfile
	dealerProfiles map[uuid.UUID]*domain.DealerProfile
	otps           map[uuid.UUID]*domain.OtpVerification
	listings       map[uuid.UUID]*domain.Listing
	reviews        []*domain.ModerationReview
	favorites      map[favoriteKey]*domain.Favorite
	contactEvents  []*domain.ListingContactEvent
	notifications  []*domain.Notification
	auditLogs      []*domain.AuditLog
	locations      []domain.Location
	packages       map[string]*domain.FeaturedPackage
	payments       map[string]*domain.PaymentTransaction // keyed by reference

	now func() time.Time
	log zerolog.Logger
}

var _ ports.Repository = (*Repository)(nil) // Ensure compliance

// NewRepository creates an empty in-memory store.
func NewRepository(baseLogger *zerolog.Logger) *Repository {
	return &Repository{
		users:          make(map[uuid.UUID]*domain.User),
		sellerProfiles: make(map[uuid.UUID]*domain.SellerProfile),
		dealerProfiles: make(map[uuid.UUID]*domain.DealerProfile),
		otps:           make(map[uuid.UUID]*domain.OtpVerification),
		listings:       make(map[uuid.UUID]*domain.Listing),
		favorites:      make(map[favoriteKey]*domain.Favorite),
		packages:       make(map[string]*domain.FeaturedPackage),
		payments:       make(map[string]*domain.PaymentTransaction),
		now:            time.Now,
		log:            baseLogger.With().Str("component", "memory_repo").Logger(),
	}
}

// --- Users ---

func (r *Repository) UpsertUser(ctx context.Context, in domain.UserUpsert) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	user, ok := r.users[in.ID]
	if !ok {
		user = &domain.User{ID: in.ID, CreatedAt: now}
		r.users[in.ID] = user
	}

	user.Role = in.Role
	if in.SellerType != nil {
		st := *in.SellerType
		user.SellerType = &st
	}
	if in.Email != nil {
		email := *in.Email
		user.Email = &email
	}
	if in.Phone != nil {
		phone := *in.Phone
		user.Phone = &phone
	}
	// Verification is never downgraded by an upsert.
	user.PhoneVerified = user.PhoneVerified || in.PhoneVerified
	user.UpdatedAt = now

	return cloneUser(user), nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneUser(r.users[id]), nil
}

func (r *Repository) MarkPhoneVerified(ctx context.Context, userID uuid.UUID, phone string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	user.Phone = &phone
	user.PhoneVerified = true
	user.UpdatedAt = r.now()
	return cloneUser(user), nil
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	c.SellerType = clonePtr(u.SellerType)
	c.Email = clonePtr(u.Email)
	c.Phone = clonePtr(u.Phone)
	return &c
}

// --- Seller & dealer profiles ---

func (r *Repository) GetSellerProfile(ctx context.Context, userID uuid.UUID) (*domain.SellerProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSellerProfile(r.sellerProfiles[userID]), nil
}

func (r *Repository) UpsertSellerProfile(ctx context.Context, profile *domain.SellerProfile) (*domain.SellerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	stored := cloneSellerProfile(profile)
	if existing, ok := r.sellerProfiles[profile.UserID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.sellerProfiles[profile.UserID] = stored
	return cloneSellerProfile(stored), nil
}

func (r *Repository) GetDealerProfile(ctx context.Context, userID uuid.UUID) (*domain.DealerProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneDealerProfile(r.dealerProfiles[userID]), nil
}

func (r *Repository) UpsertDealerProfile(ctx context.Context, profile *domain.DealerProfile) (*domain.DealerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	stored := cloneDealerProfile(profile)
	if existing, ok := r.dealerProfiles[profile.UserID]; ok {
		stored.CreatedAt = existing.CreatedAt
		stored.Verified = existing.Verified
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.dealerProfiles[profile.UserID] = stored
	return cloneDealerProfile(stored), nil
}

func (r *Repository) DeleteDealerProfile(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.dealerProfiles, userID)
	return nil
}

func cloneSellerProfile(p *domain.SellerProfile) *domain.SellerProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.State = clonePtr(p.State)
	c.City = clonePtr(p.City)
	c.Bio = clonePtr(p.Bio)
	return &c
}

func cloneDealerProfile(p *domain.DealerProfile) *domain.DealerProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.CacNumber = clonePtr(p.CacNumber)
	c.Address = clonePtr(p.Address)
	return &c
}

// --- OTP ---

func (r *Repository) CreateOtp(ctx context.Context, otp *domain.OtpVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.otps[otp.ID] = cloneOtp(otp)
	return nil
}

func (r *Repository) GetLatestOtp(ctx context.Context, userID uuid.UUID, phone string) (*domain.OtpVerification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.OtpVerification
	for _, o := range r.otps {
		if o.UserID != userID || o.Phone != phone {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	return cloneOtp(latest), nil
}

func (r *Repository) ReserveOtpAttempt(ctx context.Context, id uuid.UUID) (*domain.OtpVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.otps[id]
	if !ok || o.Exhausted() {
		return nil, nil
	}
	o.Attempts++
	return cloneOtp(o), nil
}

func (r *Repository) MarkOtpVerified(ctx context.Context, id uuid.UUID, at time.Time) (*domain.OtpVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.otps[id]
	if !ok {
		return nil, nil
	}
	o.VerifiedAt = &at
	return cloneOtp(o), nil
}

func cloneOtp(o *domain.OtpVerification) *domain.OtpVerification {
	if o == nil {
		return nil
	}
	c := *o
	c.VerifiedAt = clonePtr(o.VerifiedAt)
	return &c
}

// --- Moderation reviews ---

func (r *Repository) AddModerationReview(ctx context.Context, review *domain.ModerationReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *review
	c.Reason = clonePtr(review.Reason)
	r.reviews = append(r.reviews, &c)
	return nil
}

func (r *Repository) ListModerationReviewsSince(ctx context.Context, since time.Time) ([]*domain.ModerationReview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ModerationReview, 0)
	for _, rv := range r.reviews {
		if rv.CreatedAt.Before(since) {
			continue
		}
		c := *rv
		c.Reason = clonePtr(rv.Reason)
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
