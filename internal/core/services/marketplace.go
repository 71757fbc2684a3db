// Package services is the marketplace transaction core: listing lifecycle,
// OTP verification, featured payments and moderation. Every operation takes
// the caller identity and a raw JSON payload and returns a typed result or a
// *domain.AppError.
package services

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/fraud"
	"NaijaAuto/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Settings carries the deployment values the core needs.
type Settings struct {
	AppURL     string
	Production bool
}

// Option customizes a MarketplaceService.
type Option func(*MarketplaceService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MarketplaceService) { s.now = now }
}

// MarketplaceService implements the service surface consumed by the HTTP
// layer and the moderation desk.
type MarketplaceService struct {
	repo     ports.Repository
	sms      ports.SmsProvider
	payments ports.PaymentProvider
	guard    ports.WebhookGuard
	bus      ports.EventBus
	fraud    *fraud.Checker
	validate *validator.Validate
	settings Settings
	now      func() time.Time
	log      zerolog.Logger
}

// NewMarketplaceService creates the core service.
func NewMarketplaceService(
	repo ports.Repository,
	sms ports.SmsProvider,
	payments ports.PaymentProvider,
	guard ports.WebhookGuard,
	bus ports.EventBus,
	settings Settings,
	baseLogger *zerolog.Logger,
	opts ...Option,
) *MarketplaceService {
	s := &MarketplaceService{
		repo:     repo,
		sms:      sms,
		payments: payments,
		guard:    guard,
		bus:      bus,
		fraud:    fraud.NewChecker(repo, baseLogger),
		settings: settings,
		now:      time.Now,
		log:      baseLogger.With().Str("component", "marketplace_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validate = newValidator(s.now)
	return s
}

// upsertActor records the caller on every authenticated action and returns
// the stored user, whose PhoneVerified reflects both the session and the store.
func (s *MarketplaceService) upsertActor(ctx context.Context, actor *domain.Actor) (*domain.User, error) {
	user, err := s.repo.UpsertUser(ctx, domain.UserUpsert{
		ID:            actor.ID,
		Role:          actor.Role,
		SellerType:    actor.SellerType,
		Email:         actor.Email,
		PhoneVerified: actor.PhoneVerified,
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", actor.ID.String()).Msg("Failed to upsert actor")
		return nil, domain.NewError(domain.ErrInternal, "Internal server error.")
	}
	return user, nil
}

func requireActor(actor *domain.Actor) error {
	if actor == nil {
		return domain.NewError(domain.ErrUnauthenticated, "Authentication required.")
	}
	return nil
}

func requireRole(actor *domain.Actor, roles ...domain.UserRole) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.HasRole(roles...) {
		return domain.NewError(domain.ErrForbidden, "You do not have permission for this action.")
	}
	return nil
}

// requireSellerReady enforces the phone and onboarding gates for listing writes.
func (s *MarketplaceService) requireSellerReady(ctx context.Context, user *domain.User, phoneMsg string) error {
	if !user.PhoneVerified {
		return domain.NewError(domain.ErrForbidden, "%s", phoneMsg)
	}
	profile, err := s.repo.GetSellerProfile(ctx, user.ID)
	if err != nil {
		return s.storeErr(err)
	}
	dealer, err := s.repo.GetDealerProfile(ctx, user.ID)
	if err != nil {
		return s.storeErr(err)
	}
	if !domain.IsOnboardingComplete(user, profile, dealer) {
		return domain.NewError(domain.ErrForbidden, "Complete seller onboarding first.")
	}
	return nil
}

func (s *MarketplaceService) audit(ctx context.Context, actorID *uuid.UUID, entityType, entityID, action string, metadata map[string]any) {
	entry := &domain.AuditLog{
		ID:          uuid.New(),
		ActorUserID: actorID,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Metadata:    metadata,
		CreatedAt:   s.now(),
	}
	if err := s.repo.AddAuditLog(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("action", action).Str("entity_id", entityID).Msg("Failed to write audit log")
	}
}

// notify stores a notification. Failures are logged and swallowed.
func (s *MarketplaceService) notify(ctx context.Context, userID uuid.UUID, title, body string) {
	n := &domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.repo.AddNotification(ctx, n); err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Str("title", title).Msg("Failed to store notification")
	}
}

func (s *MarketplaceService) publish(ctx context.Context, topic string, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, topic, data); err != nil {
		s.log.Error().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}

var canonicalID = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// resolveListing looks a listing up by id when identifier has the canonical
// id format, by slug otherwise. Returns a 404 AppError when nothing matches.
func (s *MarketplaceService) resolveListing(ctx context.Context, identifier string) (*domain.Listing, error) {
	identifier = strings.TrimSpace(identifier)

	var (
		listing *domain.Listing
		err     error
	)
	if canonicalID.MatchString(identifier) {
		listing, err = s.repo.GetListingByID(ctx, uuid.MustParse(identifier))
	} else {
		listing, err = s.repo.GetListingBySlug(ctx, identifier)
	}
	if err != nil {
		return nil, s.storeErr(err)
	}
	if listing == nil {
		return nil, errListingNotFound
	}
	return listing, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
var slugSpace = regexp.MustCompile(`\s+`)
var slugDashes = regexp.MustCompile(`-+`)

// Slugify lowercases, drops anything but [a-z0-9 -] and joins words with single dashes.
func Slugify(input string) string {
	s := strings.TrimSpace(strings.ToLower(input))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// uniqueSlug derives make-model-city-year and appends -2, -3, ... until free.
func (s *MarketplaceService) uniqueSlug(ctx context.Context, mk, model, city string, year int, excludeID *uuid.UUID) (string, error) {
	base := Slugify(fmt.Sprintf("%s-%s-%s-%d", mk, model, city, year))
	slug := base
	for i := 2; ; i++ {
		existing, err := s.repo.GetListingBySlug(ctx, slug)
		if err != nil {
			return "", s.storeErr(err)
		}
		if existing == nil || (excludeID != nil && existing.ID == *excludeID) {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

var errListingNotFound = domain.NewError(domain.ErrNotFound, "Listing not found.")

// storeErr converts a repository failure into a client error. AppErrors pass
// through, storage conflicts become 409 and anything else is logged as a 500.
func (s *MarketplaceService) storeErr(err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, domain.ErrConflict) {
		return domain.NewError(domain.ErrConflict, "The change conflicts with existing data.")
	}
	s.log.Error().Err(err).Msg("Repository call failed")
	return domain.NewError(domain.ErrInternal, "Internal server error.")
}
