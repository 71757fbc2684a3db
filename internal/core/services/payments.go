package services

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// WebhookClaimTTL bounds how long a delivery holds its event id. It must
	// stay shorter than the provider's retry interval.
	WebhookClaimTTL = 5 * time.Minute

	chargeSuccessEvent = "charge.success"
)

var errWebhookInFlight = domain.NewError(domain.ErrConflict, "Webhook event is still being processed. Retry later.")

// paystackWebhook is the subset of the provider payload the core reads.
type paystackWebhook struct {
	Event string `json:"event"`
	Data  struct {
		ID        json.Number `json:"id"`
		Reference string      `json:"reference"`
		Status    string      `json:"status"`
		Amount    int64       `json:"amount"`
	} `json:"data"`
}

// CreateFeaturedCheckout opens a provider checkout for featuring an approved listing.
func (s *MarketplaceService) CreateFeaturedCheckout(ctx context.Context, actor *domain.Actor, payload []byte) (*domain.FeaturedCheckout, error) {
	if err := requireRole(actor, domain.RoleSeller); err != nil {
		return nil, err
	}
	user, err := s.upsertActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	var in checkoutInput
	if err := s.decode(payload, &in); err != nil {
		return nil, err
	}

	listing, err := s.repo.GetListingByID(ctx, uuid.MustParse(in.ListingID))
	if err != nil {
		return nil, s.storeErr(err)
	}
	if listing == nil {
		return nil, errListingNotFound
	}
	if listing.SellerID != user.ID {
		return nil, domain.NewError(domain.ErrForbidden, "You can only feature your own listing.")
	}
	if listing.Status != domain.ListingApproved {
		return nil, domain.NewError(domain.ErrConflict, "Only approved listings can be featured.")
	}

	pkg, err := s.repo.GetFeaturedPackageByCode(ctx, in.PackageCode)
	if err != nil {
		return nil, s.storeErr(err)
	}
	if pkg == nil {
		return nil, domain.NewError(domain.ErrNotFound, "Featured package not found.")
	}

	now := s.now()
	reference := fmt.Sprintf("naija_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
	callbackURL := strings.TrimRight(s.settings.AppURL, "/") + "/seller/dashboard?reference=" + url.QueryEscape(reference)

	tx := &domain.PaymentTransaction{
		ID:          uuid.New(),
		ListingID:   listing.ID,
		SellerID:    user.ID,
		PackageCode: pkg.Code,
		AmountNgn:   pkg.AmountNgn,
		Provider:    domain.ProviderPaystack,
		Reference:   reference,
		Status:      domain.PaymentInitiated,
		CreatedAt:   now,
	}
	if err := s.repo.CreatePaymentTransaction(ctx, tx); err != nil {
		return nil, s.storeErr(err)
	}

	email := fmt.Sprintf("seller-%s@naijaauto.local", user.ID)
	if user.Email != nil && *user.Email != "" {
		email = *user.Email
	}

	initialized, err := s.payments.InitializeTransaction(ctx, ports.InitializeTransactionParams{
		Email:            email,
		AmountMinorUnits: pkg.AmountNgn * 100,
		Reference:        reference,
		CallbackURL:      callbackURL,
		Metadata: map[string]any{
			"listingId":   listing.ID.String(),
			"packageCode": pkg.Code,
		},
	})
	if err != nil {
		s.log.Error().Err(err).Str("reference", reference).Msg("Payment provider failed to initialize checkout")
		return nil, domain.NewError(domain.ErrUpstream, "Unable to start checkout.")
	}

	s.audit(ctx, &user.ID, "payment_transactions", tx.ID.String(), "featured_checkout_initialized", map[string]any{
		"reference":      reference,
		"mockedProvider": initialized.Mocked,
	})

	return &domain.FeaturedCheckout{
		CheckoutURL: initialized.AuthorizationURL,
		AccessCode:  initialized.AccessCode,
		Reference:   initialized.Reference,
		AmountNgn:   pkg.AmountNgn,
	}, nil
}

// HandlePaystackWebhook settles a featured payment at most once per event id
// and extends the listing's featured window. Replays are acknowledged with
// Duplicate set instead of failing.
func (s *MarketplaceService) HandlePaystackWebhook(ctx context.Context, rawBody []byte, signature string) (*domain.WebhookResult, error) {
	if !s.payments.VerifyWebhookSignature(rawBody, signature) {
		s.log.Warn().Msg("Rejected webhook with invalid signature")
		return nil, domain.NewError(domain.ErrUnauthenticated, "Invalid webhook signature.")
	}

	var hook paystackWebhook
	if err := json.Unmarshal(rawBody, &hook); err != nil {
		return nil, domain.NewError(domain.ErrValidation, "Malformed webhook payload.")
	}
	eventID := hook.Data.ID.String()
	if eventID == "" {
		return nil, domain.NewError(domain.ErrValidation, "Webhook payload has no event id.")
	}
	log := s.log.With().Str("event_id", eventID).Str("reference", hook.Data.Reference).Logger()

	seen, err := s.repo.GetPaymentByWebhookEventID(ctx, eventID)
	if err != nil {
		return nil, s.storeErr(err)
	}
	if seen != nil {
		log.Info().Msg("Duplicate webhook delivery acknowledged")
		return &domain.WebhookResult{Processed: true, Duplicate: true}, nil
	}

	if hook.Event != chargeSuccessEvent || hook.Data.Status != "success" {
		log.Debug().Str("event", hook.Event).Msg("Ignoring non-success webhook")
		return &domain.WebhookResult{Processed: true}, nil
	}

	claimed := true
	if s.guard != nil {
		claimed, err = s.guard.Claim(ctx, eventID, WebhookClaimTTL)
		if err != nil {
			// The storage constraints still make mark-paid idempotent.
			log.Error().Err(err).Msg("Webhook guard unavailable, continuing")
			claimed = true
		}
	}
	if !claimed {
		// Only a recorded event id is a duplicate; an in-flight claim must be retried.
		seen, err := s.repo.GetPaymentByWebhookEventID(ctx, eventID)
		if err != nil {
			return nil, s.storeErr(err)
		}
		if seen != nil {
			log.Info().Msg("Duplicate webhook delivery acknowledged")
			return &domain.WebhookResult{Processed: true, Duplicate: true}, nil
		}
		log.Warn().Msg("Webhook event claimed by another delivery, asking provider to retry")
		return nil, errWebhookInFlight
	}

	tx, err := s.repo.GetPaymentByReference(ctx, hook.Data.Reference)
	if err != nil {
		s.release(ctx, eventID)
		return nil, s.storeErr(err)
	}
	if tx == nil {
		s.release(ctx, eventID)
		return nil, domain.NewError(domain.ErrNotFound, "Payment transaction not found.")
	}

	now := s.now()
	paid, err := s.repo.MarkPaymentPaid(ctx, domain.MarkPaidParams{
		Reference:             hook.Data.Reference,
		WebhookEventID:        eventID,
		ProviderTransactionID: eventID,
		PaidAt:                now,
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyPaid), errors.Is(err, domain.ErrConflict):
		log.Info().Err(err).Msg("Payment already settled")
		return &domain.WebhookResult{Processed: true, Duplicate: true}, nil
	case err != nil:
		s.release(ctx, eventID)
		return nil, s.storeErr(err)
	case paid == nil:
		s.release(ctx, eventID)
		return nil, domain.NewError(domain.ErrNotFound, "Payment transaction not found.")
	}

	log.Info().Str("listing_id", paid.ListingID.String()).Msg("Featured payment settled")

	// Everything below runs after the payment is committed and never fails the webhook.
	durationDays, until := s.extendFeatured(ctx, paid, now)

	s.notify(ctx, paid.SellerID, "Featured listing activated",
		fmt.Sprintf("Your listing has been boosted for %d days.", durationDays))

	var sellerEmail *string
	if seller, err := s.repo.GetUserByID(ctx, paid.SellerID); err != nil {
		log.Error().Err(err).Msg("Failed to load seller for email")
	} else if seller != nil {
		sellerEmail = seller.Email
	}
	s.publish(ctx, ports.TopicFeaturedActivated, ports.FeaturedActivatedEvent{
		Transaction:   paid,
		FeaturedUntil: until,
		DurationDays:  durationDays,
		SellerEmail:   sellerEmail,
	})

	s.audit(ctx, nil, "payment_transactions", paid.ID.String(), "paystack_charge_success", map[string]any{
		"reference": paid.Reference,
	})
	return &domain.WebhookResult{Processed: true}, nil
}

// extendFeatured stacks the package duration onto a still-open window, or
// starts a new one at now.
func (s *MarketplaceService) extendFeatured(ctx context.Context, tx *domain.PaymentTransaction, now time.Time) (int, time.Time) {
	log := s.log.With().Str("reference", tx.Reference).Str("listing_id", tx.ListingID.String()).Logger()

	pkg, err := s.repo.GetFeaturedPackageByCode(ctx, tx.PackageCode)
	if err != nil || pkg == nil {
		log.Error().Err(err).Str("package", tx.PackageCode).Msg("Featured package missing for paid transaction")
		return 0, time.Time{}
	}
	listing, err := s.repo.GetListingByID(ctx, tx.ListingID)
	if err != nil || listing == nil {
		log.Error().Err(err).Msg("Listing missing for paid transaction")
		return pkg.DurationDays, time.Time{}
	}

	start := now
	if listing.FeaturedUntil != nil && listing.FeaturedUntil.After(now) {
		start = *listing.FeaturedUntil
	}
	until := start.Add(time.Duration(pkg.DurationDays) * 24 * time.Hour)

	listing.IsFeatured = true
	listing.FeaturedUntil = &until
	listing.UpdatedAt = now
	if err := s.repo.UpdateListing(ctx, listing); err != nil {
		log.Error().Err(err).Time("featured_until", until).Msg("Failed to extend featured window, needs manual reconciliation")
		return pkg.DurationDays, time.Time{}
	}
	return pkg.DurationDays, until
}

// release frees the claim even when the request context is already gone.
func (s *MarketplaceService) release(ctx context.Context, eventID string) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Release(context.WithoutCancel(ctx), eventID); err != nil {
		s.log.Error().Err(err).Str("event_id", eventID).Msg("Failed to release webhook claim")
	}
}
