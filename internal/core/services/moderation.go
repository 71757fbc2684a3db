package services

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/moderation"
	"NaijaAuto/internal/core/ports"
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var errNotPending = domain.NewError(domain.ErrConflict, "Listing is not awaiting moderation.")

// ApproveListing publishes a pending listing. The reason is optional.
func (s *MarketplaceService) ApproveListing(ctx context.Context, moderator *domain.Actor, identifier string, payload []byte) (*domain.Listing, error) {
	return s.review(ctx, moderator, identifier, payload, domain.ActionApprove)
}

// RejectListing sends a pending listing back to the seller. A reason is required.
func (s *MarketplaceService) RejectListing(ctx context.Context, moderator *domain.Actor, identifier string, payload []byte) (*domain.Listing, error) {
	return s.review(ctx, moderator, identifier, payload, domain.ActionReject)
}

func (s *MarketplaceService) review(ctx context.Context, moderator *domain.Actor, identifier string, payload []byte, action domain.ModerationAction) (*domain.Listing, error) {
	if err := requireRole(moderator, domain.RoleModerator, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if _, err := s.upsertActor(ctx, moderator); err != nil {
		return nil, err
	}

	var in decisionInput
	if err := s.decode(payload, &in); err != nil {
		return nil, err
	}
	if action == domain.ActionReject && in.Reason == nil {
		return nil, domain.ValidationError([]domain.FieldError{{Field: "reason", Message: "Rejection reason is required."}})
	}

	listing, err := s.resolveListing(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if listing.Status != domain.ListingPendingReview {
		return nil, errNotPending
	}

	previous := listing.Clone()
	now := s.now()
	var title, body, auditAction string
	switch action {
	case domain.ActionApprove:
		listing.Status = domain.ListingApproved
		listing.ApprovedAt = &now
		title, body, auditAction = "Listing approved", fmt.Sprintf("%s is now live on NaijaAuto.", listing.Title), "listing_approved"
	case domain.ActionReject:
		listing.Status = domain.ListingRejected
		title, body, auditAction = "Listing rejected", fmt.Sprintf("Listing rejected: %s", *in.Reason), "listing_rejected"
	}
	listing.UpdatedAt = now

	if err := s.repo.UpdateListing(ctx, listing); err != nil {
		return nil, s.storeErr(err)
	}

	review := &domain.ModerationReview{
		ID:          uuid.New(),
		ListingID:   listing.ID,
		ModeratorID: moderator.ID,
		Action:      action,
		Reason:      in.Reason,
		CreatedAt:   now,
	}
	if err := s.repo.AddModerationReview(ctx, review); err != nil {
		// A decision is only kept together with its review row.
		s.log.Error().Err(err).Str("listing_id", listing.ID.String()).Msg("Failed to record moderation review, reverting decision")
		if rerr := s.repo.UpdateListing(context.WithoutCancel(ctx), previous); rerr != nil {
			s.log.Error().Err(rerr).Str("listing_id", listing.ID.String()).Msg("Failed to revert listing after review write failure")
		}
		return nil, s.storeErr(err)
	}

	s.log.Info().
		Str("listing_id", listing.ID.String()).
		Str("moderator_id", moderator.ID.String()).
		Str("action", string(action)).
		Msg("Listing reviewed")

	s.notify(ctx, listing.SellerID, title, body)

	var reason any
	if in.Reason != nil {
		reason = *in.Reason
	}
	s.audit(ctx, &moderator.ID, "listings", listing.ID.String(), auditAction, map[string]any{
		"reason": reason,
	})

	var sellerEmail *string
	if seller, err := s.repo.GetUserByID(ctx, listing.SellerID); err == nil && seller != nil {
		sellerEmail = seller.Email
	}
	s.publish(ctx, ports.TopicListingReviewed, ports.ListingReviewedEvent{
		Listing:     listing.Clone(),
		Action:      action,
		Reason:      in.Reason,
		SellerEmail: sellerEmail,
	})
	return listing, nil
}

// GetModerationQueue lists pending listings oldest first with their age and SLA risk.
func (s *MarketplaceService) GetModerationQueue(ctx context.Context, moderator *domain.Actor) ([]domain.QueueItem, error) {
	if err := requireRole(moderator, domain.RoleModerator, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	pending, err := s.repo.GetModerationQueue(ctx)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return moderation.BuildQueue(pending, s.now()), nil
}

// GetModerationSlaDashboard loads the queue and the review history in
// parallel and computes the SLA view.
func (s *MarketplaceService) GetModerationSlaDashboard(ctx context.Context, moderator *domain.Actor) (*domain.SlaDashboard, error) {
	if err := requireRole(moderator, domain.RoleModerator, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	now := s.now()

	var (
		pending []*domain.Listing
		reviews []*domain.ModerationReview
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = s.repo.GetModerationQueue(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = s.repo.ListModerationReviewsSince(gctx, moderation.HistoryWindowStart(now))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeErr(err)
	}

	dash := moderation.BuildDashboard(pending, reviews, now)
	return &dash, nil
}
