package services

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/fraud"
	"NaijaAuto/internal/core/ports"
	"NaijaAuto/internal/core/ranking"
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// MinSubmitPhotos is the photo count a listing needs before moderation.
const MinSubmitPhotos = 15

// ContactTracked acknowledges a contact click.
type ContactTracked struct {
	Tracked bool                  `json:"tracked"`
	Channel domain.ContactChannel `json:"channel"`
}

var (
	errVinInUse        = domain.NewError(domain.ErrConflict, "A live listing with this VIN already exists.")
	errSlugTaken       = domain.NewError(domain.ErrConflict, "Another listing took this URL at the same moment. Please retry.")
	errPhotosDuplicate = domain.NewError(domain.ErrConflict, "Photos appear duplicated from existing listings. Use original vehicle photos.")
)

// CreateListing stores a new draft for a verified, onboarded seller.
func (s *MarketplaceService) CreateListing(ctx context.Context, actor *domain.Actor, payload []byte) (*domain.Listing, error) {
	if err := requireRole(actor, domain.RoleSeller); err != nil {
		return nil, err
	}
	user, err := s.upsertActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := s.requireSellerReady(ctx, user, "Verify phone number before creating listings."); err != nil {
		return nil, err
	}

	var in listingInput
	if err := s.decode(payload, &in); err != nil {
		return nil, err
	}

	dup, err := s.fraud.VINInUse(ctx, in.VIN, nil)
	if err != nil {
		return nil, s.storeErr(err)
	}
	if dup {
		return nil, errVinInUse
	}

	// Overlap is recorded for audit only on create.
	signal, err := s.fraud.ImageOverlap(ctx, in.Photos, nil)
	if err != nil {
		return nil, s.storeErr(err)
	}

	slug, err := s.uniqueSlug(ctx, in.Make, in.Model, in.City, in.Year, nil)
	if err != nil {
		return nil, err
	}

	sellerType := domain.SellerPrivate
	if user.SellerType != nil {
		sellerType = *user.SellerType
	}

	now := s.now()
	listing := &domain.Listing{
		ID:         uuid.New(),
		SellerID:   user.ID,
		SellerType: sellerType,
		Status:     domain.ListingDraft,
		Slug:       slug,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	in.applyTo(listing)

	err = s.repo.CreateListing(ctx, listing)
	if errors.Is(err, domain.ErrSlugTaken) {
		// A concurrent create won the slug after uniqueSlug looked; pick the next free one.
		s.log.Warn().Str("slug", listing.Slug).Msg("Slug taken between lookup and insert, retrying")
		if listing.Slug, err = s.uniqueSlug(ctx, in.Make, in.Model, in.City, in.Year, nil); err != nil {
			return nil, err
		}
		err = s.repo.CreateListing(ctx, listing)
	}
	if err != nil {
		return nil, s.listingWriteErr(err)
	}

	s.log.Info().Str("listing_id", listing.ID.String()).Str("slug", listing.Slug).Msg("Listing created")
	s.audit(ctx, &user.ID, "listings", listing.ID.String(), "listing_created", map[string]any{
		"duplicateImageOverlap": signal.OverlapCount,
	})
	return listing, nil
}

// UpdateListing edits a draft or rejected listing. A rejected listing goes back to draft.
func (s *MarketplaceService) UpdateListing(ctx context.Context, actor *domain.Actor, identifier string, payload []byte) (*domain.Listing, error) {
	if err := requireRole(actor, domain.RoleSeller); err != nil {
		return nil, err
	}
	if _, err := s.upsertActor(ctx, actor); err != nil {
		return nil, err
	}

	listing, err := s.resolveListing(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actor.ID {
		return nil, domain.NewError(domain.ErrForbidden, "You can only edit your own listings.")
	}
	switch listing.Status {
	case domain.ListingDraft, domain.ListingRejected:
	case domain.ListingApproved:
		return nil, domain.NewError(domain.ErrConflict, "Approved listings cannot be edited directly. Duplicate and resubmit.")
	default:
		return nil, domain.NewError(domain.ErrConflict, "Listing cannot be edited while %s.", listing.Status)
	}

	var patch listingPatch
	if err := s.decode(payload, &patch); err != nil {
		return nil, err
	}
	merged := patch.merge(listingInputFrom(listing))
	if err := s.check(&merged); err != nil {
		return nil, err
	}

	if patch.VIN != nil {
		dup, err := s.fraud.VINInUse(ctx, merged.VIN, &listing.ID)
		if err != nil {
			return nil, s.storeErr(err)
		}
		if dup {
			return nil, errVinInUse
		}
	}

	if patch.Photos != nil {
		signal, err := s.fraud.ImageOverlap(ctx, merged.Photos, &listing.ID)
		if err != nil {
			return nil, s.storeErr(err)
		}
		if fraud.Blocks(signal) {
			return nil, errPhotosDuplicate
		}
	}

	if patch.touchesSlug() {
		slug, err := s.uniqueSlug(ctx, merged.Make, merged.Model, merged.City, merged.Year, &listing.ID)
		if err != nil {
			return nil, err
		}
		listing.Slug = slug
	}

	merged.applyTo(listing)
	if listing.Status == domain.ListingRejected {
		listing.Status = domain.ListingDraft
	}
	listing.UpdatedAt = s.now()

	if err := s.repo.UpdateListing(ctx, listing); err != nil {
		return nil, s.listingWriteErr(err)
	}

	s.audit(ctx, &actor.ID, "listings", listing.ID.String(), "listing_updated", map[string]any{
		"fields": payloadKeys(payload),
	})
	return listing, nil
}

// SubmitListing moves a listing into the moderation queue once the VIN and
// photo gates pass.
func (s *MarketplaceService) SubmitListing(ctx context.Context, actor *domain.Actor, identifier string) (*domain.Listing, error) {
	if err := requireRole(actor, domain.RoleSeller); err != nil {
		return nil, err
	}
	user, err := s.upsertActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := s.requireSellerReady(ctx, user, "Phone verification is required before submission."); err != nil {
		return nil, err
	}

	listing, err := s.resolveListing(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != user.ID {
		return nil, domain.NewError(domain.ErrForbidden, "You can only submit your own listings.")
	}

	if len(strings.TrimSpace(listing.VIN)) != fraud.VINLength {
		return nil, domain.NewError(domain.ErrConflict, "A 17-character VIN is required before submission.")
	}
	if len(listing.Photos) < MinSubmitPhotos {
		return nil, domain.NewError(domain.ErrConflict, "At least %d photos are required before submission.", MinSubmitPhotos)
	}

	dup, err := s.fraud.VINInUse(ctx, listing.VIN, &listing.ID)
	if err != nil {
		return nil, s.storeErr(err)
	}
	if dup {
		return nil, errVinInUse
	}

	signal, err := s.fraud.ImageOverlap(ctx, listing.Photos, &listing.ID)
	if err != nil {
		return nil, s.storeErr(err)
	}
	if fraud.Blocks(signal) {
		return nil, domain.NewError(domain.ErrConflict, "Too many duplicate images detected with existing listings.")
	}

	listing.Status = domain.ListingPendingReview
	listing.UpdatedAt = s.now()
	if err := s.repo.UpdateListing(ctx, listing); err != nil {
		return nil, s.listingWriteErr(err)
	}

	s.log.Info().Str("listing_id", listing.ID.String()).Msg("Listing submitted for review")
	s.audit(ctx, &user.ID, "listings", listing.ID.String(), "listing_submitted", map[string]any{
		"duplicateImageOverlap": signal.OverlapCount,
	})
	s.publish(ctx, ports.TopicListingSubmitted, ports.ListingSubmittedEvent{Listing: listing.Clone()})
	return listing, nil
}

// SearchListings filters approved listings, ranks them and returns one page.
func (s *MarketplaceService) SearchListings(ctx context.Context, payload []byte) (*domain.SearchResult, error) {
	var in searchInput
	if err := s.decode(payload, &in); err != nil {
		return nil, err
	}
	filter := in.filter()

	approved, err := s.repo.ListListingsByStatus(ctx, domain.ListingApproved)
	if err != nil {
		return nil, s.storeErr(err)
	}

	matched := make([]*domain.Listing, 0, len(approved))
	for _, l := range approved {
		if matchesFilter(l, filter) {
			matched = append(matched, l)
		}
	}
	ranked := ranking.Rank(matched, filter.Query, s.now())

	offset, end := pageBounds(filter.Page, filter.PageSize, len(ranked))

	return &domain.SearchResult{
		Items:    ranked[offset:end],
		Total:    len(ranked),
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// listingWriteErr maps a failed listing write. The store reports slug and
// live-VIN collisions as distinct conflicts.
func (s *MarketplaceService) listingWriteErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrSlugTaken):
		return errSlugTaken
	case errors.Is(err, domain.ErrConflict):
		return errVinInUse
	default:
		return s.storeErr(err)
	}
}

// pageBounds returns the [offset, end) window of a 1-indexed page, clamped
// to total without overflowing for arbitrarily large pages.
func pageBounds(page, pageSize, total int) (int, int) {
	if page < 1 || pageSize < 1 || page-1 >= (total+pageSize-1)/pageSize {
		return total, total
	}
	offset := (page - 1) * pageSize
	return offset, min(offset+pageSize, total)
}

func matchesFilter(l *domain.Listing, f domain.ListingFilter) bool {
	if f.Make != "" && !equalFold(l.Make, f.Make) {
		return false
	}
	if f.Model != "" && !equalFold(l.Model, f.Model) {
		return false
	}
	if f.State != "" && !equalFold(l.State, f.State) {
		return false
	}
	if f.City != "" && !equalFold(l.City, f.City) {
		return false
	}
	if f.BodyType != "" && l.BodyType != f.BodyType {
		return false
	}
	if f.MinPriceNgn != nil && l.PriceNgn < *f.MinPriceNgn {
		return false
	}
	if f.MaxPriceNgn != nil && l.PriceNgn > *f.MaxPriceNgn {
		return false
	}
	if f.MinYear != nil && l.Year < *f.MinYear {
		return false
	}
	if f.MaxYear != nil && l.Year > *f.MaxYear {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		haystack := strings.ToLower(strings.Join([]string{l.Title, l.Make, l.Model, l.City, l.State}, " "))
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// GetPublicListing returns an approved listing by id or slug.
func (s *MarketplaceService) GetPublicListing(ctx context.Context, identifier string) (*domain.Listing, error) {
	listing, err := s.resolveListing(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if listing.Status != domain.ListingApproved {
		return nil, errListingNotFound
	}
	return listing, nil
}

// TrackContactClick records a buyer revealing the phone or WhatsApp contact.
// actor may be nil for anonymous buyers.
func (s *MarketplaceService) TrackContactClick(ctx context.Context, actor *domain.Actor, identifier string, payload []byte, meta domain.ContactMeta) (*ContactTracked, error) {
	var in contactInput
	if err := s.decode(payload, &in); err != nil {
		return nil, err
	}

	listing, err := s.GetPublicListing(ctx, identifier)
	if err != nil {
		return nil, err
	}

	var actorID *uuid.UUID
	if actor != nil {
		if _, err := s.upsertActor(ctx, actor); err != nil {
			return nil, err
		}
		id := actor.ID
		actorID = &id
	}
	channel := domain.ContactChannel(in.Channel)

	event := &domain.ListingContactEvent{
		ID:        uuid.New(),
		ListingID: listing.ID,
		Channel:   channel,
		UserID:    actorID,
		IP:        optionalText(&meta.IP),
		UserAgent: optionalText(&meta.UserAgent),
		CreatedAt: s.now(),
	}
	if err := s.repo.AddContactEvent(ctx, event); err != nil {
		return nil, s.storeErr(err)
	}

	s.audit(ctx, actorID, "listings", listing.ID.String(), "contact_click_"+string(channel), map[string]any{
		"ip": meta.IP,
	})
	return &ContactTracked{Tracked: true, Channel: channel}, nil
}
