package memory

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/fraud"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

func (r *Repository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.listings[listing.ID]; exists {
		return fmt.Errorf("%w: listing %s already exists", domain.ErrConflict, listing.ID)
	}
	if err := r.checkUniqueLocked(listing); err != nil {
		return err
	}
	r.listings[listing.ID] = listing.Clone()
	return nil
}

func (r *Repository) UpdateListing(ctx context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.listings[listing.ID]; !exists {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, listing.ID)
	}
	if err := r.checkUniqueLocked(listing); err != nil {
		return err
	}
	r.listings[listing.ID] = listing.Clone()
	return nil
}

// checkUniqueLocked enforces the live-VIN and slug constraints while the
// write lock is held, so a check-then-write race cannot slip through.
func (r *Repository) checkUniqueLocked(listing *domain.Listing) error {
	vin := fraud.NormalizeVIN(listing.VIN)
	for id, other := range r.listings {
		if id == listing.ID {
			continue
		}
		if other.Slug == listing.Slug {
			r.log.Warn().Str("slug", listing.Slug).Msg("Slug already taken")
			return fmt.Errorf("%w: %q", domain.ErrSlugTaken, listing.Slug)
		}
		if vin != "" && listing.Status.IsLive() && other.Status.IsLive() && fraud.NormalizeVIN(other.VIN) == vin {
			r.log.Warn().Str("listing_id", listing.ID.String()).Msg("Live VIN collision rejected by store")
			return fmt.Errorf("%w: VIN already attached to a live listing", domain.ErrConflict)
		}
	}
	return nil
}

func (r *Repository) GetListingByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listings[id].Clone(), nil
}

func (r *Repository) GetListingBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.listings {
		if l.Slug == slug {
			return l.Clone(), nil
		}
	}
	return nil, nil
}

func (r *Repository) ListSellerListings(ctx context.Context, sellerID uuid.UUID) ([]*domain.Listing, error) {
	return r.filterListings(func(l *domain.Listing) bool { return l.SellerID == sellerID }, newestFirst), nil
}

func (r *Repository) ListListingsByStatus(ctx context.Context, status domain.ListingStatus) ([]*domain.Listing, error) {
	return r.filterListings(func(l *domain.Listing) bool { return l.Status == status }, newestFirst), nil
}

func (r *Repository) GetModerationQueue(ctx context.Context) ([]*domain.Listing, error) {
	return r.filterListings(func(l *domain.Listing) bool { return l.Status == domain.ListingPendingReview }, oldestFirst), nil
}

func (r *Repository) HasDuplicateVin(ctx context.Context, vin string, excludeID *uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target := fraud.NormalizeVIN(vin)
	for id, l := range r.listings {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if !l.Status.IsLive() {
			continue
		}
		if fraud.NormalizeVIN(l.VIN) == target {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) DetectDuplicateImageHashes(ctx context.Context, hashes []string, excludeID *uuid.UUID) (domain.DuplicateImageSignal, error) {
	signal := domain.DuplicateImageSignal{ListingIDs: []uuid.UUID{}}
	if len(hashes) == 0 {
		return signal, nil
	}

	wanted := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		wanted[h] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	for id, l := range r.listings {
		if excludeID != nil && id == *excludeID {
			continue
		}
		for _, photo := range l.Photos {
			if _, ok := wanted[fraud.Fingerprint(photo)]; !ok {
				continue
			}
			signal.OverlapCount++
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				signal.ListingIDs = append(signal.ListingIDs, id)
			}
		}
	}
	return signal, nil
}

func newestFirst(a, b *domain.Listing) bool { return a.CreatedAt.After(b.CreatedAt) }
func oldestFirst(a, b *domain.Listing) bool { return a.CreatedAt.Before(b.CreatedAt) }

func (r *Repository) filterListings(keep func(*domain.Listing) bool, less func(a, b *domain.Listing) bool) []*domain.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Listing, 0)
	for _, l := range r.listings {
		if keep(l) {
			out = append(out, l.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return less(out[i], out[j])
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
