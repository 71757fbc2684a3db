package memory

import (
	"NaijaAuto/internal/core/domain"
	"context"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// --- Favorites ---

func (r *Repository) AddFavorite(ctx context.Context, fav *domain.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := favoriteKey{userID: fav.UserID, listingID: fav.ListingID}
	if _, ok := r.favorites[key]; ok {
		return nil
	}
	c := *fav
	r.favorites[key] = &c
	return nil
}

func (r *Repository) RemoveFavorite(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := favoriteKey{userID: userID, listingID: listingID}
	if _, ok := r.favorites[key]; !ok {
		return false, nil
	}
	delete(r.favorites, key)
	return true, nil
}

func (r *Repository) ListFavoritesByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Favorite, 0)
	for key, f := range r.favorites {
		if key.userID == userID {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- Contact events ---

func (r *Repository) AddContactEvent(ctx context.Context, event *domain.ListingContactEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *event
	c.UserID = clonePtr(event.UserID)
	c.IP = clonePtr(event.IP)
	c.UserAgent = clonePtr(event.UserAgent)
	r.contactEvents = append(r.contactEvents, &c)
	return nil
}

func (r *Repository) ListContactEventsByListingSince(ctx context.Context, listingID uuid.UUID, since time.Time) ([]*domain.ListingContactEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ListingContactEvent, 0)
	for _, e := range r.contactEvents {
		if e.ListingID == listingID && !e.CreatedAt.Before(since) {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// --- Notifications ---

func (r *Repository) AddNotification(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *n
	c.ReadAt = clonePtr(n.ReadAt)
	r.notifications = append(r.notifications, &c)
	return nil
}

func (r *Repository) ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Notification, 0)
	for _, n := range r.notifications {
		if n.UserID == userID {
			c := *n
			c.ReadAt = clonePtr(n.ReadAt)
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- Audit log ---

func (r *Repository) AddAuditLog(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *entry
	c.ActorUserID = clonePtr(entry.ActorUserID)
	c.Metadata = maps.Clone(entry.Metadata)
	r.auditLogs = append(r.auditLogs, &c)
	return nil
}

func (r *Repository) ListAuditLogs(ctx context.Context) ([]*domain.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.AuditLog, len(r.auditLogs))
	for i, e := range r.auditLogs {
		c := *e
		c.Metadata = maps.Clone(e.Metadata)
		out[i] = &c
	}
	return out, nil
}

// --- Catalog ---

func (r *Repository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]domain.Location(nil), r.locations...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		return out[i].City < out[j].City
	})
	return out, nil
}

func (r *Repository) GetLocation(ctx context.Context, state, city string) (*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, loc := range r.locations {
		if strings.EqualFold(loc.State, state) && strings.EqualFold(loc.City, city) {
			l := loc
			return &l, nil
		}
	}
	return nil, nil
}

func (r *Repository) AddLocation(ctx context.Context, loc domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.locations {
		if strings.EqualFold(existing.State, loc.State) && strings.EqualFold(existing.City, loc.City) {
			return nil
		}
	}
	r.locations = append(r.locations, loc)
	return nil
}

func (r *Repository) ListFeaturedPackages(ctx context.Context) ([]*domain.FeaturedPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.FeaturedPackage, 0, len(r.packages))
	for _, p := range r.packages {
		if p.IsActive {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DurationDays < out[j].DurationDays })
	return out, nil
}

func (r *Repository) GetFeaturedPackageByCode(ctx context.Context, code string) (*domain.FeaturedPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.packages[code]
	if !ok || !p.IsActive {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *Repository) AddFeaturedPackage(ctx context.Context, pkg *domain.FeaturedPackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.packages[pkg.Code]; ok {
		return nil
	}
	c := *pkg
	r.packages[pkg.Code] = &c
	return nil
}
