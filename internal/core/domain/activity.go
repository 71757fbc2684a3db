package domain

import (
	"time"

	"github.com/google/uuid"
)

// Favorite is keyed by (UserID, ListingID).
type Favorite struct {
	UserID    uuid.UUID
	ListingID uuid.UUID
	CreatedAt time.Time
}

type ContactChannel string

const (
	ChannelPhone    ContactChannel = "phone"
	ChannelWhatsapp ContactChannel = "whatsapp"
)

// ListingContactEvent records a buyer revealing a seller contact channel.
type ListingContactEvent struct {
	ID        uuid.UUID
	ListingID uuid.UUID
	Channel   ContactChannel
	UserID    *uuid.UUID // Nullable, anonymous buyers
	IP        *string
	UserAgent *string
	CreatedAt time.Time
}

// ContactMeta carries request details captured with a contact click.
type ContactMeta struct {
	IP        string
	UserAgent string
}

// Notification is stored for the user; nothing pushes it.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Body      string
	ReadAt    *time.Time
	CreatedAt time.Time
}

// AuditLog is an append-only trail entry.
type AuditLog struct {
	ID          uuid.UUID
	ActorUserID *uuid.UUID // Nullable for system actions
	EntityType  string
	EntityID    string
	Action      string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// Location is static seed data.
type Location struct {
	State string
	City  string
	Lat   float64
	Lng   float64
}

// SellerDashboard is the seller's home view.
type SellerDashboard struct {
	Listings       []*Listing
	Notifications  []*Notification
	FavoritesCount int
	// ContactClicks counts contact reveals per listing over the recent window.
	// Listings without clicks are absent.
	ContactClicks map[uuid.UUID]int
}
