package domain

import (
	"time"

	"github.com/google/uuid"
)

// ListingStatus is a custom type for our lifecycle ENUM
type ListingStatus string

const (
	ListingDraft         ListingStatus = "draft"
	ListingPendingReview ListingStatus = "pending_review"
	ListingApproved      ListingStatus = "approved"
	ListingRejected      ListingStatus = "rejected"
	// Archived and Sold are reserved; no transition sets them yet.
	ListingArchived ListingStatus = "archived"
	ListingSold     ListingStatus = "sold"
)

// IsLive reports whether a listing in this status still claims its VIN.
func (s ListingStatus) IsLive() bool {
	return s != ListingRejected && s != ListingArchived
}

type BodyType string

const (
	BodyCar    BodyType = "car"
	BodySUV    BodyType = "suv"
	BodyPickup BodyType = "pickup"
)

type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelHybrid   FuelType = "hybrid"
	FuelElectric FuelType = "electric"
)

type Transmission string

const (
	TransmissionAutomatic Transmission = "automatic"
	TransmissionManual    Transmission = "manual"
)

// Listing is a vehicle offered for sale.
type Listing struct {
	ID              uuid.UUID
	SellerID        uuid.UUID
	SellerType      SellerType
	Status          ListingStatus
	Title           string
	Description     string
	PriceNgn        int64
	Year            int
	Make            string
	Model           string
	BodyType        BodyType
	MileageKm       int
	Transmission    Transmission
	FuelType        FuelType
	VIN             string
	State           string
	City            string
	Lat             float64
	Lng             float64
	Photos          []string
	ContactPhone    string
	ContactWhatsapp string
	IsFeatured      bool
	FeaturedUntil   *time.Time // Nullable
	ApprovedAt      *time.Time // Nullable
	Slug            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy so stores never share the photo slice with callers.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.Photos = append([]string(nil), l.Photos...)
	if l.FeaturedUntil != nil {
		t := *l.FeaturedUntil
		c.FeaturedUntil = &t
	}
	if l.ApprovedAt != nil {
		t := *l.ApprovedAt
		c.ApprovedAt = &t
	}
	return &c
}

// IsFeaturedAt reports whether the featured window is still open at now.
func (l *Listing) IsFeaturedAt(now time.Time) bool {
	return l.IsFeatured && l.FeaturedUntil != nil && l.FeaturedUntil.After(now)
}

// DuplicateImageSignal is the result of a photo fingerprint overlap scan.
type DuplicateImageSignal struct {
	OverlapCount int
	ListingIDs   []uuid.UUID
}

// ListingFilter holds the search constraints applied to approved listings.
type ListingFilter struct {
	Query       string
	Make        string
	Model       string
	State       string
	City        string
	BodyType    BodyType
	MinPriceNgn *int64
	MaxPriceNgn *int64
	MinYear     *int
	MaxYear     *int
	Page        int
	PageSize    int
}

// SearchResult is one page of ranked listings.
type SearchResult struct {
	Items    []*Listing
	Total    int
	Page     int
	PageSize int
}
