package postgres

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/fraud"
	"NaijaAuto/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type listingRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.ListingRepository = (*listingRepository)(nil)
var _ ports.ModerationRepository = (*listingRepository)(nil)

// NewListingRepository stores listings, their photos and moderation reviews.
func NewListingRepository(db *DB, baseLogger *zerolog.Logger) *listingRepository {
	return &listingRepository{
		db:  db,
		log: baseLogger.With().Str("component", "listing_repo").Logger(),
	}
}

const listingQueryCols = `
	l.id, l.seller_id, l.seller_type, l.status, l.title, l.description, l.price_ngn,
	l.year, l.make, l.model, l.body_type, l.mileage_km, l.transmission, l.fuel_type,
	l.vin, l.state, l.city, l.lat, l.lng, l.contact_phone, l.contact_whatsapp,
	l.is_featured, l.featured_until, l.approved_at, l.slug, l.created_at, l.updated_at,
	ARRAY(SELECT p.url FROM listing_photos p WHERE p.listing_id = l.id ORDER BY p.position) AS photos
`

const liveStatusPredicate = `status NOT IN ('rejected', 'archived')`

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var l domain.Listing
	var sellerType, status, bodyType, transmission, fuel string
	err := row.Scan(
		&l.ID, &l.SellerID, &sellerType, &status, &l.Title, &l.Description, &l.PriceNgn,
		&l.Year, &l.Make, &l.Model, &bodyType, &l.MileageKm, &transmission, &fuel,
		&l.VIN, &l.State, &l.City, &l.Lat, &l.Lng, &l.ContactPhone, &l.ContactWhatsapp,
		&l.IsFeatured, &l.FeaturedUntil, &l.ApprovedAt, &l.Slug, &l.CreatedAt, &l.UpdatedAt,
		&l.Photos,
	)
	if err != nil {
		return nil, err
	}
	l.SellerType = domain.SellerType(sellerType)
	l.Status = domain.ListingStatus(status)
	l.BodyType = domain.BodyType(bodyType)
	l.Transmission = domain.Transmission(transmission)
	l.FuelType = domain.FuelType(fuel)
	return &l, nil
}

func (r *listingRepository) queryListings(ctx context.Context, where string, args ...any) ([]*domain.Listing, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT `+listingQueryCols+` FROM listings l `+where, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query listings")
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *listingRepository) getListing(ctx context.Context, where string, arg any) (*domain.Listing, error) {
	l, err := scanListing(r.db.pool.QueryRow(ctx, `SELECT `+listingQueryCols+` FROM listings l `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to load listing")
		return nil, err
	}
	return l, nil
}

// replacePhotos rewrites the photo rows with their fingerprints.
func replacePhotos(ctx context.Context, tx pgx.Tx, listingID uuid.UUID, photos []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM listing_photos WHERE listing_id = $1`, listingID); err != nil {
		return err
	}
	rows := make([][]any, len(photos))
	for i, url := range photos {
		rows[i] = []any{listingID, i, url, fraud.Fingerprint(url)}
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"listing_photos"},
		[]string{"listing_id", "position", "url", "photo_hash"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (r *listingRepository) CreateListing(ctx context.Context, l *domain.Listing) error {
	query := `
		INSERT INTO listings (
			id, seller_id, seller_type, status, title, description, price_ngn,
			year, make, model, body_type, mileage_km, transmission, fuel_type,
			vin, state, city, lat, lng, contact_phone, contact_whatsapp,
			is_featured, featured_until, approved_at, slug, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)`

	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			l.ID, l.SellerID, string(l.SellerType), string(l.Status), l.Title, l.Description, l.PriceNgn,
			l.Year, l.Make, l.Model, string(l.BodyType), l.MileageKm, string(l.Transmission), string(l.FuelType),
			l.VIN, l.State, l.City, l.Lat, l.Lng, l.ContactPhone, l.ContactWhatsapp,
			l.IsFeatured, l.FeaturedUntil, l.ApprovedAt, l.Slug, l.CreatedAt, l.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return replacePhotos(ctx, tx, l.ID, l.Photos)
	})
	if err != nil {
		r.log.Warn().Err(err).Str("listing_id", l.ID.String()).Msg("Failed to insert listing")
		return conflictOr(err)
	}
	return nil
}

func (r *listingRepository) UpdateListing(ctx context.Context, l *domain.Listing) error {
	query := `
		UPDATE listings SET
			seller_type = $2, status = $3, title = $4, description = $5, price_ngn = $6,
			year = $7, make = $8, model = $9, body_type = $10, mileage_km = $11,
			transmission = $12, fuel_type = $13, vin = $14, state = $15, city = $16,
			lat = $17, lng = $18, contact_phone = $19, contact_whatsapp = $20,
			is_featured = $21, featured_until = $22, approved_at = $23, slug = $24, updated_at = $25
		WHERE id = $1`

	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query,
			l.ID, string(l.SellerType), string(l.Status), l.Title, l.Description, l.PriceNgn,
			l.Year, l.Make, l.Model, string(l.BodyType), l.MileageKm,
			string(l.Transmission), string(l.FuelType), l.VIN, l.State, l.City,
			l.Lat, l.Lng, l.ContactPhone, l.ContactWhatsapp,
			l.IsFeatured, l.FeaturedUntil, l.ApprovedAt, l.Slug, l.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: listing %s", domain.ErrNotFound, l.ID)
		}
		return replacePhotos(ctx, tx, l.ID, l.Photos)
	})
	if err != nil {
		r.log.Warn().Err(err).Str("listing_id", l.ID.String()).Msg("Failed to update listing")
		return conflictOr(err)
	}
	return nil
}

func (r *listingRepository) GetListingByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	return r.getListing(ctx, `WHERE l.id = $1`, id)
}

func (r *listingRepository) GetListingBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	return r.getListing(ctx, `WHERE l.slug = $1`, slug)
}

func (r *listingRepository) ListSellerListings(ctx context.Context, sellerID uuid.UUID) ([]*domain.Listing, error) {
	return r.queryListings(ctx, `WHERE l.seller_id = $1 ORDER BY l.created_at DESC, l.id`, sellerID)
}

func (r *listingRepository) ListListingsByStatus(ctx context.Context, status domain.ListingStatus) ([]*domain.Listing, error) {
	return r.queryListings(ctx, `WHERE l.status = $1 ORDER BY l.created_at DESC, l.id`, string(status))
}

func (r *listingRepository) GetModerationQueue(ctx context.Context) ([]*domain.Listing, error) {
	return r.queryListings(ctx, `WHERE l.status = $1 ORDER BY l.created_at ASC, l.id`, string(domain.ListingPendingReview))
}

func (r *listingRepository) HasDuplicateVin(ctx context.Context, vin string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM listings
			WHERE upper(btrim(vin)) = $1 AND ` + liveStatusPredicate + `
			  AND ($2::uuid IS NULL OR id <> $2)
		)`

	var exists bool
	if err := r.db.pool.QueryRow(ctx, query, fraud.NormalizeVIN(vin), excludeID).Scan(&exists); err != nil {
		r.log.Error().Err(err).Msg("Failed to check duplicate VIN")
		return false, err
	}
	return exists, nil
}

func (r *listingRepository) DetectDuplicateImageHashes(ctx context.Context, hashes []string, excludeID *uuid.UUID) (domain.DuplicateImageSignal, error) {
	signal := domain.DuplicateImageSignal{ListingIDs: []uuid.UUID{}}
	if len(hashes) == 0 {
		return signal, nil
	}

	query := `
		SELECT listing_id, count(*)
		FROM listing_photos
		WHERE photo_hash = ANY($1) AND ($2::uuid IS NULL OR listing_id <> $2)
		GROUP BY listing_id
		ORDER BY listing_id`

	rows, err := r.db.pool.Query(ctx, query, hashes, excludeID)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query photo fingerprints")
		return signal, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    uuid.UUID
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return signal, err
		}
		signal.OverlapCount += count
		signal.ListingIDs = append(signal.ListingIDs, id)
	}
	return signal, rows.Err()
}

// --- Moderation reviews ---

func (r *listingRepository) AddModerationReview(ctx context.Context, review *domain.ModerationReview) error {
	query := `
		INSERT INTO moderation_reviews (id, listing_id, moderator_id, action, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.pool.Exec(ctx, query,
		review.ID, review.ListingID, review.ModeratorID, string(review.Action), review.Reason, review.CreatedAt,
	)
	if err != nil {
		r.log.Error().Err(err).Str("listing_id", review.ListingID.String()).Msg("Failed to insert moderation review")
	}
	return err
}

func (r *listingRepository) ListModerationReviewsSince(ctx context.Context, since time.Time) ([]*domain.ModerationReview, error) {
	query := `
		SELECT id, listing_id, moderator_id, action, reason, created_at
		FROM moderation_reviews
		WHERE created_at >= $1
		ORDER BY created_at`

	rows, err := r.db.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.ModerationReview, 0)
	for rows.Next() {
		var (
			rv     domain.ModerationReview
			action string
		)
		if err := rows.Scan(&rv.ID, &rv.ListingID, &rv.ModeratorID, &action, &rv.Reason, &rv.CreatedAt); err != nil {
			return nil, err
		}
		rv.Action = domain.ModerationAction(action)
		out = append(out, &rv)
	}
	return out, rows.Err()
}
