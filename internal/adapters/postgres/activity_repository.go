package postgres

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type activityRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.ActivityRepository = (*activityRepository)(nil)

// NewActivityRepository stores favorites, contact clicks, notifications and the audit trail.
func NewActivityRepository(db *DB, baseLogger *zerolog.Logger) *activityRepository {
	return &activityRepository{
		db:  db,
		log: baseLogger.With().Str("component", "activity_repo").Logger(),
	}
}

func (r *activityRepository) AddFavorite(ctx context.Context, fav *domain.Favorite) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO favorites (user_id, listing_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, listing_id) DO NOTHING`,
		fav.UserID, fav.ListingID, fav.CreatedAt,
	)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", fav.UserID.String()).Msg("Failed to add favorite")
	}
	return err
}

func (r *activityRepository) RemoveFavorite(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2`, userID, listingID)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to remove favorite")
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *activityRepository) ListFavoritesByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Favorite, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT user_id, listing_id, created_at FROM favorites
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Favorite, 0)
	for rows.Next() {
		var f domain.Favorite
		if err := rows.Scan(&f.UserID, &f.ListingID, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (r *activityRepository) AddContactEvent(ctx context.Context, e *domain.ListingContactEvent) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO listing_contact_events (id, listing_id, channel, user_id, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ListingID, string(e.Channel), e.UserID, e.IP, e.UserAgent, e.CreatedAt,
	)
	if err != nil {
		r.log.Error().Err(err).Str("listing_id", e.ListingID.String()).Msg("Failed to record contact event")
	}
	return err
}

func (r *activityRepository) ListContactEventsByListingSince(ctx context.Context, listingID uuid.UUID, since time.Time) ([]*domain.ListingContactEvent, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, listing_id, channel, user_id, ip, user_agent, created_at
		FROM listing_contact_events
		WHERE listing_id = $1 AND created_at >= $2
		ORDER BY created_at`, listingID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.ListingContactEvent, 0)
	for rows.Next() {
		var (
			e       domain.ListingContactEvent
			channel string
		)
		if err := rows.Scan(&e.ID, &e.ListingID, &channel, &e.UserID, &e.IP, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Channel = domain.ContactChannel(channel)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *activityRepository) AddNotification(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, title, body, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.UserID, n.Title, n.Body, n.ReadAt, n.CreatedAt,
	)
	return err
}

func (r *activityRepository) ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, user_id, title, body, read_at, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *activityRepository) AddAuditLog(ctx context.Context, entry *domain.AuditLog) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, actor_user_id, entity_type, entity_id, action, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ActorUserID, entry.EntityType, entry.EntityID, entry.Action, metadata, entry.CreatedAt,
	)
	return err
}

func (r *activityRepository) ListAuditLogs(ctx context.Context) ([]*domain.AuditLog, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, actor_user_id, entity_type, entity_id, action, metadata, created_at
		FROM audit_logs ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.AuditLog, 0)
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.ActorUserID, &a.EntityType, &a.EntityID, &a.Action, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
