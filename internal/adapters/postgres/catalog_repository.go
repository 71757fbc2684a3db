package postgres

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type catalogRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.CatalogRepository = (*catalogRepository)(nil)

func NewCatalogRepository(db *DB, baseLogger *zerolog.Logger) *catalogRepository {
	return &catalogRepository{
		db:  db,
		log: baseLogger.With().Str("component", "catalog_repo").Logger(),
	}
}

func (r *catalogRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT state, city, lat, lng FROM locations ORDER BY state, city`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Location, 0)
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.State, &loc.City, &loc.Lat, &loc.Lng); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (r *catalogRepository) GetLocation(ctx context.Context, state, city string) (*domain.Location, error) {
	var loc domain.Location
	err := r.db.pool.QueryRow(ctx, `
		SELECT state, city, lat, lng FROM locations
		WHERE lower(state) = lower($1) AND lower(city) = lower($2)`, state, city,
	).Scan(&loc.State, &loc.City, &loc.Lat, &loc.Lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *catalogRepository) AddLocation(ctx context.Context, loc domain.Location) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO locations (state, city, lat, lng) VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`, loc.State, loc.City, loc.Lat, loc.Lng)
	if err != nil {
		r.log.Error().Err(err).Str("city", loc.City).Msg("Failed to add location")
	}
	return err
}

const packageQueryCols = `id, code, name, duration_days, amount_ngn, is_active, created_at`

func scanPackage(row pgx.Row) (*domain.FeaturedPackage, error) {
	var p domain.FeaturedPackage
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.DurationDays, &p.AmountNgn, &p.IsActive, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepository) ListFeaturedPackages(ctx context.Context) ([]*domain.FeaturedPackage, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT `+packageQueryCols+` FROM featured_packages
		WHERE is_active ORDER BY duration_days, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.FeaturedPackage, 0)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *catalogRepository) GetFeaturedPackageByCode(ctx context.Context, code string) (*domain.FeaturedPackage, error) {
	p, err := scanPackage(r.db.pool.QueryRow(ctx, `SELECT `+packageQueryCols+` FROM featured_packages
		WHERE code = $1 AND is_active`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *catalogRepository) AddFeaturedPackage(ctx context.Context, pkg *domain.FeaturedPackage) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO featured_packages (id, code, name, duration_days, amount_ngn, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO NOTHING`,
		pkg.ID, pkg.Code, pkg.Name, pkg.DurationDays, pkg.AmountNgn, pkg.IsActive,
	)
	if err != nil {
		r.log.Error().Err(err).Str("code", pkg.Code).Msg("Failed to add featured package")
	}
	return err
}
