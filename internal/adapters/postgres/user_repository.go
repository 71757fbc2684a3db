package postgres

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type userRepository struct {
	db     *DB
	cipher ports.FieldCipher
	log    zerolog.Logger
}

var _ ports.UserRepository = (*userRepository)(nil)
var _ ports.SellerProfileRepository = (*userRepository)(nil)

// NewUserRepository stores users and their seller onboarding records.
// Phone numbers are encrypted before they are written.
func NewUserRepository(db *DB, cipher ports.FieldCipher, baseLogger *zerolog.Logger) *userRepository {
	return &userRepository{
		db:     db,
		cipher: cipher,
		log:    baseLogger.With().Str("component", "user_repo").Logger(),
	}
}

const userQueryCols = `id, role, seller_type, email, phone, phone_verified, created_at, updated_at`

func (r *userRepository) encryptPhone(phone *string) (*string, error) {
	if phone == nil {
		return nil, nil
	}
	enc, err := r.cipher.EncryptString(*phone)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encrypt phone number")
		return nil, err
	}
	return &enc, nil
}

// scanUser scans a user row and decrypts the phone.
func (r *userRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user       domain.User
		role       string
		sellerType *string
		encPhone   *string
	)
	err := row.Scan(&user.ID, &role, &sellerType, &user.Email, &encPhone, &user.PhoneVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.log.Error().Err(err).Msg("Failed to scan user row")
		}
		return nil, err
	}

	user.Role = domain.UserRole(role)
	if sellerType != nil {
		st := domain.SellerType(*sellerType)
		user.SellerType = &st
	}
	if encPhone != nil {
		phone, err := r.cipher.DecryptString(*encPhone)
		if err != nil {
			r.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to decrypt phone number")
			return nil, err
		}
		user.Phone = &phone
	}
	return &user, nil
}

func (r *userRepository) UpsertUser(ctx context.Context, in domain.UserUpsert) (*domain.User, error) {
	encPhone, err := r.encryptPhone(in.Phone)
	if err != nil {
		return nil, err
	}
	var sellerType *string
	if in.SellerType != nil {
		st := string(*in.SellerType)
		sellerType = &st
	}

	query := `
		INSERT INTO users (id, role, seller_type, email, phone, phone_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			role = EXCLUDED.role,
			seller_type = COALESCE(EXCLUDED.seller_type, users.seller_type),
			email = COALESCE(EXCLUDED.email, users.email),
			phone = COALESCE(EXCLUDED.phone, users.phone),
			phone_verified = users.phone_verified OR EXCLUDED.phone_verified,
			updated_at = now()
		RETURNING ` + userQueryCols

	user, err := r.scanUser(r.db.pool.QueryRow(ctx, query,
		in.ID, string(in.Role), sellerType, in.Email, encPhone, in.PhoneVerified,
	))
	if err != nil {
		r.log.Error().Err(err).Str("user_id", in.ID.String()).Msg("Failed to upsert user")
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userQueryCols + ` FROM users WHERE id = $1`

	user, err := r.scanUser(r.db.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (r *userRepository) MarkPhoneVerified(ctx context.Context, userID uuid.UUID, phone string) (*domain.User, error) {
	encPhone, err := r.encryptPhone(&phone)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE users SET phone = $2, phone_verified = TRUE, updated_at = now()
		WHERE id = $1
		RETURNING ` + userQueryCols

	user, err := r.scanUser(r.db.pool.QueryRow(ctx, query, userID, encPhone))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.log.Info().Str("user_id", userID.String()).Msg("Phone marked verified")
	return user, nil
}

// --- Seller onboarding ---

func (r *userRepository) GetSellerProfile(ctx context.Context, userID uuid.UUID) (*domain.SellerProfile, error) {
	query := `
		SELECT user_id, full_name, state, city, bio, created_at, updated_at
		FROM seller_profiles WHERE user_id = $1`

	var p domain.SellerProfile
	err := r.db.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.FullName, &p.State, &p.City, &p.Bio, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get seller profile: %w", err)
	}
	return &p, nil
}

func (r *userRepository) UpsertSellerProfile(ctx context.Context, profile *domain.SellerProfile) (*domain.SellerProfile, error) {
	query := `
		INSERT INTO seller_profiles (user_id, full_name, state, city, bio)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			state = EXCLUDED.state,
			city = EXCLUDED.city,
			bio = EXCLUDED.bio,
			updated_at = now()
		RETURNING user_id, full_name, state, city, bio, created_at, updated_at`

	var p domain.SellerProfile
	err := r.db.pool.QueryRow(ctx, query, profile.UserID, profile.FullName, profile.State, profile.City, profile.Bio).Scan(
		&p.UserID, &p.FullName, &p.State, &p.City, &p.Bio, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", profile.UserID.String()).Msg("Failed to upsert seller profile")
		return nil, err
	}
	return &p, nil
}

const dealerQueryCols = `user_id, business_name, cac_number, address, verified, created_at, updated_at`

func scanDealer(row pgx.Row) (*domain.DealerProfile, error) {
	var d domain.DealerProfile
	err := row.Scan(&d.UserID, &d.BusinessName, &d.CacNumber, &d.Address, &d.Verified, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *userRepository) GetDealerProfile(ctx context.Context, userID uuid.UUID) (*domain.DealerProfile, error) {
	query := `SELECT ` + dealerQueryCols + ` FROM dealer_profiles WHERE user_id = $1`

	d, err := scanDealer(r.db.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dealer profile: %w", err)
	}
	return d, nil
}

// UpsertDealerProfile never touches the verified flag; verification is an
// admin action.
func (r *userRepository) UpsertDealerProfile(ctx context.Context, profile *domain.DealerProfile) (*domain.DealerProfile, error) {
	query := `
		INSERT INTO dealer_profiles (user_id, business_name, cac_number, address)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			cac_number = EXCLUDED.cac_number,
			address = EXCLUDED.address,
			updated_at = now()
		RETURNING ` + dealerQueryCols

	d, err := scanDealer(r.db.pool.QueryRow(ctx, query, profile.UserID, profile.BusinessName, profile.CacNumber, profile.Address))
	if err != nil {
		r.log.Error().Err(err).Str("user_id", profile.UserID.String()).Msg("Failed to upsert dealer profile")
		return nil, err
	}
	return d, nil
}

func (r *userRepository) DeleteDealerProfile(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM dealer_profiles WHERE user_id = $1`, userID)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to delete dealer profile")
	}
	return err
}
