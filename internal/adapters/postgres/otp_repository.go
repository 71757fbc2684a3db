package postgres

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type otpRepository struct {
	db     *DB
	cipher ports.FieldCipher
	log    zerolog.Logger
}

var _ ports.OtpRepository = (*otpRepository)(nil)

// NewOtpRepository stores phone challenges. The phone is kept encrypted;
// lookups go through a digest column.
func NewOtpRepository(db *DB, cipher ports.FieldCipher, baseLogger *zerolog.Logger) *otpRepository {
	return &otpRepository{
		db:     db,
		cipher: cipher,
		log:    baseLogger.With().Str("component", "otp_repo").Logger(),
	}
}

func phoneDigest(phone string) string {
	sum := sha256.Sum256([]byte(phone))
	return hex.EncodeToString(sum[:])
}

const otpQueryCols = `id, user_id, phone, code_hash, expires_at, attempts, max_attempts, verified_at, created_at`

func (r *otpRepository) scanOtp(row pgx.Row) (*domain.OtpVerification, error) {
	var (
		o        domain.OtpVerification
		encPhone string
	)
	err := row.Scan(&o.ID, &o.UserID, &encPhone, &o.CodeHash, &o.ExpiresAt, &o.Attempts, &o.MaxAttempts, &o.VerifiedAt, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if o.Phone, err = r.cipher.DecryptString(encPhone); err != nil {
		r.log.Error().Err(err).Str("otp_id", o.ID.String()).Msg("Failed to decrypt OTP phone")
		return nil, err
	}
	return &o, nil
}

func (r *otpRepository) CreateOtp(ctx context.Context, otp *domain.OtpVerification) error {
	encPhone, err := r.cipher.EncryptString(otp.Phone)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO otp_verifications (
			id, user_id, phone, phone_digest, code_hash, expires_at, attempts, max_attempts, verified_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.pool.Exec(ctx, query,
		otp.ID, otp.UserID, encPhone, phoneDigest(otp.Phone), otp.CodeHash,
		otp.ExpiresAt, otp.Attempts, otp.MaxAttempts, otp.VerifiedAt, otp.CreatedAt,
	)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", otp.UserID.String()).Msg("Failed to insert OTP")
	}
	return err
}

func (r *otpRepository) GetLatestOtp(ctx context.Context, userID uuid.UUID, phone string) (*domain.OtpVerification, error) {
	query := `SELECT ` + otpQueryCols + ` FROM otp_verifications
		WHERE user_id = $1 AND phone_digest = $2
		ORDER BY created_at DESC
		LIMIT 1`

	o, err := r.scanOtp(r.db.pool.QueryRow(ctx, query, userID, phoneDigest(phone)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *otpRepository) ReserveOtpAttempt(ctx context.Context, id uuid.UUID) (*domain.OtpVerification, error) {
	query := `UPDATE otp_verifications SET attempts = attempts + 1
		WHERE id = $1 AND attempts < max_attempts
		RETURNING ` + otpQueryCols

	o, err := r.scanOtp(r.db.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *otpRepository) MarkOtpVerified(ctx context.Context, id uuid.UUID, at time.Time) (*domain.OtpVerification, error) {
	query := `UPDATE otp_verifications SET verified_at = $2 WHERE id = $1 RETURNING ` + otpQueryCols

	o, err := r.scanOtp(r.db.pool.QueryRow(ctx, query, id, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}
