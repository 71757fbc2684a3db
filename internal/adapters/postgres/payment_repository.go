package postgres

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type paymentRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.PaymentRepository = (*paymentRepository)(nil)

func NewPaymentRepository(db *DB, baseLogger *zerolog.Logger) *paymentRepository {
	return &paymentRepository{
		db:  db,
		log: baseLogger.With().Str("component", "payment_repo").Logger(),
	}
}

const paymentQueryCols = `
	id, listing_id, seller_id, package_code, amount_ngn, provider, reference, status,
	webhook_event_id, provider_transaction_id, created_at, paid_at
`

func scanPayment(row pgx.Row) (*domain.PaymentTransaction, error) {
	var (
		tx     domain.PaymentTransaction
		status string
	)
	err := row.Scan(
		&tx.ID, &tx.ListingID, &tx.SellerID, &tx.PackageCode, &tx.AmountNgn, &tx.Provider, &tx.Reference, &status,
		&tx.WebhookEventID, &tx.ProviderTransactionID, &tx.CreatedAt, &tx.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Status = domain.PaymentStatus(status)
	return &tx, nil
}

func (r *paymentRepository) CreatePaymentTransaction(ctx context.Context, tx *domain.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (
			id, listing_id, seller_id, package_code, amount_ngn, provider, reference, status,
			webhook_event_id, provider_transaction_id, created_at, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.pool.Exec(ctx, query,
		tx.ID, tx.ListingID, tx.SellerID, tx.PackageCode, tx.AmountNgn, tx.Provider, tx.Reference, string(tx.Status),
		tx.WebhookEventID, tx.ProviderTransactionID, tx.CreatedAt, tx.PaidAt,
	)
	if err != nil {
		r.log.Error().Err(err).Str("reference", tx.Reference).Msg("Failed to insert payment transaction")
		return conflictOr(err)
	}
	return nil
}

func (r *paymentRepository) getPayment(ctx context.Context, where string, arg any) (*domain.PaymentTransaction, error) {
	tx, err := scanPayment(r.db.pool.QueryRow(ctx, `SELECT `+paymentQueryCols+` FROM payment_transactions `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return tx, err
}

func (r *paymentRepository) GetPaymentByReference(ctx context.Context, reference string) (*domain.PaymentTransaction, error) {
	return r.getPayment(ctx, `WHERE reference = $1`, reference)
}

func (r *paymentRepository) GetPaymentByWebhookEventID(ctx context.Context, eventID string) (*domain.PaymentTransaction, error) {
	return r.getPayment(ctx, `WHERE webhook_event_id = $1`, eventID)
}

// MarkPaymentPaid is a conditional update: only a row that is not yet paid
// moves, so concurrent deliveries cannot both succeed.
func (r *paymentRepository) MarkPaymentPaid(ctx context.Context, params domain.MarkPaidParams) (*domain.PaymentTransaction, error) {
	query := `
		UPDATE payment_transactions SET
			status = $2, webhook_event_id = $3, provider_transaction_id = $4, paid_at = $5
		WHERE reference = $1 AND status <> $2
		RETURNING ` + paymentQueryCols

	tx, err := scanPayment(r.db.pool.QueryRow(ctx, query,
		params.Reference, string(domain.PaymentPaid), params.WebhookEventID, params.ProviderTransactionID, params.PaidAt,
	))
	if err == nil {
		r.log.Info().Str("reference", params.Reference).Str("event_id", params.WebhookEventID).Msg("Payment marked paid")
		return tx, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.log.Warn().Err(err).Str("reference", params.Reference).Msg("Failed to mark payment paid")
		return nil, conflictOr(err)
	}

	existing, err := r.GetPaymentByReference(ctx, params.Reference)
	if err != nil {
		return nil, fmt.Errorf("reload payment: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	return nil, domain.ErrAlreadyPaid
}
