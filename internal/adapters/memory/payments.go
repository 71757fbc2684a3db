package memory

import (
	"NaijaAuto/internal/core/domain"
	"context"
	"fmt"
)

func (r *Repository) CreatePaymentTransaction(ctx context.Context, tx *domain.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[tx.Reference]; exists {
		return fmt.Errorf("%w: payment reference %s already exists", domain.ErrConflict, tx.Reference)
	}
	r.payments[tx.Reference] = clonePayment(tx)
	return nil
}

func (r *Repository) GetPaymentByReference(ctx context.Context, reference string) (*domain.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clonePayment(r.payments[reference]), nil
}

func (r *Repository) GetPaymentByWebhookEventID(ctx context.Context, eventID string) (*domain.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tx := range r.payments {
		if tx.WebhookEventID != nil && *tx.WebhookEventID == eventID {
			return clonePayment(tx), nil
		}
	}
	return nil, nil
}

// MarkPaymentPaid flips initiated -> paid under the write lock, which makes
// the transition a compare-and-swap.
func (r *Repository) MarkPaymentPaid(ctx context.Context, params domain.MarkPaidParams) (*domain.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.payments[params.Reference]
	if !ok {
		return nil, nil
	}
	if tx.Status == domain.PaymentPaid {
		return nil, domain.ErrAlreadyPaid
	}
	for ref, other := range r.payments {
		if ref != params.Reference && other.WebhookEventID != nil && *other.WebhookEventID == params.WebhookEventID {
			return nil, fmt.Errorf("%w: webhook event %s already consumed", domain.ErrConflict, params.WebhookEventID)
		}
	}

	eventID := params.WebhookEventID
	providerTxID := params.ProviderTransactionID
	paidAt := params.PaidAt

	tx.Status = domain.PaymentPaid
	tx.WebhookEventID = &eventID
	tx.ProviderTransactionID = &providerTxID
	tx.PaidAt = &paidAt
	return clonePayment(tx), nil
}

func clonePayment(tx *domain.PaymentTransaction) *domain.PaymentTransaction {
	if tx == nil {
		return nil
	}
	c := *tx
	c.WebhookEventID = clonePtr(tx.WebhookEventID)
	c.ProviderTransactionID = clonePtr(tx.ProviderTransactionID)
	c.PaidAt = clonePtr(tx.PaidAt)
	return &c
}
