// Package postgres is the durable Repository backed by pgx.
package postgres

import (
	"NaijaAuto/internal/core/ports"

	"github.com/rs/zerolog"
)

// Store composes the per-entity repositories into ports.Repository.
type Store struct {
	*userRepository
	*otpRepository
	*listingRepository
	*activityRepository
	*catalogRepository
	*paymentRepository
}

var _ ports.Repository = (*Store)(nil) // Ensure compliance

func NewStore(db *DB, cipher ports.FieldCipher, baseLogger *zerolog.Logger) *Store {
	return &Store{
		userRepository:     NewUserRepository(db, cipher, baseLogger),
		otpRepository:      NewOtpRepository(db, cipher, baseLogger),
		listingRepository:  NewListingRepository(db, baseLogger),
		activityRepository: NewActivityRepository(db, baseLogger),
		catalogRepository:  NewCatalogRepository(db, baseLogger),
		paymentRepository:  NewPaymentRepository(db, baseLogger),
	}
}
