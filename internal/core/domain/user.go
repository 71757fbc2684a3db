package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is a custom type for our role ENUM
type UserRole string

const (
	RoleBuyer      UserRole = "buyer"
	RoleSeller     UserRole = "seller"
	RoleModerator  UserRole = "moderator"
	RoleSuperAdmin UserRole = "super_admin"
)

// SellerType distinguishes dealer accounts from private sellers.
type SellerType string

const (
	SellerDealer  SellerType = "dealer"
	SellerPrivate SellerType = "private"
)

// User represents a marketplace account.
// It is upserted on every authenticated action and never deleted.
type User struct {
	ID            uuid.UUID
	Role          UserRole
	SellerType    *SellerType // Nullable
	Email         *string     // Nullable
	Phone         *string     // Encrypted at rest
	PhoneVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Actor is the caller identity handed to the core by the session layer.
type Actor struct {
	ID            uuid.UUID
	Role          UserRole
	SellerType    *SellerType
	Email         *string
	PhoneVerified bool
}

// HasRole reports whether the actor holds one of the given roles.
func (a *Actor) HasRole(roles ...UserRole) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// UserUpsert carries the fields written by an idempotent user upsert.
// Nil fields keep whatever is already stored.
type UserUpsert struct {
	ID            uuid.UUID
	Role          UserRole
	SellerType    *SellerType
	Email         *string
	Phone         *string
	PhoneVerified bool
}
