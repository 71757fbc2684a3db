package services

import (
	"NaijaAuto/internal/core/domain"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const (
	OtpTTL         = 10 * time.Minute
	OtpMaxAttempts = 5
)

// OtpSent is returned by SendPhoneOtp. DebugCode is only set outside production.
type OtpSent struct {
	Phone     string `json:"phone"`
	MessageID string `json:"messageId"`
	DebugCode string `json:"debugCode,omitempty"`
}

// OtpVerified is returned by VerifyPhoneOtp.
type OtpVerified struct {
	Verified bool   `json:"verified"`
	Phone    string `json:"phone"`
}

// SendPhoneOtp issues a 6-digit code, stores its hash and hands the code to the SMS provider.
func (s *MarketplaceService) SendPhoneOtp(ctx context.Context, actor *domain.Actor, payload []byte) (*OtpSent, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.upsertActor(ctx, actor); err != nil {
		return nil, err
	}

	var in sendOtpInput
	if err := s.decode(payload, &in); err != nil {
		return nil, err
	}

	code, err := sixDigitCode()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to generate OTP")
		return nil, domain.NewError(domain.ErrInternal, "Internal server error.")
	}

	now := s.now()
	otp := &domain.OtpVerification{
		ID:          uuid.New(),
		UserID:      actor.ID,
		Phone:       in.Phone,
		CodeHash:    hashCode(code),
		ExpiresAt:   now.Add(OtpTTL),
		MaxAttempts: OtpMaxAttempts,
		CreatedAt:   now,
	}
	if err := s.repo.CreateOtp(ctx, otp); err != nil {
		return nil, s.storeErr(err)
	}

	sent, err := s.sms.SendOtp(ctx, in.Phone, code)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", actor.ID.String()).Msg("SMS provider failed to send OTP")
		return nil, domain.NewError(domain.ErrUpstream, "Unable to send verification code.")
	}

	s.audit(ctx, &actor.ID, "otp_verifications", otp.ID.String(), "phone_otp_sent", map[string]any{
		"phone":          in.Phone,
		"mockedProvider": sent.Mocked,
	})

	out := &OtpSent{Phone: in.Phone, MessageID: sent.MessageID}
	if !s.settings.Production {
		out.DebugCode = code
	}
	return out, nil
}

var errOtpExhausted = domain.NewError(domain.ErrTooManyAttempts, "Too many OTP attempts. Request a new code.")

// VerifyPhoneOtp checks a code against the latest challenge for (user, phone).
// Expiry and the attempt budget are checked before the code is compared.
func (s *MarketplaceService) VerifyPhoneOtp(ctx context.Context, actor *domain.Actor, payload []byte) (*OtpVerified, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.upsertActor(ctx, actor); err != nil {
		return nil, err
	}

	var in verifyOtpInput
	if err := s.decode(payload, &in); err != nil {
		return nil, err
	}

	otp, err := s.repo.GetLatestOtp(ctx, actor.ID, in.Phone)
	if err != nil {
		return nil, s.storeErr(err)
	}
	if otp == nil {
		return nil, domain.NewError(domain.ErrNotFound, "OTP request was not found for this phone number.")
	}
	if otp.VerifiedAt != nil {
		return &OtpVerified{Verified: true, Phone: otp.Phone}, nil
	}

	now := s.now()
	if now.After(otp.ExpiresAt) {
		return nil, domain.NewError(domain.ErrValidation, "OTP has expired. Please request a new code.")
	}
	if otp.Exhausted() {
		return nil, errOtpExhausted
	}

	// Every comparison is paid for up front so parallel guesses share one budget.
	reserved, err := s.repo.ReserveOtpAttempt(ctx, otp.ID)
	if err != nil {
		return nil, s.storeErr(err)
	}
	if reserved == nil {
		return nil, errOtpExhausted
	}

	if !codeMatches(otp.CodeHash, in.Code) {
		s.log.Warn().Str("user_id", actor.ID.String()).Int("attempts", reserved.Attempts).Msg("Invalid OTP code")
		return nil, domain.NewError(domain.ErrValidation, "Invalid OTP code.")
	}

	if _, err := s.repo.MarkOtpVerified(ctx, otp.ID, now); err != nil {
		return nil, s.storeErr(err)
	}
	if _, err := s.repo.MarkPhoneVerified(ctx, actor.ID, in.Phone); err != nil {
		return nil, s.storeErr(err)
	}

	s.audit(ctx, &actor.ID, "users", actor.ID.String(), "phone_verified", map[string]any{
		"phone": in.Phone,
	})
	return &OtpVerified{Verified: true, Phone: in.Phone}, nil
}

func sixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func codeMatches(storedHash, code string) bool {
	stored, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	provided := sha256.Sum256([]byte(code))
	return subtle.ConstantTimeCompare(stored, provided[:]) == 1
}
