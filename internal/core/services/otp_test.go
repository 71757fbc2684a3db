package services

import (
	"NaijaAuto/internal/adapters/memory"
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const phone = "+2348012345678"

func unverifiedSeller() *domain.Actor {
	return &domain.Actor{ID: uuid.New(), Role: domain.RoleSeller}
}

func (f *fixture) sendOtp(t *testing.T, actor *domain.Actor) *OtpSent {
	t.Helper()
	f.sms.On("SendOtp", mock.Anything, phone, mock.AnythingOfType("string")).
		Return(ports.SmsResult{MessageID: "termii-1", Mocked: true}, nil)

	sent, err := f.svc.SendPhoneOtp(f.ctx, actor, mustJSON(t, map[string]string{"phone": phone}))
	require.NoError(t, err)
	return sent
}

func verifyBody(t *testing.T, code string) []byte {
	return mustJSON(t, map[string]string{"phone": phone, "code": code})
}

func TestOtp_SendAndVerify(t *testing.T) {
	f := newFixture(t)
	actor := unverifiedSeller()

	sent := f.sendOtp(t, actor)
	assert.Equal(t, phone, sent.Phone)
	assert.Equal(t, "termii-1", sent.MessageID)
	require.Len(t, sent.DebugCode, 6)

	otp, err := f.repo.GetLatestOtp(f.ctx, actor.ID, phone)
	require.NoError(t, err)
	assert.NotEqual(t, sent.DebugCode, otp.CodeHash, "only the hash is stored")
	assert.Equal(t, t0.Add(OtpTTL), otp.ExpiresAt)
	assert.Equal(t, OtpMaxAttempts, otp.MaxAttempts)
	f.sms.AssertCalled(t, "SendOtp", mock.Anything, phone, sent.DebugCode)

	res, err := f.svc.VerifyPhoneOtp(f.ctx, actor, verifyBody(t, sent.DebugCode))
	require.NoError(t, err)
	assert.True(t, res.Verified)

	user, err := f.repo.GetUserByID(f.ctx, actor.ID)
	require.NoError(t, err)
	assert.True(t, user.PhoneVerified)
	assert.Equal(t, phone, *user.Phone)
	assert.Equal(t, 1, f.auditActions(t, "phone_otp_sent"))
	assert.Equal(t, 1, f.auditActions(t, "phone_verified"))

	// Verifying again is idempotent, even with a wrong code.
	res, err = f.svc.VerifyPhoneOtp(f.ctx, actor, verifyBody(t, "000000"))
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestOtp_ExhaustedAfterFiveWrongGuesses(t *testing.T) {
	f := newFixture(t)
	actor := unverifiedSeller()
	sent := f.sendOtp(t, actor)

	for i := 0; i < OtpMaxAttempts; i++ {
		_, err := f.svc.VerifyPhoneOtp(f.ctx, actor, verifyBody(t, "000000"))
		require.Error(t, err)
		assert.Equal(t, 400, domain.StatusCode(err), "guess %d", i+1)
		assert.Equal(t, "Invalid OTP code.", domain.Message(err))
	}

	_, err := f.svc.VerifyPhoneOtp(f.ctx, actor, verifyBody(t, sent.DebugCode))
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts, "correct code refused once the budget is spent")

	otp, err := f.repo.GetLatestOtp(f.ctx, actor.ID, phone)
	require.NoError(t, err)
	assert.Equal(t, OtpMaxAttempts, otp.Attempts)

	// A fresh code resets the budget.
	f.clock.Advance(time.Second)
	fresh := f.sendOtp(t, actor)
	_, err = f.svc.VerifyPhoneOtp(f.ctx, actor, verifyBody(t, fresh.DebugCode))
	assert.NoError(t, err)
}

// slowOtpRepo widens the read-to-write gap the way a networked store does.
type slowOtpRepo struct {
	*memory.Repository
}

func (r slowOtpRepo) GetLatestOtp(ctx context.Context, userID uuid.UUID, phone string) (*domain.OtpVerification, error) {
	time.Sleep(2 * time.Millisecond)
	return r.Repository.GetLatestOtp(ctx, userID, phone)
}

func TestOtp_ParallelGuessesShareOneBudget(t *testing.T) {
	f := newFixture(t)
	actor := unverifiedSeller()
	f.sendOtp(t, actor)

	svc := f.serviceOver(slowOtpRepo{f.repo})

	var compared, refused atomic.Int32
	var g errgroup.Group
	for range 200 {
		g.Go(func() error {
			_, err := svc.VerifyPhoneOtp(f.ctx, actor, verifyBody(t, "000000"))
			switch {
			case errors.Is(err, domain.ErrTooManyAttempts):
				refused.Add(1)
			case errors.Is(err, domain.ErrValidation):
				compared.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(OtpMaxAttempts), compared.Load(), "only the budgeted guesses reach the comparison")
	assert.Equal(t, int32(200-OtpMaxAttempts), refused.Load())

	otp, err := f.repo.GetLatestOtp(f.ctx, actor.ID, phone)
	require.NoError(t, err)
	assert.Equal(t, OtpMaxAttempts, otp.Attempts)
}

func TestOtp_Expired(t *testing.T) {
	f := newFixture(t)
	actor := unverifiedSeller()
	sent := f.sendOtp(t, actor)

	f.clock.Advance(OtpTTL + time.Second)
	_, err := f.svc.VerifyPhoneOtp(f.ctx, actor, verifyBody(t, sent.DebugCode))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, domain.Message(err), "expired")
}

func TestOtp_NotFoundAndValidation(t *testing.T) {
	f := newFixture(t)
	actor := unverifiedSeller()

	_, err := f.svc.VerifyPhoneOtp(f.ctx, actor, verifyBody(t, "123456"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.VerifyPhoneOtp(f.ctx, actor, mustJSON(t, map[string]string{"phone": phone, "code": "12345"}))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SendPhoneOtp(f.ctx, actor, []byte(`{"phone":"123"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SendPhoneOtp(f.ctx, nil, []byte(`{"phone":"+2348012345678"}`))
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestOtp_ProductionHidesDebugCode(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.Production = true })
	sent := f.sendOtp(t, unverifiedSeller())
	assert.Empty(t, sent.DebugCode)
}

func TestOtp_SmsFailureIsUpstream(t *testing.T) {
	f := newFixture(t)
	f.sms.On("SendOtp", mock.Anything, phone, mock.Anything).
		Return(ports.SmsResult{}, errors.New("termii: 503"))

	_, err := f.svc.SendPhoneOtp(f.ctx, unverifiedSeller(), mustJSON(t, map[string]string{"phone": phone}))
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestCodeMatches(t *testing.T) {
	assert.True(t, codeMatches(hashCode("482913"), "482913"))
	assert.False(t, codeMatches(hashCode("482913"), "482914"))
	assert.False(t, codeMatches("not-hex", "482913"))
}
