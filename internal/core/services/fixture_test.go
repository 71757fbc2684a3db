package services

import (
	"NaijaAuto/internal/adapters/eventbus"
	"NaijaAuto/internal/adapters/memory"
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockSmsProvider struct {
	mock.Mock
}

func (m *MockSmsProvider) SendOtp(ctx context.Context, phone, code string) (ports.SmsResult, error) {
	args := m.Called(ctx, phone, code)
	return args.Get(0).(ports.SmsResult), args.Error(1)
}

type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	return m.Called(rawBody, signature).Bool(0)
}

func (m *MockPaymentProvider) InitializeTransaction(ctx context.Context, params ports.InitializeTransactionParams) (ports.InitializeTransactionResult, error) {
	args := m.Called(ctx, params)
	if fn, ok := args.Get(0).(func(ports.InitializeTransactionParams) ports.InitializeTransactionResult); ok {
		return fn(params), args.Error(1)
	}
	return args.Get(0).(ports.InitializeTransactionResult), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg ports.Email) error {
	return m.Called(ctx, msg).Error(0)
}

// echoCheckout mimics the provider returning the reference it was given.
func echoCheckout(p ports.InitializeTransactionParams) ports.InitializeTransactionResult {
	return ports.InitializeTransactionResult{
		AuthorizationURL: "https://checkout.paystack.test/" + p.Reference,
		AccessCode:       "access_" + p.Reference,
		Reference:        p.Reference,
		Mocked:           true,
	}
}

// --- Fixture ---

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx      context.Context
	svc      *MarketplaceService
	repo     *memory.Repository
	sms      *MockSmsProvider
	payments *MockPaymentProvider
	bus      ports.EventBus
	clock    *testClock
}

func newFixture(t *testing.T, opts ...func(*Settings)) *fixture {
	t.Helper()
	nopLogger := zerolog.Nop()

	settings := Settings{AppURL: "http://localhost:3000"}
	for _, o := range opts {
		o(&settings)
	}

	f := &fixture{
		ctx:      context.Background(),
		repo:     memory.NewRepository(&nopLogger),
		sms:      new(MockSmsProvider),
		payments: new(MockPaymentProvider),
		bus:      eventbus.NewInMemoryEventBus(&nopLogger),
		clock:    &testClock{now: t0},
	}
	f.svc = NewMarketplaceService(f.repo, f.sms, f.payments, memory.NewWebhookGuard(), f.bus, settings, &nopLogger,
		WithClock(f.clock.Now))

	for _, pkg := range []*domain.FeaturedPackage{
		{ID: uuid.New(), Code: "feature_7_days", Name: "7 days", DurationDays: 7, AmountNgn: 25000, IsActive: true},
		{ID: uuid.New(), Code: "feature_14_days", Name: "14 days", DurationDays: 14, AmountNgn: 45000, IsActive: true},
		{ID: uuid.New(), Code: "retired", Name: "Old", DurationDays: 3, AmountNgn: 5000, IsActive: false},
	} {
		require.NoError(t, f.repo.AddFeaturedPackage(f.ctx, pkg))
	}
	return f
}

// serviceOver builds a second service sharing the fixture's collaborators
// on top of a wrapped repository.
func (f *fixture) serviceOver(repo ports.Repository) *MarketplaceService {
	nopLogger := zerolog.Nop()
	return NewMarketplaceService(repo, f.sms, f.payments, memory.NewWebhookGuard(), f.bus,
		Settings{AppURL: "http://localhost:3000"}, &nopLogger, WithClock(f.clock.Now))
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func ptr[T any](v T) *T { return &v }

func photoSet(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://cdn.naijaauto.test/%s/%02d.jpg", prefix, i+1)
	}
	return out
}

func vehicle(vin string, photos []string) map[string]any {
	return map[string]any{
		"title":           "Toyota Corolla 2015 Clean",
		"description":     "Foreign used Toyota Corolla with full service history, no accidents, AC chilling.",
		"priceNgn":        8500000,
		"year":            2015,
		"make":            "Toyota",
		"model":           "Corolla",
		"bodyType":        "car",
		"mileageKm":       84000,
		"transmission":    "automatic",
		"fuelType":        "petrol",
		"vin":             vin,
		"state":           "Lagos",
		"city":            "Ikeja",
		"lat":             6.6018,
		"lng":             3.3515,
		"photos":          photos,
		"contactPhone":    "+2348012345678",
		"contactWhatsapp": "+2348012345678",
	}
}

// seller returns a phone-verified private seller with onboarding done.
func (f *fixture) seller(t *testing.T) *domain.Actor {
	t.Helper()
	actor := &domain.Actor{
		ID:            uuid.New(),
		Role:          domain.RoleSeller,
		Email:         ptr("seller@example.com"),
		PhoneVerified: true,
	}
	_, err := f.svc.UpsertSellerOnboarding(f.ctx, actor, mustJSON(t, map[string]any{
		"sellerType": "private",
		"fullName":   "Ada Obi",
		"state":      "Lagos",
		"city":       "Ikeja",
	}))
	require.NoError(t, err)
	return actor
}

func moderatorActor() *domain.Actor {
	return &domain.Actor{ID: uuid.New(), Role: domain.RoleModerator}
}

func (f *fixture) create(t *testing.T, seller *domain.Actor, body map[string]any) *domain.Listing {
	t.Helper()
	l, err := f.svc.CreateListing(f.ctx, seller, mustJSON(t, body))
	require.NoError(t, err)
	return l
}

// approved creates, submits and approves a listing.
func (f *fixture) approved(t *testing.T, seller *domain.Actor, body map[string]any) *domain.Listing {
	t.Helper()
	l := f.create(t, seller, body)
	_, err := f.svc.SubmitListing(f.ctx, seller, l.ID.String())
	require.NoError(t, err)
	l, err = f.svc.ApproveListing(f.ctx, moderatorActor(), l.ID.String(), nil)
	require.NoError(t, err)
	return l
}

func (f *fixture) auditActions(t *testing.T, action string) int {
	t.Helper()
	logs, err := f.repo.ListAuditLogs(f.ctx)
	require.NoError(t, err)
	n := 0
	for _, l := range logs {
		if l.Action == action {
			n++
		}
	}
	return n
}

func (f *fixture) notificationsTitled(t *testing.T, userID uuid.UUID, title string) int {
	t.Helper()
	ns, err := f.repo.ListNotificationsByUser(f.ctx, userID)
	require.NoError(t, err)
	n := 0
	for _, x := range ns {
		if x.Title == title {
			n++
		}
	}
	return n
}
