package services

import (
	"NaijaAuto/internal/adapters/memory"
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const corollaVIN = "JTDBR32E530056781"

func TestCreateSubmitApprove_AppearsInSearch(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)

	created := f.create(t, seller, vehicle(corollaVIN, photoSet("corolla", 15)))
	assert.Equal(t, domain.ListingDraft, created.Status)
	assert.Equal(t, "toyota-corolla-ikeja-2015", created.Slug)
	assert.Equal(t, domain.SellerPrivate, created.SellerType)

	submitted, err := f.svc.SubmitListing(f.ctx, seller, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ListingPendingReview, submitted.Status)

	approved, err := f.svc.ApproveListing(f.ctx, moderatorActor(), created.Slug, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, t0, *approved.ApprovedAt)

	result, err := f.svc.SearchListings(f.ctx, []byte(`{"query":"Corolla"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, created.ID, result.Items[0].ID)

	assert.Equal(t, 1, f.notificationsTitled(t, seller.ID, "Listing approved"))
	assert.Equal(t, 1, f.auditActions(t, "listing_created"))
	assert.Equal(t, 1, f.auditActions(t, "listing_submitted"))
	assert.Equal(t, 1, f.auditActions(t, "listing_approved"))
}

func TestRejectEditResubmit(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	mod := moderatorActor()

	l := f.create(t, seller, vehicle(corollaVIN, photoSet("first", 15)))
	_, err := f.svc.SubmitListing(f.ctx, seller, l.ID.String())
	require.NoError(t, err)

	rejected, err := f.svc.RejectListing(f.ctx, mod, l.ID.String(), []byte(`{"reason":"needs photos"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ListingRejected, rejected.Status)
	assert.Equal(t, 1, f.notificationsTitled(t, seller.ID, "Listing rejected"))

	edited, err := f.svc.UpdateListing(f.ctx, seller, l.ID.String(), mustJSON(t, map[string]any{
		"title":  "Toyota Corolla 2015 Very Clean",
		"photos": photoSet("second", 15),
	}))
	require.NoError(t, err)
	assert.Equal(t, domain.ListingDraft, edited.Status)
	assert.Equal(t, "Toyota Corolla 2015 Very Clean", edited.Title)
	assert.Equal(t, l.Slug, edited.Slug, "slug untouched when make/model/city/year are not edited")

	resubmitted, err := f.svc.SubmitListing(f.ctx, seller, l.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ListingPendingReview, resubmitted.Status)

	reviews, err := f.repo.ListModerationReviewsSince(f.ctx, t0.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "needs photos", *reviews[0].Reason)
}

func TestSubmit_FewerThanFifteenPhotosNeverPending(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)

	l := f.create(t, seller, vehicle(corollaVIN, photoSet("few", 14)))
	_, err := f.svc.SubmitListing(f.ctx, seller, l.ID.String())
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := f.repo.GetListingByID(f.ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingDraft, stored.Status)
}

func TestSubmit_OnlyOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.seller(t)
	other := f.seller(t)

	l := f.create(t, owner, vehicle(corollaVIN, photoSet("own", 15)))
	_, err := f.svc.SubmitListing(f.ctx, other, l.ID.String())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSubmit_PublishesForModerationDesk(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)

	var got atomic.Value
	f.bus.Subscribe(ports.TopicListingSubmitted, func(ctx context.Context, e ports.Event) error {
		got.Store(e.Data.(ports.ListingSubmittedEvent).Listing.ID)
		return nil
	})

	l := f.create(t, seller, vehicle(corollaVIN, photoSet("desk", 15)))
	_, err := f.svc.SubmitListing(f.ctx, seller, l.ID.String())
	require.NoError(t, err)
	f.bus.Wait()

	assert.Equal(t, l.ID, got.Load())
}

func TestCreate_VINConflictUntilRejected(t *testing.T) {
	f := newFixture(t)
	first := f.seller(t)
	second := f.seller(t)

	l := f.create(t, first, vehicle(corollaVIN, photoSet("a", 15)))

	_, err := f.svc.CreateListing(f.ctx, second, mustJSON(t, vehicle("jtdbr32e530056781", photoSet("b", 15))))
	require.Error(t, err)
	assert.Equal(t, 409, domain.StatusCode(err))

	_, err = f.svc.SubmitListing(f.ctx, first, l.ID.String())
	require.NoError(t, err)
	_, err = f.svc.RejectListing(f.ctx, moderatorActor(), l.ID.String(), []byte(`{"reason":"Suspicious VIN"}`))
	require.NoError(t, err)

	again := f.create(t, second, vehicle(corollaVIN, photoSet("b", 15)))
	assert.Equal(t, "toyota-corolla-ikeja-2015-2", again.Slug)
}

func TestCreate_ConcurrentSameVINOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	const writers = 8

	sellers := make([]*domain.Actor, writers)
	for i := range sellers {
		sellers[i] = f.seller(t)
	}

	var wins, conflicts atomic.Int32
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		seller := sellers[i]
		body := mustJSON(t, vehicle(corollaVIN, photoSet(seller.ID.String(), 15)))
		g.Go(func() error {
			_, err := f.svc.CreateListing(f.ctx, seller, body)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())
}

func TestCreate_Gates(t *testing.T) {
	f := newFixture(t)
	body := mustJSON(t, vehicle(corollaVIN, photoSet("g", 15)))

	_, err := f.svc.CreateListing(f.ctx, nil, body)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	buyer := &domain.Actor{ID: uuid.New(), Role: domain.RoleBuyer, PhoneVerified: true}
	_, err = f.svc.CreateListing(f.ctx, buyer, body)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	unverified := &domain.Actor{ID: uuid.New(), Role: domain.RoleSeller}
	_, err = f.svc.CreateListing(f.ctx, unverified, body)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	notOnboarded := &domain.Actor{ID: uuid.New(), Role: domain.RoleSeller, PhoneVerified: true}
	_, err = f.svc.CreateListing(f.ctx, notOnboarded, body)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, "Complete seller onboarding first.", domain.Message(err))
}

func TestCreate_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)

	tests := []struct {
		name  string
		edit  func(map[string]any)
		field string
	}{
		{"short vin", func(b map[string]any) { b["vin"] = "JTDBR32E53005678" }, "vin"},
		{"price too low", func(b map[string]any) { b["priceNgn"] = 100000 }, "priceNgn"},
		{"year in future", func(b map[string]any) { b["year"] = t0.Year() + 2 }, "year"},
		{"year too old", func(b map[string]any) { b["year"] = 1975 }, "year"},
		{"no photos", func(b map[string]any) { b["photos"] = []string{} }, "photos"},
		{"too many photos", func(b map[string]any) { b["photos"] = photoSet("many", 31) }, "photos"},
		{"bad photo url", func(b map[string]any) { b["photos"] = []string{"not a url"} }, "photos[0]"},
		{"bad body type", func(b map[string]any) { b["bodyType"] = "bus" }, "bodyType"},
		{"latitude", func(b map[string]any) { b["lat"] = 95.0 }, "lat"},
		{"missing mileage", func(b map[string]any) { delete(b, "mileageKm") }, "mileageKm"},
		{"short title", func(b map[string]any) { b["title"] = "Corolla" }, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := vehicle(corollaVIN, photoSet("v", 15))
			tt.edit(body)

			_, err := f.svc.CreateListing(f.ctx, seller, mustJSON(t, body))
			require.Error(t, err)
			assert.Equal(t, 400, domain.StatusCode(err))

			var appErr *domain.AppError
			require.True(t, errors.As(err, &appErr))
			require.NotEmpty(t, appErr.Fields)
			assert.Equal(t, tt.field, appErr.Fields[0].Field)
		})
	}

	_, err := f.svc.CreateListing(f.ctx, seller, []byte(`{"priceNgn": 1.5}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreate_NextYearAllowed(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	body := vehicle(corollaVIN, photoSet("ny", 15))
	body["year"] = t0.Year() + 1

	l := f.create(t, seller, body)
	assert.Equal(t, t0.Year()+1, l.Year)
}

func TestUpdate_Rules(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	other := f.seller(t)

	approved := f.approved(t, seller, vehicle(corollaVIN, photoSet("app", 15)))
	_, err := f.svc.UpdateListing(f.ctx, seller, approved.ID.String(), []byte(`{"title":"A brand new title here"}`))
	assert.ErrorIs(t, err, domain.ErrConflict)

	draft := f.create(t, seller, vehicle("1HGCM82633A004352", photoSet("draft", 15)))
	_, err = f.svc.UpdateListing(f.ctx, other, draft.ID.String(), []byte(`{"title":"A brand new title here"}`))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.UpdateListing(f.ctx, seller, draft.ID.String(), mustJSON(t, map[string]any{"vin": corollaVIN}))
	assert.ErrorIs(t, err, domain.ErrConflict, "VIN already live elsewhere")

	_, err = f.svc.UpdateListing(f.ctx, seller, draft.ID.String(), mustJSON(t, map[string]any{"priceNgn": 10}))
	assert.ErrorIs(t, err, domain.ErrValidation)

	moved, err := f.svc.UpdateListing(f.ctx, seller, draft.ID.String(), mustJSON(t, map[string]any{"city": "Lekki", "make": "Honda", "model": "Accord"}))
	require.NoError(t, err)
	assert.Equal(t, "honda-accord-lekki-2015", moved.Slug)

	_, err = f.svc.UpdateListing(f.ctx, seller, "does-not-exist", []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// slugRaceRepo lets another listing grab the slug just before the first
// create lands, and fails the first update on a slug collision.
type slugRaceRepo struct {
	*memory.Repository
	createOnce, updateOnce sync.Once
}

func (r *slugRaceRepo) CreateListing(ctx context.Context, listing *domain.Listing) error {
	r.createOnce.Do(func() {
		squatter := &domain.Listing{ID: uuid.New(), SellerID: uuid.New(), Status: domain.ListingDraft, Slug: listing.Slug}
		_ = r.Repository.CreateListing(ctx, squatter)
	})
	return r.Repository.CreateListing(ctx, listing)
}

func (r *slugRaceRepo) UpdateListing(ctx context.Context, listing *domain.Listing) error {
	var err error
	r.updateOnce.Do(func() {
		err = fmt.Errorf("%w: %q", domain.ErrSlugTaken, listing.Slug)
	})
	if err != nil {
		return err
	}
	return r.Repository.UpdateListing(ctx, listing)
}

func TestCreate_SlugRaceRetriesWithNextSlug(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	svc := f.serviceOver(&slugRaceRepo{Repository: f.repo})

	created, err := svc.CreateListing(f.ctx, seller, mustJSON(t, vehicle(corollaVIN, photoSet("race", 15))))
	require.NoError(t, err)
	assert.Equal(t, "toyota-corolla-ikeja-2015-2", created.Slug)
}

func TestUpdate_SlugRaceIsNotReportedAsVinConflict(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	draft := f.create(t, seller, vehicle(corollaVIN, photoSet("draft", 15)))
	svc := f.serviceOver(&slugRaceRepo{Repository: f.repo})

	_, err := svc.UpdateListing(f.ctx, seller, draft.ID.String(), mustJSON(t, map[string]any{"city": "Lekki"}))
	require.Error(t, err)
	assert.Equal(t, 409, domain.StatusCode(err))
	assert.Equal(t, errSlugTaken.Message, domain.Message(err))
	assert.NotEqual(t, errVinInUse.Message, domain.Message(err))

	moved, err := svc.UpdateListing(f.ctx, seller, draft.ID.String(), mustJSON(t, map[string]any{"city": "Lekki"}))
	require.NoError(t, err)
	assert.Equal(t, "toyota-corolla-lekki-2015", moved.Slug)
}

func TestUpdate_DuplicatePhotosBlockAtEight(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)

	donor := f.create(t, seller, vehicle(corollaVIN, photoSet("donor", 15)))
	l := f.create(t, seller, vehicle("1HGCM82633A004352", photoSet("own", 15)))

	seven := append(append([]string{}, donor.Photos[:7]...), photoSet("fresh", 8)...)
	_, err := f.svc.UpdateListing(f.ctx, seller, l.ID.String(), mustJSON(t, map[string]any{"photos": seven}))
	require.NoError(t, err, "seven reused photos stay below the block threshold")

	eight := append(append([]string{}, donor.Photos[:8]...), photoSet("fresh", 7)...)
	_, err = f.svc.UpdateListing(f.ctx, seller, l.ID.String(), mustJSON(t, map[string]any{"photos": eight}))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSubmit_DuplicatePhotosBlocked(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)

	donor := f.create(t, seller, vehicle(corollaVIN, photoSet("donor", 15)))
	// Create does not block on overlap.
	copycat := f.create(t, seller, vehicle("1HGCM82633A004352", donor.Photos))

	_, err := f.svc.SubmitListing(f.ctx, seller, copycat.ID.String())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSearch_FiltersRankingAndPaging(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)

	corolla := f.approved(t, seller, vehicle(corollaVIN, photoSet("c", 15)))

	f.clock.Advance(time.Hour)
	hilux := vehicle("MR0FZ22G701234567", photoSet("h", 15))
	hilux["title"], hilux["make"], hilux["model"], hilux["bodyType"] = "Toyota Hilux 2019 Double Cabin", "Toyota", "Hilux", "pickup"
	hilux["city"], hilux["state"], hilux["priceNgn"], hilux["year"] = "Port Harcourt", "Rivers", 28000000, 2019
	hiluxListing := f.approved(t, seller, hilux)

	f.clock.Advance(time.Hour)
	accord := vehicle("1HGCM82633A004352", photoSet("a", 15))
	accord["title"], accord["make"], accord["model"] = "Honda Accord 2012 EX", "Honda", "Accord"
	f.approved(t, seller, accord)

	// A draft never shows up.
	f.create(t, seller, vehicle("2T1BURHE0JC012345", photoSet("d", 15)))

	res, err := f.svc.SearchListings(f.ctx, []byte(`{"make":"TOYOTA"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.PageSize)
	assert.Equal(t, hiluxListing.ID, res.Items[0].ID, "newer listing ranks first on freshness")

	res, err = f.svc.SearchListings(f.ctx, []byte(`{"bodyType":"pickup","minYear":2018}`))
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, hiluxListing.ID, res.Items[0].ID)

	res, err = f.svc.SearchListings(f.ctx, []byte(`{"maxPriceNgn":9000000,"state":"lagos"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = f.svc.SearchListings(f.ctx, []byte(`{"page":2,"pageSize":2}`))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, corolla.ID, res.Items[0].ID)

	res, err = f.svc.SearchListings(f.ctx, []byte(`{"page":9}`))
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	_, err = f.svc.SearchListings(f.ctx, []byte(`{"pageSize":51}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.svc.SearchListings(f.ctx, []byte(`{"page":0}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSearch_HugePageIsEmpty(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	f.approved(t, seller, vehicle(corollaVIN, photoSet("c", 15)))

	res, err := f.svc.SearchListings(f.ctx, []byte(`{"page":4611686018427387905,"pageSize":50}`))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 4611686018427387905, res.Page)
}

func TestPageBounds(t *testing.T) {
	cases := []struct {
		page, size, total int
		offset, end       int
	}{
		{1, 20, 0, 0, 0},
		{1, 2, 3, 0, 2},
		{2, 2, 3, 2, 3},
		{3, 2, 3, 3, 3},
		{math.MaxInt, 50, 10, 10, 10},
		{math.MaxInt/2 + 2, 2, 7, 7, 7},
	}
	for _, c := range cases {
		offset, end := pageBounds(c.page, c.size, c.total)
		assert.Equal(t, c.offset, offset, "page %d size %d", c.page, c.size)
		assert.Equal(t, c.end, end, "page %d size %d", c.page, c.size)
	}
}

func TestGetPublicListing_OnlyApproved(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)

	draft := f.create(t, seller, vehicle("1HGCM82633A004352", photoSet("d", 15)))
	_, err := f.svc.GetPublicListing(f.ctx, draft.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	live := f.approved(t, seller, vehicle(corollaVIN, photoSet("l", 15)))
	byID, err := f.svc.GetPublicListing(f.ctx, live.ID.String())
	require.NoError(t, err)
	bySlug, err := f.svc.GetPublicListing(f.ctx, live.Slug)
	require.NoError(t, err)
	assert.Equal(t, byID.ID, bySlug.ID)
}

func TestTrackContactClick(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	live := f.approved(t, seller, vehicle(corollaVIN, photoSet("l", 15)))

	res, err := f.svc.TrackContactClick(f.ctx, nil, live.Slug, []byte(`{"channel":"whatsapp"}`),
		domain.ContactMeta{IP: "102.89.1.1", UserAgent: "Mozilla/5.0"})
	require.NoError(t, err)
	assert.True(t, res.Tracked)
	assert.Equal(t, domain.ChannelWhatsapp, res.Channel)

	events, err := f.repo.ListContactEventsByListingSince(f.ctx, live.ID, t0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].UserID)
	assert.Equal(t, "102.89.1.1", *events[0].IP)
	assert.Equal(t, 1, f.auditActions(t, "contact_click_whatsapp"))

	_, err = f.svc.TrackContactClick(f.ctx, nil, live.Slug, []byte(`{"channel":"email"}`), domain.ContactMeta{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "mercedes-benz-c300-abuja-2018", Slugify("Mercedes-Benz-C300-Abuja-2018"))
	assert.Equal(t, "land-rover-range-rover-lekki-2020", Slugify("  Land Rover--Range  Rover!-Lekki-2020 "))
	assert.Equal(t, "", Slugify("!!!"))
}
