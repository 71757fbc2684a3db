package ranking

import (
	"NaijaAuto/internal/core/domain"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func listing(title, make, model, city, state string, age time.Duration) *domain.Listing {
	return &domain.Listing{
		ID:        uuid.New(),
		Title:     title,
		Make:      make,
		Model:     model,
		City:      city,
		State:     state,
		CreatedAt: now.Add(-age),
	}
}

func TestFeaturedScore(t *testing.T) {
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	l := listing("Clean Toyota Corolla 2015", "Toyota", "Corolla", "Ikeja", "Lagos", time.Hour)
	assert.Equal(t, 0.0, FeaturedScore(l, now))

	l.IsFeatured = true
	l.FeaturedUntil = &past
	assert.Equal(t, 0.0, FeaturedScore(l, now), "expired window must not boost")

	l.FeaturedUntil = &now
	assert.Equal(t, 0.0, FeaturedScore(l, now), "window ending now is not strictly in the future")

	l.FeaturedUntil = &future
	assert.Equal(t, 30.0, FeaturedScore(l, now))
}

func TestRelevanceScore_Additive(t *testing.T) {
	l := listing("Clean Corolla LE", "Toyota", "Corolla", "Ikeja", "Lagos", time.Hour)

	assert.Equal(t, 0.0, RelevanceScore(l, "   "))
	assert.Equal(t, 11.0, RelevanceScore(l, "corolla"), "title + make/model")
	assert.Equal(t, 5.0, RelevanceScore(l, "Toyota Corolla"), "make model phrase only")
	assert.Equal(t, 2.0, RelevanceScore(l, "ikeja LAGOS"))
	assert.Equal(t, 0.0, RelevanceScore(l, "honda"))
}

func TestFreshnessScore(t *testing.T) {
	fresh := listing("a", "b", "c", "d", "e", 10*time.Minute)
	assert.InDelta(t, 20.0-1.0/24.0, FreshnessScore(fresh, now), 1e-9, "age floored at one hour")

	tenDays := listing("a", "b", "c", "d", "e", 240*time.Hour)
	assert.InDelta(t, 10.0, FreshnessScore(tenDays, now), 1e-9)

	old := listing("a", "b", "c", "d", "e", 60*24*time.Hour)
	assert.Equal(t, 0.0, FreshnessScore(old, now))
}

func TestRank_FeaturedFirstThenRelevance(t *testing.T) {
	future := now.Add(48 * time.Hour)

	plain := listing("Honda Accord EX", "Honda", "Accord", "Abuja", "FCT", 2*time.Hour)
	match := listing("Toyota Corolla Sport", "Toyota", "Corolla", "Ikeja", "Lagos", 2*time.Hour)
	featured := listing("Lexus RX 350", "Lexus", "RX", "Lekki", "Lagos", 24*5*time.Hour)
	featured.IsFeatured = true
	featured.FeaturedUntil = &future

	ranked := Rank([]*domain.Listing{plain, match, featured}, "corolla", now)
	require.Len(t, ranked, 3)
	assert.Equal(t, featured.ID, ranked[0].ID)
	assert.Equal(t, match.ID, ranked[1].ID)
	assert.Equal(t, plain.ID, ranked[2].ID)
}

func TestRank_TieBrokenByNewest(t *testing.T) {
	// Both older than 60 days so freshness is 0 and scores tie.
	older := listing("Kia Rio", "Kia", "Rio", "Jos", "Plateau", 90*24*time.Hour)
	newer := listing("Kia Rio", "Kia", "Rio", "Jos", "Plateau", 80*24*time.Hour)

	ranked := Rank([]*domain.Listing{older, newer}, "", now)
	assert.Equal(t, newer.ID, ranked[0].ID)
	assert.Equal(t, older.ID, ranked[1].ID)
}

func TestRank_DeterministicAndPure(t *testing.T) {
	input := []*domain.Listing{
		listing("Toyota Camry", "Toyota", "Camry", "Ikeja", "Lagos", 3*time.Hour),
		listing("Toyota Corolla", "Toyota", "Corolla", "Kano", "Kano", 30*time.Hour),
		listing("Honda Civic", "Honda", "Civic", "Enugu", "Enugu", 300*time.Hour),
		listing("Ford Ranger", "Ford", "Ranger", "Warri", "Delta", 3*time.Hour),
	}
	original := append([]*domain.Listing(nil), input...)

	first := Rank(input, "toyota", now)
	second := Rank(input, "toyota", now)

	assert.Equal(t, first, second)
	assert.Equal(t, original, input, "input order must be untouched")
}
