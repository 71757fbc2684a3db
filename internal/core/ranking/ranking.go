// Package ranking orders approved listings for search results.
package ranking

import (
	"NaijaAuto/internal/core/domain"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	featuredBoost  = 30.0
	titleMatch     = 6.0
	makeModelMatch = 5.0
	locationMatch  = 2.0
	freshnessCeil  = 20.0
	minAgeHours    = 1.0
	hoursPerDecay  = 24.0
)

// FeaturedScore is 30 while the featured window is open, else 0.
func FeaturedScore(l *domain.Listing, now time.Time) float64 {
	if l.IsFeaturedAt(now) {
		return featuredBoost
	}
	return 0
}

// RelevanceScore adds up substring matches of query against title,
// "make model" and "city state".
func RelevanceScore(l *domain.Listing, query string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	score := 0.0
	if strings.Contains(strings.ToLower(l.Title), q) {
		score += titleMatch
	}
	if strings.Contains(strings.ToLower(l.Make+" "+l.Model), q) {
		score += makeModelMatch
	}
	if strings.Contains(strings.ToLower(l.City+" "+l.State), q) {
		score += locationMatch
	}
	return score
}

// FreshnessScore decays from 20 by one point per day of age.
func FreshnessScore(l *domain.Listing, now time.Time) float64 {
	ageHours := math.Max(minAgeHours, now.Sub(l.CreatedAt).Hours())
	return math.Max(0, freshnessCeil-ageHours/hoursPerDecay)
}

// Score is the total ranking score of one listing.
func Score(l *domain.Listing, query string, now time.Time) float64 {
	return FeaturedScore(l, now) + RelevanceScore(l, query) + FreshnessScore(l, now)
}

// Rank returns a new slice ordered by score descending, newest first on ties.
// The input slice is not modified.
func Rank(listings []*domain.Listing, query string, now time.Time) []*domain.Listing {
	type scored struct {
		listing *domain.Listing
		score   float64
	}

	items := make([]scored, len(listings))
	for i, l := range listings {
		items[i] = scored{listing: l, score: Score(l, query, now)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].listing.CreatedAt.After(items[j].listing.CreatedAt)
	})

	out := make([]*domain.Listing, len(items))
	for i, it := range items {
		out[i] = it.listing
	}
	return out
}
