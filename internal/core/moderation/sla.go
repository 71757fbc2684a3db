// Package moderation computes queue aging and SLA analytics for the moderation desk.
package moderation

import (
	"NaijaAuto/internal/core/domain"
	"math"
	"time"
)

const (
	// Risk tiers.
	mediumRiskMinutes = 60
	highRiskMinutes   = 90

	// BreachMinutes is counted independently of the risk tiers.
	BreachMinutes = 120

	// TrendDays is the length of the throughput trend, today included.
	TrendDays = 7

	dayLayout = "2006-01-02"
)

// AgeMinutes is the floored, non-negative age of a queued listing.
func AgeMinutes(createdAt, now time.Time) int {
	age := int(math.Floor(now.Sub(createdAt).Minutes()))
	if age < 0 {
		return 0
	}
	return age
}

// RiskFor classifies a queue age.
func RiskFor(ageMinutes int) domain.SlaRisk {
	switch {
	case ageMinutes >= highRiskMinutes:
		return domain.SlaRiskHigh
	case ageMinutes >= mediumRiskMinutes:
		return domain.SlaRiskMedium
	default:
		return domain.SlaRiskLow
	}
}

// BuildQueue annotates each pending listing with its age and risk, keeping order.
func BuildQueue(pending []*domain.Listing, now time.Time) []domain.QueueItem {
	items := make([]domain.QueueItem, 0, len(pending))
	for _, l := range pending {
		age := AgeMinutes(l.CreatedAt, now)
		items = append(items, domain.QueueItem{
			Listing:    l,
			AgeMinutes: age,
			SlaRisk:    RiskFor(age),
		})
	}
	return items
}

// Distribute buckets queue ages into <60, 60-119, 120-179 and >=180 minutes.
func Distribute(items []domain.QueueItem) domain.SlaDistribution {
	var d domain.SlaDistribution
	for _, it := range items {
		switch {
		case it.AgeMinutes < 60:
			d.Under60++
		case it.AgeMinutes < 120:
			d.Between60And119++
		case it.AgeMinutes < 180:
			d.Between120And179++
		default:
			d.Over180++
		}
	}
	return d
}

// Throughput counts approve and reject decisions per UTC day for the
// TrendDays days ending on now's UTC date, oldest day first.
func Throughput(reviews []*domain.ModerationReview, now time.Time) []domain.ThroughputDay {
	today := now.UTC().Truncate(24 * time.Hour)

	days := make([]domain.ThroughputDay, TrendDays)
	index := make(map[string]int, TrendDays)
	for i := 0; i < TrendDays; i++ {
		date := today.AddDate(0, 0, i-(TrendDays-1)).Format(dayLayout)
		days[i] = domain.ThroughputDay{Date: date}
		index[date] = i
	}

	for _, r := range reviews {
		i, ok := index[r.CreatedAt.UTC().Format(dayLayout)]
		if !ok {
			continue
		}
		switch r.Action {
		case domain.ActionApprove:
			days[i].Approved++
		case domain.ActionReject:
			days[i].Rejected++
		default:
			continue
		}
		days[i].Total++
	}
	return days
}

// BuildDashboard assembles the full SLA view from the pending queue and review history.
func BuildDashboard(pending []*domain.Listing, reviews []*domain.ModerationReview, now time.Time) domain.SlaDashboard {
	items := BuildQueue(pending, now)

	m := domain.SlaMetrics{TotalPending: len(items)}
	totalAge := 0
	for _, it := range items {
		switch it.SlaRisk {
		case domain.SlaRiskHigh:
			m.HighRisk++
		case domain.SlaRiskMedium:
			m.MediumRisk++
		default:
			m.LowRisk++
		}
		if it.AgeMinutes >= BreachMinutes {
			m.BreachedOver120++
		}
		if it.AgeMinutes > m.OldestAgeMinutes {
			m.OldestAgeMinutes = it.AgeMinutes
		}
		totalAge += it.AgeMinutes
	}
	if len(items) > 0 {
		m.AverageAgeMinutes = int(math.Round(float64(totalAge) / float64(len(items))))
	}

	since24h := now.Add(-24 * time.Hour)
	since7d := now.Add(-7 * 24 * time.Hour)
	for _, r := range reviews {
		if !r.CreatedAt.Before(since24h) {
			m.Reviewed24h++
		}
		if !r.CreatedAt.Before(since7d) {
			m.Reviewed7d++
		}
	}

	return domain.SlaDashboard{
		GeneratedAt:  now,
		Metrics:      m,
		Distribution: Distribute(items),
		Trend:        Throughput(reviews, now),
		Queue:        items,
	}
}

// HistoryWindowStart is the earliest review timestamp BuildDashboard looks at.
func HistoryWindowStart(now time.Time) time.Time {
	return now.Add(-TrendDays * 24 * time.Hour)
}
