package domain

import (
	"time"

	"github.com/google/uuid"
)

type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
)

// ModerationReview is an append-only record of a moderator decision.
type ModerationReview struct {
	ID          uuid.UUID
	ListingID   uuid.UUID
	ModeratorID uuid.UUID
	Action      ModerationAction
	Reason      *string
	CreatedAt   time.Time
}

type SlaRisk string

const (
	SlaRiskLow    SlaRisk = "low"
	SlaRiskMedium SlaRisk = "medium"
	SlaRiskHigh   SlaRisk = "high"
)

// QueueItem is a pending listing annotated with its queue age.
type QueueItem struct {
	Listing    *Listing
	AgeMinutes int
	SlaRisk    SlaRisk
}

// SlaDistribution buckets queue ages; the four buckets always sum to TotalPending.
type SlaDistribution struct {
	Under60          int
	Between60And119  int
	Between120And179 int
	Over180          int
}

// ThroughputDay counts moderation decisions for one UTC calendar day.
type ThroughputDay struct {
	Date     string // YYYY-MM-DD
	Approved int
	Rejected int
	Total    int
}

// SlaMetrics are the aggregate queue numbers.
type SlaMetrics struct {
	TotalPending      int
	HighRisk          int
	MediumRisk        int
	LowRisk           int
	BreachedOver120   int
	AverageAgeMinutes int
	OldestAgeMinutes  int
	Reviewed24h       int
	Reviewed7d        int
}

// SlaDashboard is the moderation SLA overview.
type SlaDashboard struct {
	GeneratedAt  time.Time
	Metrics      SlaMetrics
	Distribution SlaDistribution
	Trend        []ThroughputDay
	Queue        []QueueItem
}
