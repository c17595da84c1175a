package model

import (
	"math"
	"time"
)

const (
	PlanStatusTrial   = "trial"
	PlanStatusPro     = "pro"
	PlanStatusExpired = "expired"
	PlanStatusNone    = "none"

	DefaultTrialDays = 7

	day = 24 * time.Hour
)

// Plan is one entitlement row. The most recent row for a user governs access.
type Plan struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	UserID         string     `gorm:"size:64;not null;index" json:"user_id"`
	Status         string     `gorm:"size:20;not null;index" json:"status"`
	TrialStartedAt *time.Time `json:"trial_started_at,omitempty"`
	TrialDays      int        `gorm:"default:7" json:"trial_days"`
	PlanType       string     `gorm:"size:32" json:"plan_type,omitempty"`
	PlanStartedAt  *time.Time `json:"plan_started_at,omitempty"`
	PlanEndsAt     *time.Time `json:"plan_ends_at,omitempty"`
	PaymentID      string     `gorm:"size:64" json:"payment_id,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// PlanState is the entitlement derived from a row at a point in time.
type PlanState struct {
	Status   string     `json:"status"`
	DaysLeft int        `json:"daysLeft"`
	PlanType string     `json:"planType,omitempty"`
	EndsAt   *time.Time `json:"endsAt,omitempty"`
}

// Active reports whether the state grants access to generation.
func (s PlanState) Active() bool {
	return s.Status == PlanStatusTrial || s.Status == PlanStatusPro
}

// Evaluate computes the entitlement at now. A nil plan has status none.
func (p *Plan) Evaluate(now time.Time) PlanState {
	if p == nil {
		return PlanState{Status: PlanStatusNone}
	}

	switch p.Status {
	case PlanStatusPro:
		state := PlanState{Status: PlanStatusExpired, PlanType: p.PlanType, EndsAt: p.PlanEndsAt}
		if p.PlanEndsAt == nil || !now.Before(*p.PlanEndsAt) {
			return state
		}
		state.Status = PlanStatusPro
		state.DaysLeft = int(math.Ceil(float64(p.PlanEndsAt.Sub(now)) / float64(day)))
		return state

	case PlanStatusTrial:
		state := PlanState{Status: PlanStatusExpired, PlanType: PlanStatusTrial}
		if p.TrialStartedAt == nil {
			return state
		}
		trialDays := p.TrialDays
		if trialDays <= 0 {
			trialDays = DefaultTrialDays
		}
		end := p.TrialStartedAt.Add(time.Duration(trialDays) * day)
		state.EndsAt = &end

		elapsed := int(now.Sub(*p.TrialStartedAt) / day)
		if elapsed < 0 {
			elapsed = 0
		}
		left := trialDays - elapsed
		if left <= 0 {
			return state
		}
		state.Status = PlanStatusTrial
		state.DaysLeft = left
		return state

	case PlanStatusExpired:
		return PlanState{Status: PlanStatusExpired, PlanType: p.PlanType, EndsAt: p.PlanEndsAt}
	}

	return PlanState{Status: PlanStatusNone}
}

// NeedsExpiry reports whether the stored status is still active although the
// row has elapsed at now.
func (p *Plan) NeedsExpiry(now time.Time) bool {
	if p == nil || p.Status == PlanStatusExpired {
		return false
	}
	return p.Evaluate(now).Status == PlanStatusExpired
}
