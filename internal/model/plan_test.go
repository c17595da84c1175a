package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time {
	return &t
}

func TestPlanEvaluate_Nil(t *testing.T) {
	var p *Plan
	state := p.Evaluate(time.Now())
	assert.Equal(t, PlanStatusNone, state.Status)
	assert.Equal(t, 0, state.DaysLeft)
	assert.False(t, state.Active())
}

func TestPlanEvaluate_TrialCountsDown(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &Plan{Status: PlanStatusTrial, TrialStartedAt: ptrTime(start), TrialDays: 7}

	for elapsed := 0; elapsed < 7; elapsed++ {
		now := start.Add(time.Duration(elapsed)*24*time.Hour + time.Hour)
		state := p.Evaluate(now)
		assert.Equal(t, PlanStatusTrial, state.Status, "day %d", elapsed)
		assert.Equal(t, 7-elapsed, state.DaysLeft, "day %d", elapsed)
	}

	state := p.Evaluate(start.Add(7 * 24 * time.Hour))
	assert.Equal(t, PlanStatusExpired, state.Status)
	assert.Equal(t, 0, state.DaysLeft)

	state = p.Evaluate(start.Add(30 * 24 * time.Hour))
	assert.Equal(t, PlanStatusExpired, state.Status)
	assert.Equal(t, 0, state.DaysLeft)
}

func TestPlanEvaluate_TrialPartialDay(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &Plan{Status: PlanStatusTrial, TrialStartedAt: ptrTime(start), TrialDays: 7}

	state := p.Evaluate(start.Add(6*24*time.Hour + 23*time.Hour))
	assert.Equal(t, PlanStatusTrial, state.Status)
	assert.Equal(t, 1, state.DaysLeft)
	assert.Equal(t, start.Add(7*24*time.Hour), *state.EndsAt)
}

func TestPlanEvaluate_TrialDefaultsDays(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	p := &Plan{Status: PlanStatusTrial, TrialStartedAt: ptrTime(start), TrialDays: 0}

	state := p.Evaluate(time.Now())
	assert.Equal(t, PlanStatusTrial, state.Status)
	assert.Equal(t, DefaultTrialDays, state.DaysLeft)
}

func TestPlanEvaluate_TrialWithoutStart(t *testing.T) {
	p := &Plan{Status: PlanStatusTrial, TrialDays: 7}
	assert.Equal(t, PlanStatusExpired, p.Evaluate(time.Now()).Status)
}

func TestPlanEvaluate_Pro(t *testing.T) {
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		endsAt   *time.Time
		status   string
		daysLeft int
	}{
		{"fifteen days", ptrTime(now.Add(15 * 24 * time.Hour)), PlanStatusPro, 15},
		{"rounds up partial day", ptrTime(now.Add(36 * time.Hour)), PlanStatusPro, 2},
		{"one minute left", ptrTime(now.Add(time.Minute)), PlanStatusPro, 1},
		{"ends now", ptrTime(now), PlanStatusExpired, 0},
		{"ended", ptrTime(now.Add(-time.Hour)), PlanStatusExpired, 0},
		{"no end", nil, PlanStatusExpired, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Plan{Status: PlanStatusPro, PlanType: "monthly", PlanEndsAt: tt.endsAt}
			state := p.Evaluate(now)
			assert.Equal(t, tt.status, state.Status)
			assert.Equal(t, tt.daysLeft, state.DaysLeft)
			assert.Equal(t, "monthly", state.PlanType)
		})
	}
}

func TestPlanEvaluate_StoredExpiredAndUnknown(t *testing.T) {
	future := time.Now().Add(48 * time.Hour)

	expired := &Plan{Status: PlanStatusExpired, PlanEndsAt: &future}
	assert.Equal(t, PlanStatusExpired, expired.Evaluate(time.Now()).Status)

	unknown := &Plan{Status: "gold"}
	assert.Equal(t, PlanStatusNone, unknown.Evaluate(time.Now()).Status)
}

func TestPlanNeedsExpiry(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Plan{Status: PlanStatusPro, PlanEndsAt: &past}).NeedsExpiry(now))
	assert.False(t, (&Plan{Status: PlanStatusPro, PlanEndsAt: &future}).NeedsExpiry(now))
	assert.False(t, (&Plan{Status: PlanStatusExpired, PlanEndsAt: &past}).NeedsExpiry(now))
	assert.False(t, (&Plan{Status: "gold"}).NeedsExpiry(now))

	var nilPlan *Plan
	assert.False(t, nilPlan.NeedsExpiry(now))
}
