package cron

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/repository"
	"github.com/nexoraai/nexora_server/internal/service"
	"github.com/nexoraai/nexora_server/internal/testutil"
)

func setupCronService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{Plans: config.PlansConfig{TrialDays: 7}}
	plans := service.NewPlanService(repository.NewPlanRepository(db), cfg)
	return NewService(plans, time.Hour), db
}

type countingExpirer struct {
	calls int32
	err   error
}

func (c *countingExpirer) ExpireStale(dryRun bool) (int, error) {
	atomic.AddInt32(&c.calls, 1)
	return 0, c.err
}

func TestNewService_DefaultInterval(t *testing.T) {
	svc := NewService(nil, 0)
	assert.Equal(t, DefaultSweepInterval, svc.interval)
	assert.NotNil(t, svc.stopChan)
}

func TestService_RunNow(t *testing.T) {
	svc, db := setupCronService(t)
	now := time.Now()
	testutil.TestTrialPlan(t, db, "old-trial", now.Add(-8*24*time.Hour))
	testutil.TestProPlan(t, db, "lapsed", "biweekly", now.Add(-time.Hour))
	testutil.TestProPlan(t, db, "active", "monthly", now.Add(48*time.Hour))

	count, err := svc.RunNow()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var plan model.Plan
	require.NoError(t, db.Where("user_id = ?", "active").First(&plan).Error)
	assert.Equal(t, model.PlanStatusPro, plan.Status)

	count, err = svc.RunNow()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_RunNow_NoPlans(t *testing.T) {
	svc, _ := setupCronService(t)

	count, err := svc.RunNow()
	assert.NoError(t, err)
	assert.Zero(t, count)

	count, err = NewService(nil, time.Hour).RunNow()
	assert.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_RunNow_Error(t *testing.T) {
	svc := NewService(&countingExpirer{err: errors.New("db down")}, time.Hour)
	_, err := svc.RunNow()
	assert.Error(t, err)
}

func TestService_StartRunsSweep(t *testing.T) {
	expirer := &countingExpirer{}
	svc := NewService(expirer, 10*time.Millisecond)

	svc.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&expirer.calls) >= 2 }, time.Second, 5*time.Millisecond)

	svc.Stop()
	svc.Stop()
}

func TestService_StopBeforeStart(t *testing.T) {
	svc := NewService(&countingExpirer{}, time.Hour)
	svc.Stop()
}
