// Package cron runs the server's periodic maintenance jobs.
package cron

import (
	"sync"
	"time"

	"github.com/nexoraai/nexora_server/internal/pkg/logger"
)

const DefaultSweepInterval = time.Hour

// PlanExpirer closes trial and pro rows whose end has passed.
type PlanExpirer interface {
	ExpireStale(dryRun bool) (int, error)
}

type Service struct {
	plans    PlanExpirer
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewService(plans PlanExpirer, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Service{
		plans:    plans,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the expiry sweep in the background.
func (s *Service) Start() {
	go s.runExpirySweep()
	logger.WithComponent("cron").WithField("interval", s.interval.String()).Info("cron service started")
}

// Stop ends the background jobs. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		logger.WithComponent("cron").Info("cron service stopped")
	})
}

func (s *Service) runExpirySweep() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if _, err := s.RunNow(); err != nil {
				logger.WithComponent("cron").WithError(err).Error("plan expiry sweep failed")
			}
		}
	}
}

// RunNow performs one expiry sweep and returns how many plans were closed.
func (s *Service) RunNow() (int, error) {
	if s.plans == nil {
		return 0, nil
	}
	count, err := s.plans.ExpireStale(false)
	if err != nil {
		return count, err
	}
	if count > 0 {
		logger.WithComponent("cron").WithField("expired", count).Info("plan expiry sweep completed")
	}
	return count, nil
}
