package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/model/dto"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/repository"
)

var (
	ErrUnknownPlanType = errors.New("Plano inválido.")
	ErrPlanRequired    = errors.New("Seu plano expirou. Assine para continuar gerando conteúdo.")
)

type PlanService struct {
	planRepo *repository.PlanRepository
	cfg      *config.Config
	now      func() time.Time
}

func NewPlanService(planRepo *repository.PlanRepository, cfg *config.Config) *PlanService {
	return &PlanService{
		planRepo: planRepo,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *PlanService) trialDays() int {
	if s.cfg.Plans.TrialDays > 0 {
		return s.cfg.Plans.TrialDays
	}
	return model.DefaultTrialDays
}

// GetPlan evaluates the governing row. A user without any row gets a trial,
// and a row found elapsed is written back as expired.
func (s *PlanService) GetPlan(userID string) (model.PlanState, error) {
	plan, err := s.planRepo.LatestByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		plan, err = s.StartTrial(userID)
	}
	if err != nil {
		return model.PlanState{}, err
	}

	now := s.now()
	if plan.NeedsExpiry(now) {
		if err := s.planRepo.MarkExpired(plan.ID); err != nil {
			logger.WithComponent("plan").WithError(err).WithField("plan_id", plan.ID).Warn("failed to persist expiry")
		}
	}
	return plan.Evaluate(now), nil
}

// LookupPlan evaluates without side effects; a missing row is status none.
func (s *PlanService) LookupPlan(userID string) (model.PlanState, error) {
	plan, err := s.planRepo.LatestByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PlanState{Status: model.PlanStatusNone}, nil
	}
	if err != nil {
		return model.PlanState{}, err
	}
	return plan.Evaluate(s.now()), nil
}

func (s *PlanService) StartTrial(userID string) (*model.Plan, error) {
	now := s.now()
	plan := &model.Plan{
		UserID:         userID,
		Status:         model.PlanStatusTrial,
		TrialStartedAt: &now,
		TrialDays:      s.trialDays(),
		PlanType:       model.PlanStatusTrial,
	}
	if err := s.planRepo.Create(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ActivatePro inserts a pro row running for the catalog duration of planType
// and records payment with it. A payment already seen yields
// repository.ErrDuplicatePayment and no new row.
func (s *PlanService) ActivatePro(userID, planType string, payment *model.Payment) (*model.Plan, error) {
	offer, ok := s.cfg.Plans.Offer(planType)
	if !ok {
		return nil, ErrUnknownPlanType
	}

	start := s.now()
	end := start.Add(time.Duration(offer.DurationDays) * 24 * time.Hour)
	plan := &model.Plan{
		UserID:        userID,
		Status:        model.PlanStatusPro,
		PlanType:      planType,
		PlanStartedAt: &start,
		PlanEndsAt:    &end,
		PaymentID:     payment.PaymentID,
	}
	if err := s.planRepo.ActivateWithPayment(plan, payment); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PlanService) HasActivePlan(userID string) (bool, error) {
	state, err := s.GetPlan(userID)
	if err != nil {
		return false, err
	}
	return state.Active(), nil
}

// ExpireStale marks every elapsed trial or pro row as expired and returns how
// many rows qualified. With dryRun nothing is written.
func (s *PlanService) ExpireStale(dryRun bool) (int, error) {
	plans, err := s.planRepo.ListActive(0)
	if err != nil {
		return 0, err
	}

	now := s.now()
	count := 0
	for _, plan := range plans {
		if !plan.NeedsExpiry(now) {
			continue
		}
		count++
		if dryRun {
			continue
		}
		if err := s.planRepo.MarkExpired(plan.ID); err != nil {
			return count, err
		}
	}
	return count, nil
}

// ToPlanInfo shapes a state for API responses.
func ToPlanInfo(state model.PlanState) dto.PlanInfo {
	info := dto.PlanInfo{
		Status:   state.Status,
		DaysLeft: state.DaysLeft,
		PlanType: state.PlanType,
	}
	if state.EndsAt != nil {
		info.EndsAt = state.EndsAt.UTC().Format(time.RFC3339)
	}
	return info
}
