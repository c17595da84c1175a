package service

import (
	"strings"
	"time"

	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/model/dto"
	"github.com/nexoraai/nexora_server/internal/pkg/identity"
	"github.com/nexoraai/nexora_server/internal/repository"
)

type ProfileService struct {
	profileRepo *repository.ProfileRepository
	paymentRepo *repository.PaymentRepository
	planService *PlanService
}

func NewProfileService(profileRepo *repository.ProfileRepository, paymentRepo *repository.PaymentRepository, planService *PlanService) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		paymentRepo: paymentRepo,
		planService: planService,
	}
}

// GetProfile merges the stored profile over the identity metadata.
func (s *ProfileService) GetProfile(user *identity.Identity) (*dto.UserInfo, error) {
	info := buildUserInfo(user, s.lookup(user.ID))
	return &info, nil
}

// Billing returns the current plan and the payments recorded for the user,
// newest first. Reading it never starts a trial.
func (s *ProfileService) Billing(userID string) (dto.PlanInfo, []dto.PaymentInfo, error) {
	state, err := s.planService.LookupPlan(userID)
	if err != nil {
		return dto.PlanInfo{}, nil, err
	}

	payments, err := s.paymentRepo.ListByUser(userID)
	if err != nil {
		return dto.PlanInfo{}, nil, err
	}
	list := make([]dto.PaymentInfo, 0, len(payments))
	for _, p := range payments {
		list = append(list, dto.PaymentInfo{
			PaymentID: p.PaymentID,
			PlanType:  p.PlanType,
			Status:    p.Status,
			Amount:    p.Amount,
			PaidAt:    p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return ToPlanInfo(state), list, nil
}

// UpdateProfile writes only the fields present in req. Blank strings clear them.
func (s *ProfileService) UpdateProfile(user *identity.Identity, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	profile := s.lookup(user.ID)
	if profile == nil {
		profile = &model.Profile{ID: user.ID, FullName: user.Name, Phone: user.Phone}
	}

	if req.Name != nil {
		profile.FullName = optionalString(strings.TrimSpace(*req.Name))
	}
	if req.Phone != nil {
		profile.Phone = optionalString(strings.TrimSpace(*req.Phone))
	}
	profile.UpdatedAt = time.Now()

	if err := s.profileRepo.Upsert(profile); err != nil {
		return nil, err
	}

	info := dto.UserInfo{ID: user.ID, Email: user.Email, Name: profile.FullName, Phone: profile.Phone}
	return &info, nil
}

func (s *ProfileService) lookup(userID string) *model.Profile {
	profile, err := s.profileRepo.GetByID(userID)
	if err != nil {
		return nil
	}
	return profile
}
