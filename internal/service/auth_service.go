package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/model/dto"
	"github.com/nexoraai/nexora_server/internal/pkg/email"
	"github.com/nexoraai/nexora_server/internal/pkg/identity"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/repository"
)

const (
	msgAccountCreated = "Conta criada com sucesso."
	msgConfirmEmail   = "Verifique seu e-mail para confirmar."
)

type AuthService struct {
	provider    identity.Provider
	profileRepo *repository.ProfileRepository
	planService *PlanService
	mailer      *email.Service
	cfg         *config.Config
}

func NewAuthService(
	provider identity.Provider,
	profileRepo *repository.ProfileRepository,
	planService *PlanService,
	mailer *email.Service,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		provider:    provider,
		profileRepo: profileRepo,
		planService: planService,
		mailer:      mailer,
		cfg:         cfg,
	}
}

// Register creates the account, its profile row and the trial plan. The
// token is empty when the provider waits for e-mail confirmation.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)

	session, err := s.provider.SignUp(ctx, identity.SignUpInput{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Name:     name,
		Phone:    phone,
	})
	if err != nil {
		return nil, err
	}
	log := logger.WithComponent("auth").WithField("user_id", session.ID)

	profile := &model.Profile{ID: session.ID, FullName: optionalString(name), Phone: optionalString(phone)}
	if err := s.profileRepo.Upsert(profile); err != nil {
		log.WithError(err).Warn("profile upsert failed")
	}

	if _, err := s.planService.StartTrial(session.ID); err != nil {
		log.WithError(err).Warn("trial creation failed")
	}

	if s.mailer.Enabled() {
		to, trialDays := session.Email, s.planService.trialDays()
		go func() {
			if err := s.mailer.SendWelcome(to, name, trialDays); err != nil {
				log.WithError(err).Warn("welcome email failed")
			}
		}()
	}

	message := msgAccountCreated
	if session.AccessToken == "" {
		message = msgConfirmEmail
	}

	return &dto.RegisterResponse{
		Token:   session.AccessToken,
		User:    buildUserInfo(&session.Identity, profile),
		Message: message,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	session, err := s.provider.SignIn(ctx, strings.TrimSpace(req.Identifier), req.Password)
	if err != nil {
		return nil, err
	}

	state, err := s.planService.GetPlan(session.ID)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: session.AccessToken,
		User:  buildUserInfo(&session.Identity, s.loadProfile(session.ID)),
		Plan:  ToPlanInfo(state),
	}, nil
}

// CurrentPlan reports the plan of an already verified identity.
func (s *AuthService) CurrentPlan(user *identity.Identity) (*dto.PlanResponse, error) {
	state, err := s.planService.GetPlan(user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.PlanResponse{
		Plan: ToPlanInfo(state),
		User: buildUserInfo(user, s.loadProfile(user.ID)),
	}, nil
}

func (s *AuthService) loadProfile(userID string) *model.Profile {
	profile, err := s.profileRepo.GetByID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithComponent("auth").WithError(err).WithField("user_id", userID).Warn("profile lookup failed")
		}
		return nil
	}
	return profile
}

// buildUserInfo prefers the profile name over the provider metadata.
func buildUserInfo(user *identity.Identity, profile *model.Profile) dto.UserInfo {
	info := dto.UserInfo{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	}
	if profile != nil {
		if profile.FullName != nil && *profile.FullName != "" {
			info.Name = profile.FullName
		}
		if profile.Phone != nil && *profile.Phone != "" {
			info.Phone = profile.Phone
		}
	}
	return info
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
