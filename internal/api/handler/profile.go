package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nexoraai/nexora_server/internal/api/middleware"
	"github.com/nexoraai/nexora_server/internal/model/dto"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/response"
	"github.com/nexoraai/nexora_server/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile
// GET /api/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, ok := middleware.GetIdentity(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.profileService.GetProfile(user)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	plan, payments, err := h.profileService.Billing(user.ID)
	if err != nil {
		logger.WithComponent("profile").WithError(err).WithField("user_id", user.ID).Error("billing lookup failed")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"user": info, "plan": plan, "payments": payments})
}

// UpdateProfile
// PUT /api/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	user, ok := middleware.GetIdentity(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}

	info, err := h.profileService.UpdateProfile(user, &req)
	if err != nil {
		logger.WithComponent("profile").WithError(err).WithField("user_id", user.ID).Error("profile update failed")
		response.ServerError(c, "Erro ao salvar o perfil.")
		return
	}

	response.SuccessWithMessage(c, "Perfil atualizado.", gin.H{"user": info})
}
