package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/nexoraai/nexora_server/internal/api/middleware"
	"github.com/nexoraai/nexora_server/internal/model/dto"
	"github.com/nexoraai/nexora_server/internal/pkg/identity"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/response"
	"github.com/nexoraai/nexora_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "E-mail e senha são obrigatórios.")
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailTaken), errors.Is(err, identity.ErrSignUpFailed):
			response.ParamError(c, err.Error())
		default:
			logger.WithComponent("auth").WithError(err).Error("register failed")
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, resp.Message, gin.H{
		"token": resp.Token,
		"user":  resp.User,
	})
}

// Login
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Informe e-mail e senha.")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			response.AuthError(c, err.Error())
		default:
			logger.WithComponent("auth").WithError(err).Error("login failed")
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{
		"token": resp.Token,
		"user":  resp.User,
		"plan":  resp.Plan,
	})
}

// Plan
// GET /auth/plan
func (h *AuthHandler) Plan(c *gin.Context) {
	user, ok := middleware.GetIdentity(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	resp, err := h.authService.CurrentPlan(user)
	if err != nil {
		logger.WithComponent("auth").WithError(err).WithField("user_id", user.ID).Error("plan lookup failed")
		response.ServerError(c, "Erro ao consultar o plano.")
		return
	}

	response.Success(c, gin.H{
		"plan": resp.Plan,
		"user": resp.User,
	})
}
