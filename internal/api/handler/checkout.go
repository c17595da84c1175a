package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/nexoraai/nexora_server/internal/api/middleware"
	"github.com/nexoraai/nexora_server/internal/model/dto"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/response"
	"github.com/nexoraai/nexora_server/internal/service"
)

const maxWebhookBody = 64 << 10

type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// Plans
// GET /api/checkout/plans
func (h *CheckoutHandler) Plans(c *gin.Context) {
	response.Success(c, gin.H{"plans": h.checkoutService.Catalog()})
}

// Preference
// POST /api/checkout/preference
func (h *CheckoutHandler) Preference(c *gin.Context) {
	user, ok := middleware.GetIdentity(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, service.ErrUnknownPlanType.Error())
		return
	}

	pref, err := h.checkoutService.CreatePreference(c.Request.Context(), user, req.PlanType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPlanType):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrCheckoutUnavailable):
			response.ServerError(c, err.Error())
		default:
			logger.WithComponent("checkout").WithError(err).WithField("user_id", user.ID).Error("preference failed")
			response.UpstreamError(c, "Erro ao iniciar o pagamento.")
		}
		return
	}

	response.Success(c, gin.H{
		"preferenceId": pref.ID,
		"initPoint":    pref.InitPoint,
	})
}

// Webhook receives Mercado Pago notifications. Unknown shapes are
// acknowledged so the provider stops retrying.
// POST /api/checkout/webhook
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	body, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))

	paymentID, topic, err := service.ParseNotification(body, c.Query("data.id"))
	if topic == "" {
		topic = c.DefaultQuery("type", c.Query("topic"))
	}
	if err != nil {
		logger.WithComponent("checkout").WithField("topic", topic).Info("webhook without payment id")
		response.Success(c, nil)
		return
	}

	if err := h.checkoutService.HandleNotification(c.Request.Context(), paymentID, topic); err != nil {
		logger.WithComponent("checkout").WithError(err).WithField("payment_id", paymentID).Error("webhook processing failed")
		response.ServerError(c, "")
		return
	}

	response.Success(c, nil)
}
