package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/response"
	"github.com/nexoraai/nexora_server/internal/service"
)

// PlanChecker reports whether a user may generate content.
type PlanChecker interface {
	HasActivePlan(userID string) (bool, error)
}

// RequirePlan answers 402 to authenticated users whose trial or pro plan has
// lapsed. Anonymous callers pass; routes that need a user add Auth first.
func RequirePlan(plans PlanChecker, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		userID, ok := GetUserID(c)
		if !ok {
			c.Next()
			return
		}

		active, err := plans.HasActivePlan(userID)
		if err != nil {
			logger.WithComponent("middleware").WithError(err).WithField("user_id", userID).Error("plan check failed")
			response.ServerError(c, "Falha ao verificar o plano.")
			c.Abort()
			return
		}
		if !active {
			response.PlanError(c, service.ErrPlanRequired.Error())
			c.Abort()
			return
		}

		c.Next()
	}
}
