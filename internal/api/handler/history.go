package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/nexoraai/nexora_server/internal/api/middleware"
	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/response"
	"github.com/nexoraai/nexora_server/internal/service"
)

type HistoryHandler struct {
	historyService *service.HistoryService
}

func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// List
// GET /api/history
func (h *HistoryHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	records, err := h.historyService.List(c.Request.Context(), userID)
	if err != nil {
		logger.WithComponent("history").WithError(err).WithField("user_id", userID).Error("history list failed")
		response.ServerError(c, "")
		return
	}
	response.Success(c, gin.H{"history": records})
}

// Add
// POST /api/history
func (h *HistoryHandler) Add(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var record model.GenerationRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		response.ParamError(c, "")
		return
	}

	records, err := h.historyService.Add(c.Request.Context(), userID, record)
	if err != nil {
		if errors.Is(err, service.ErrEmptyHistoryRecord) {
			response.ParamError(c, err.Error())
			return
		}
		logger.WithComponent("history").WithError(err).WithField("user_id", userID).Error("history append failed")
		response.ServerError(c, "")
		return
	}
	response.Success(c, gin.H{"history": records})
}

// Clear
// DELETE /api/history
func (h *HistoryHandler) Clear(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.historyService.Clear(c.Request.Context(), userID); err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, gin.H{"history": []model.GenerationRecord{}})
}
