package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/nexoraai/nexora_server/internal/api/middleware"
	"github.com/nexoraai/nexora_server/internal/model/dto"
	"github.com/nexoraai/nexora_server/internal/pkg/graph"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/oauth"
	"github.com/nexoraai/nexora_server/internal/pkg/response"
	"github.com/nexoraai/nexora_server/internal/service"
)

type MetaHandler struct {
	metaService *service.MetaService
}

func NewMetaHandler(metaService *service.MetaService) *MetaHandler {
	return &MetaHandler{metaService: metaService}
}

// Start redirects to the Facebook login dialog.
// GET /auth/meta/start
func (h *MetaHandler) Start(c *gin.Context) {
	authURL, err := h.metaService.StartURL(c.Request.Context(), middleware.Owner(c))
	if err != nil {
		if errors.Is(err, service.ErrMetaNotConfigured) {
			response.ParamError(c, err.Error())
			return
		}
		logger.WithComponent("meta").WithError(err).Error("state generation failed")
		response.ServerError(c, "")
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// Callback
// GET /auth/meta/callback
func (h *MetaHandler) Callback(c *gin.Context) {
	owner, err := h.metaService.Callback(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		if errors.Is(err, oauth.ErrInvalidState) || errors.Is(err, oauth.ErrEmptyState) {
			response.ParamError(c, "Estado inválido (CSRF)")
			return
		}
		logger.WithComponent("meta").WithError(err).Error("meta callback failed")
		c.Redirect(http.StatusFound, "/?connected=0&error="+url.QueryEscape(err.Error()))
		return
	}

	logger.WithComponent("meta").WithField("owner", owner).Info("meta connected")
	c.Redirect(http.StatusFound, "/?connected=1")
}

// Pages
// GET /api/meta/pages
func (h *MetaHandler) Pages(c *gin.Context) {
	pages, err := h.metaService.Pages(middleware.Owner(c))
	if err != nil {
		response.AuthError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"pages": pages})
}

// SelectPage
// POST /api/meta/select-page
func (h *MetaHandler) SelectPage(c *gin.Context) {
	var req dto.SelectPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, service.ErrPageNotFound.Error())
		return
	}

	selected, err := h.metaService.SelectPage(c.Request.Context(), middleware.Owner(c), req.PageID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"selected": selected})
}

// SyncInstagram
// POST /api/meta/sync-instagram
func (h *MetaHandler) SyncInstagram(c *gin.Context) {
	var req dto.SyncInstagramRequest
	// empty body means the default limit
	_ = c.ShouldBindJSON(&req)

	count, err := h.metaService.SyncInstagram(c.Request.Context(), middleware.Owner(c), req.Limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

func (h *MetaHandler) writeError(c *gin.Context, err error) {
	var graphErr *graph.Error
	switch {
	case errors.Is(err, service.ErrMetaNotConnected):
		response.AuthError(c, err.Error())
	case errors.Is(err, service.ErrPageNotFound),
		errors.Is(err, service.ErrNoInstagramAccount),
		errors.Is(err, service.ErrNoInstagramSelected):
		response.ParamError(c, err.Error())
	case errors.As(err, &graphErr):
		response.UpstreamError(c, graphErr.Message)
	default:
		logger.WithComponent("meta").WithError(err).Error("meta request failed")
		response.ServerError(c, err.Error())
	}
}
