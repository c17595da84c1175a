package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nexoraai/nexora_server/internal/pkg/ws"
)

// QueueInspector reports the payment backlog.
type QueueInspector interface {
	Length(ctx context.Context) (int64, error)
}

type HealthHandler struct {
	hub   *ws.Hub
	queue QueueInspector
}

func NewHealthHandler(hub *ws.Hub, queue QueueInspector) *HealthHandler {
	return &HealthHandler{hub: hub, queue: queue}
}

// Health
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{"ok": true, "status": "online", "db": "supabase"}
	if h.hub != nil {
		body["connections"] = h.hub.ConnectionCount()
	}
	if h.queue != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if n, err := h.queue.Length(ctx); err == nil {
			body["paymentQueue"] = n
		}
	}
	c.JSON(200, body)
}
