package handlers

import (
	"CareDesk/middlewares"
	"CareDesk/services"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	service services.DashboardService
	now     func() time.Time
}

func NewDashboardHandler(service services.DashboardService, now func() time.Time) *DashboardHandler {
	if now == nil {
		now = time.Now
	}
	return &DashboardHandler{service: service, now: now}
}

func (h *DashboardHandler) GetStats(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), actor, h.now())
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, stats, http.StatusOK)
}
