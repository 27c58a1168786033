package handlers

import (
	"CareDesk/middlewares"
	"CareDesk/models"
	"CareDesk/repositories"
	"CareDesk/services"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	service services.BillingService
	now     func() time.Time
}

func NewBillingHandler(service services.BillingService, now func() time.Time) *BillingHandler {
	if now == nil {
		now = time.Now
	}
	return &BillingHandler{service: service, now: now}
}

type billStatusRequest struct {
	Status models.BillStatus `json:"status" binding:"required"`
}

func (h *BillingHandler) CreateBilling(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var bill models.Bill
	if !bindJSON(c, &bill) {
		return
	}
	if err := h.service.Create(c.Request.Context(), actor, &bill); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, bill, http.StatusCreated)
}

func (h *BillingHandler) GetBillingByID(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	bill, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, bill, http.StatusOK)
}

func (h *BillingHandler) billFilter(c *gin.Context) (repositories.BillFilter, bool) {
	page, ok := pageOf(c)
	if !ok {
		return repositories.BillFilter{}, false
	}
	filter := repositories.BillFilter{PatientID: c.Query("patient_id"), Page: page}
	if v := c.Query("status"); v != "" {
		status, err := models.ParseBillStatus(v)
		if err != nil {
			middlewares.HttpError(c, err)
			return filter, false
		}
		filter.Status = status
	}
	return filter, true
}

func (h *BillingHandler) GetAllBillings(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	filter, ok := h.billFilter(c)
	if !ok {
		return
	}
	bills, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, bills, http.StatusOK)
}

// GetBillingSummary totals the visible bills per status.
func (h *BillingHandler) GetBillingSummary(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	filter, ok := h.billFilter(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), actor, filter)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, summary, http.StatusOK)
}

func (h *BillingHandler) UpdateBillingStatus(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req billStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	bill, err := h.service.Transition(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, bill, http.StatusOK)
}

// EvaluateOverdue runs the overdue pass as the system actor. The route is
// guarded by the operator bearer token.
func (h *BillingHandler) EvaluateOverdue(c *gin.Context) {
	report, err := h.service.EvaluateOverdue(c.Request.Context(), services.SystemActor, h.now())
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, report, http.StatusOK)
}
