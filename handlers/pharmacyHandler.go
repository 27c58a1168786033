package handlers

import (
	"CareDesk/middlewares"
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"CareDesk/services"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PharmacyHandler struct {
	service services.PharmacyService
}

func NewPharmacyHandler(service services.PharmacyService) *PharmacyHandler {
	return &PharmacyHandler{service: service}
}

type stockRequest struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

// medicineView adds the derived stock level to a medicine.
type medicineView struct {
	*models.Medicine
	StockLevel string `json:"stock_level"`
}

func viewOf(m *models.Medicine) medicineView {
	return medicineView{Medicine: m, StockLevel: m.StockLevel()}
}

func (h *PharmacyHandler) CreateMedicine(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var m models.Medicine
	if !bindJSON(c, &m) {
		return
	}
	if err := h.service.Create(c.Request.Context(), actor, &m); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, viewOf(&m), http.StatusCreated)
}

func (h *PharmacyHandler) GetMedicineByID(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	m, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, viewOf(m), http.StatusOK)
}

func (h *PharmacyHandler) GetAllMedicines(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	page, ok := pageOf(c)
	if !ok {
		return
	}
	medicines, err := h.service.List(c.Request.Context(), actor, repositories.MedicineFilter{
		Name: c.Query("name"),
		Page: page,
	})
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	views := make([]medicineView, len(medicines))
	for i := range medicines {
		views[i] = viewOf(&medicines[i])
	}
	middlewares.RespondJSON(c, views, http.StatusOK)
}

// UpdateMedicine changes descriptive fields; a stock value in the body is
// ignored.
func (h *PharmacyHandler) UpdateMedicine(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var m models.Medicine
	if !bindJSON(c, &m) {
		return
	}
	m.MedicineID = c.Param("id")
	updated, err := h.service.Update(c.Request.Context(), actor, &m)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, viewOf(updated), http.StatusOK)
}

func (h *PharmacyHandler) Dispense(c *gin.Context) {
	h.adjust(c, h.service.Dispense)
}

func (h *PharmacyHandler) Restock(c *gin.Context) {
	h.adjust(c, h.service.Restock)
}

type stockChange func(ctx context.Context, actor policy.Actor, id string, qty int, reason string) (*models.Medicine, error)

func (h *PharmacyHandler) adjust(c *gin.Context, change stockChange) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req stockRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := change(c.Request.Context(), actor, c.Param("id"), req.Quantity, req.Reason)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, viewOf(m), http.StatusOK)
}

func (h *PharmacyHandler) GetMovements(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	page, ok := pageOf(c)
	if !ok {
		return
	}
	moves, err := h.service.Movements(c.Request.Context(), actor, c.Param("id"), page)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, moves, http.StatusOK)
}
