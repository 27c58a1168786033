package handlers

import (
	"CareDesk/middlewares"
	"CareDesk/models"
	"CareDesk/repositories"
	"CareDesk/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MedicalRecordHandler serves the append-only record store. There is no
// update or delete route.
type MedicalRecordHandler struct {
	service services.MedicalRecordService
}

func NewMedicalRecordHandler(service services.MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{service: service}
}

func (h *MedicalRecordHandler) CreateMedicalRecord(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var rec models.MedicalRecord
	if !bindJSON(c, &rec) {
		return
	}
	if err := h.service.Create(c.Request.Context(), actor, &rec); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, rec, http.StatusCreated)
}

func (h *MedicalRecordHandler) GetMedicalRecordByID(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	rec, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, rec, http.StatusOK)
}

func (h *MedicalRecordHandler) GetAllMedicalRecords(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	page, ok := pageOf(c)
	if !ok {
		return
	}
	records, err := h.service.List(c.Request.Context(), actor, repositories.MedicalRecordFilter{
		PatientID: c.Query("patient_id"),
		DoctorID:  c.Query("doctor_id"),
		Page:      page,
	})
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, records, http.StatusOK)
}
