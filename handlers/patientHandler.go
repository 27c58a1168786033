package handlers

import (
	"CareDesk/middlewares"
	"CareDesk/models"
	"CareDesk/repositories"
	"CareDesk/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	service services.PatientService
}

func NewPatientHandler(service services.PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

func (h *PatientHandler) CreatePatient(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var patient models.Patient
	if !bindJSON(c, &patient) {
		return
	}
	if err := h.service.Create(c.Request.Context(), actor, &patient); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, patient, http.StatusCreated)
}

func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	patient, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, patient, http.StatusOK)
}

func (h *PatientHandler) GetAllPatients(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	page, ok := pageOf(c)
	if !ok {
		return
	}
	patients, err := h.service.List(c.Request.Context(), actor, repositories.PatientFilter{
		UserID: c.Query("user_id"),
		Search: c.Query("search"),
		Page:   page,
	})
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, patients, http.StatusOK)
}

func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var patient models.Patient
	if !bindJSON(c, &patient) {
		return
	}
	patient.PatientID = c.Param("id")
	updated, err := h.service.Update(c.Request.Context(), actor, &patient)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, updated, http.StatusOK)
}

func (h *PatientHandler) DeletePatient(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
