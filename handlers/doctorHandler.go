package handlers

import (
	"CareDesk/middlewares"
	"CareDesk/models"
	"CareDesk/repositories"
	"CareDesk/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type DoctorHandler struct {
	service services.DoctorService
}

func NewDoctorHandler(service services.DoctorService) *DoctorHandler {
	return &DoctorHandler{service: service}
}

func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var doctor models.Doctor
	if !bindJSON(c, &doctor) {
		return
	}
	if err := h.service.Create(c.Request.Context(), actor, &doctor); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, doctor, http.StatusCreated)
}

func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	doctor, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, doctor, http.StatusOK)
}

// GetAllDoctors serves the doctor directory, optionally by specialization.
func (h *DoctorHandler) GetAllDoctors(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	page, ok := pageOf(c)
	if !ok {
		return
	}
	doctors, err := h.service.List(c.Request.Context(), actor, repositories.DoctorFilter{
		Specialization: c.Query("specialization"),
		Page:           page,
	})
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, doctors, http.StatusOK)
}

func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var doctor models.Doctor
	if !bindJSON(c, &doctor) {
		return
	}
	doctor.DoctorID = c.Param("id")
	updated, err := h.service.Update(c.Request.Context(), actor, &doctor)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, updated, http.StatusOK)
}

func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
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
