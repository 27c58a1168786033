package handlers

import (
	"CareDesk/middlewares"
	"CareDesk/models"
	"CareDesk/repositories"
	"CareDesk/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	service services.AppointmentService
}

func NewAppointmentHandler(service services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

type appointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required"`
	Notes  *string                  `json:"notes"`
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var appointment models.Appointment
	if !bindJSON(c, &appointment) {
		return
	}
	if err := h.service.Create(c.Request.Context(), actor, &appointment); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, appointment, http.StatusCreated)
}

func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	appointment, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, appointment, http.StatusOK)
}

// GetAllAppointments filters by patient_id, doctor_id, status and a
// [from, to) window on the appointment date.
func (h *AppointmentHandler) GetAllAppointments(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	page, ok := pageOf(c)
	if !ok {
		return
	}
	filter := repositories.AppointmentFilter{
		PatientID: c.Query("patient_id"),
		DoctorID:  c.Query("doctor_id"),
		Page:      page,
	}
	if v := c.Query("status"); v != "" {
		status, err := models.ParseAppointmentStatus(v)
		if err != nil {
			middlewares.HttpError(c, err)
			return
		}
		filter.Status = status
	}
	if filter.From, ok = timeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = timeQuery(c, "to"); !ok {
		return
	}

	appointments, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, appointments, http.StatusOK)
}

func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req appointmentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	appointment, err := h.service.Transition(c.Request.Context(), actor, c.Param("id"), req.Status, req.Notes)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, appointment, http.StatusOK)
}
