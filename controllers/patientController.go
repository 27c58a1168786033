package controllers

import (
	"CareDesk/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPatientRoutes wires the clinical routes: patients, doctors,
// appointments and medical records.
func SetupPatientRoutes(router gin.IRoutes, patientHandler *handlers.PatientHandler, doctorHandler *handlers.DoctorHandler, appointmentHandler *handlers.AppointmentHandler, recordHandler *handlers.MedicalRecordHandler) {
	router.POST("/doctors", doctorHandler.CreateDoctor)
	router.GET("/doctors/:id", doctorHandler.GetDoctorByID)
	router.PUT("/doctors/:id", doctorHandler.UpdateDoctor)
	router.DELETE("/doctors/:id", doctorHandler.DeleteDoctor)
	router.GET("/doctors", doctorHandler.GetAllDoctors)

	router.POST("/patients", patientHandler.CreatePatient)
	router.GET("/patients/:id", patientHandler.GetPatientByID)
	router.PUT("/patients/:id", patientHandler.UpdatePatient)
	router.DELETE("/patients/:id", patientHandler.DeletePatient)
	router.GET("/patients", patientHandler.GetAllPatients)

	router.POST("/appointments", appointmentHandler.CreateAppointment)
	router.GET("/appointments", appointmentHandler.GetAllAppointments)
	router.GET("/appointments/:id", appointmentHandler.GetAppointmentByID)
	router.POST("/appointments/:id/status", appointmentHandler.UpdateAppointmentStatus)

	router.POST("/medical-records", recordHandler.CreateMedicalRecord)
	router.GET("/medical-records", recordHandler.GetAllMedicalRecords)
	router.GET("/medical-records/:id", recordHandler.GetMedicalRecordByID)
}
