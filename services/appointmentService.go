package services

import (
	"CareDesk/apperrors"
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"CareDesk/utils"
	"context"
	"strings"
)

type AppointmentService interface {
	// Create books an appointment. Every booking starts as scheduled; an
	// empty status defaults to it.
	Create(ctx context.Context, actor policy.Actor, a *models.Appointment) error
	Get(ctx context.Context, actor policy.Actor, id string) (*models.Appointment, error)
	List(ctx context.Context, actor policy.Actor, f repositories.AppointmentFilter) ([]models.Appointment, error)
	// Transition moves the appointment out of its current status with a
	// compare-and-swap. Notes are replaced when non-nil.
	Transition(ctx context.Context, actor policy.Actor, id string, to models.AppointmentStatus, notes *string) (*models.Appointment, error)
}

type appointmentService struct {
	store *repositories.Store
	refs  refs
}

func NewAppointmentService(store *repositories.Store, r refs) AppointmentService {
	return &appointmentService{store: store, refs: r}
}

func (s *appointmentService) Create(ctx context.Context, actor policy.Actor, a *models.Appointment) error {
	if a.Status == "" {
		a.Status = models.AppointmentScheduled
	}
	patient, err := s.refs.patient(ctx, a.PatientID)
	if err != nil {
		return err
	}
	doctor, err := s.refs.doctor(ctx, a.DoctorID)
	if err != nil {
		return err
	}

	res := policy.Resource{
		Kind:     policy.KindAppointments,
		OwnerID:  patient.UserID,
		DoctorID: doctor.UserID,
		Status:   string(a.Status),
	}
	if err := policy.Check(actor, policy.ActionCreate, res); err != nil {
		return err
	}

	a.Notes = strings.TrimSpace(a.Notes)
	if err := utils.ValidateAppointment(a); err != nil {
		return err
	}
	if a.Status != models.AppointmentScheduled {
		return apperrors.InvalidTransition("appointments are booked as %s, not %s", models.AppointmentScheduled, a.Status)
	}
	a.AppointmentID = models.NewID()
	a.Patient, a.Doctor = nil, nil
	if err := s.store.Appointments.Create(ctx, a); err != nil {
		return err
	}
	a.Patient, a.Doctor = patient, doctor
	return nil
}

func (s *appointmentService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Appointment, error) {
	a, err := s.store.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.refs.appointmentResource(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.ActionRead, res); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *appointmentService) List(ctx context.Context, actor policy.Actor, f repositories.AppointmentFilter) ([]models.Appointment, error) {
	sc, ok, err := s.refs.clinicalScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nothingVisible[models.Appointment](actor, policy.KindAppointments, models.RoleDoctor, models.RolePatient)
	}
	if !sc.restrict(&f.PatientID, &f.DoctorID, &f.Involving) {
		return []models.Appointment{}, nil
	}

	rows, err := s.store.Appointments.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return visible(ctx, actor, rows, s.refs.appointmentResource)
}

func (s *appointmentService) Transition(ctx context.Context, actor policy.Actor, id string, to models.AppointmentStatus, notes *string) (*models.Appointment, error) {
	a, err := s.store.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.refs.appointmentResource(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.ActionWrite, res); err != nil {
		return nil, err
	}
	if err := models.CheckAppointmentTransition(a.Status, to); err != nil {
		return nil, err
	}
	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		notes = &trimmed
	}
	if err := s.store.Appointments.UpdateStatus(ctx, id, a.Status, to, notes); err != nil {
		return nil, err
	}

	a.Status = to
	if notes != nil {
		a.Notes = *notes
	}
	return a, nil
}
