package services

import (
	"CareDesk/apperrors"
	"CareDesk/database"
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"CareDesk/utils"
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

type PatientService interface {
	Create(ctx context.Context, actor policy.Actor, patient *models.Patient) error
	Get(ctx context.Context, actor policy.Actor, id string) (*models.Patient, error)
	List(ctx context.Context, actor policy.Actor, f repositories.PatientFilter) ([]models.Patient, error)
	// Update replaces the demographic fields; ids and the profile binding
	// never change.
	Update(ctx context.Context, actor policy.Actor, patient *models.Patient) (*models.Patient, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

type patientService struct {
	store  *repositories.Store
	refs   refs
	locker database.Locker
	now    func() time.Time
}

func NewPatientService(store *repositories.Store, r refs, locker database.Locker, now func() time.Time) PatientService {
	return &patientService{store: store, refs: r, locker: locker, now: now}
}

func onboardLock(userID string) string {
	return fmt.Sprintf("onboard_lock:%s", userID)
}

func (s *patientService) Create(ctx context.Context, actor policy.Actor, patient *models.Patient) error {
	res := policy.Resource{Kind: policy.KindPatients, OwnerID: patient.UserID}
	if err := policy.Check(actor, policy.ActionCreate, res); err != nil {
		return err
	}
	if err := utils.ValidatePatient(patient, s.now()); err != nil {
		return err
	}
	if _, err := s.refs.profile(ctx, patient.UserID); err != nil {
		return err
	}

	return database.WithLock(ctx, s.locker, onboardLock(patient.UserID), func() error {
		if _, err := s.store.Patients.GetByUserID(ctx, patient.UserID); err == nil {
			return apperrors.Duplicate("profile %s is already onboarded as a patient", patient.UserID)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		patient.PatientID = models.NewID()
		patient.Profile = nil
		return s.store.Patients.Create(ctx, patient)
	})
}

func (s *patientService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Patient, error) {
	patient, err := s.store.Patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.refs.patientResource(ctx, actor, patient)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.ActionRead, res); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *patientService) List(ctx context.Context, actor policy.Actor, f repositories.PatientFilter) ([]models.Patient, error) {
	sc, ok, err := s.refs.clinicalScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nothingVisible[models.Patient](actor, policy.KindPatients, models.RoleDoctor, models.RolePatient)
	}
	if sc.patientID != "" || sc.doctorID != "" {
		var allowed []string
		if sc.doctorID != "" {
			attended, err := s.store.Patients.AttendedBy(ctx, sc.doctorID)
			if err != nil {
				return nil, err
			}
			allowed = append(allowed, attended...)
		}
		if sc.patientID != "" {
			allowed = append(allowed, sc.patientID)
		}
		f.IDs = intersect(f.IDs, allowed)
	}

	rows, err := s.store.Patients.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return visible(ctx, actor, rows, func(ctx context.Context, p *models.Patient) (policy.Resource, error) {
		return s.refs.patientResource(ctx, actor, p)
	})
}

// intersect narrows requested ids to allowed ones. A nil request means all.
func intersect(requested, allowed []string) []string {
	if requested == nil {
		if allowed == nil {
			return []string{}
		}
		return allowed
	}
	keep := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		keep[id] = true
	}
	out := []string{}
	for _, id := range requested {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s *patientService) Update(ctx context.Context, actor policy.Actor, patient *models.Patient) (*models.Patient, error) {
	current, err := s.store.Patients.GetByID(ctx, patient.PatientID)
	if err != nil {
		return nil, err
	}
	res, err := s.refs.patientResource(ctx, actor, current)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.ActionWrite, res); err != nil {
		return nil, err
	}

	next := *current
	next.DOB = patient.DOB
	next.Gender = patient.Gender
	next.Phone = patient.Phone
	next.Address = patient.Address
	next.EmergencyContact = patient.EmergencyContact
	if err := utils.ValidatePatient(&next, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.Patients.Update(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *patientService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	patient, err := s.store.Patients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	res, err := s.refs.patientResource(ctx, actor, patient)
	if err != nil {
		return err
	}
	if err := policy.Check(actor, policy.ActionWrite, res); err != nil {
		return err
	}
	return s.store.Patients.Delete(ctx, id)
}
