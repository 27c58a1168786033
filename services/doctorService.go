package services

import (
	"CareDesk/apperrors"
	"CareDesk/database"
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"CareDesk/utils"
	"context"

	"github.com/pkg/errors"
)

type DoctorService interface {
	Create(ctx context.Context, actor policy.Actor, doctor *models.Doctor) error
	Get(ctx context.Context, actor policy.Actor, id string) (*models.Doctor, error)
	List(ctx context.Context, actor policy.Actor, f repositories.DoctorFilter) ([]models.Doctor, error)
	Update(ctx context.Context, actor policy.Actor, doctor *models.Doctor) (*models.Doctor, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

type doctorService struct {
	store  *repositories.Store
	refs   refs
	locker database.Locker
}

func NewDoctorService(store *repositories.Store, r refs, locker database.Locker) DoctorService {
	return &doctorService{store: store, refs: r, locker: locker}
}

func doctorResource(d *models.Doctor) policy.Resource {
	return policy.Resource{Kind: policy.KindDoctors, OwnerID: d.UserID}
}

func (s *doctorService) Create(ctx context.Context, actor policy.Actor, doctor *models.Doctor) error {
	if err := policy.Check(actor, policy.ActionCreate, doctorResource(doctor)); err != nil {
		return err
	}
	if err := utils.ValidateDoctor(doctor); err != nil {
		return err
	}
	if _, err := s.refs.profile(ctx, doctor.UserID); err != nil {
		return err
	}

	return database.WithLock(ctx, s.locker, onboardLock(doctor.UserID), func() error {
		if _, err := s.store.Doctors.GetByUserID(ctx, doctor.UserID); err == nil {
			return apperrors.Duplicate("profile %s is already onboarded as a doctor", doctor.UserID)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		doctor.DoctorID = models.NewID()
		doctor.Profile = nil
		return s.store.Doctors.Create(ctx, doctor)
	})
}

func (s *doctorService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Doctor, error) {
	doctor, err := s.store.Doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.ActionRead, doctorResource(doctor)); err != nil {
		return nil, err
	}
	return doctor, nil
}

func (s *doctorService) List(ctx context.Context, actor policy.Actor, f repositories.DoctorFilter) ([]models.Doctor, error) {
	if err := policy.Check(actor, policy.ActionRead, policy.Resource{Kind: policy.KindDoctors}); err != nil {
		return nil, err
	}
	return s.store.Doctors.List(ctx, f)
}

func (s *doctorService) Update(ctx context.Context, actor policy.Actor, doctor *models.Doctor) (*models.Doctor, error) {
	current, err := s.store.Doctors.GetByID(ctx, doctor.DoctorID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.ActionWrite, doctorResource(current)); err != nil {
		return nil, err
	}

	next := *current
	next.Specialization = doctor.Specialization
	next.LicenseNumber = doctor.LicenseNumber
	next.Schedule = doctor.Schedule
	if err := utils.ValidateDoctor(&next); err != nil {
		return nil, err
	}
	if err := s.store.Doctors.Update(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *doctorService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	doctor, err := s.store.Doctors.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Check(actor, policy.ActionWrite, doctorResource(doctor)); err != nil {
		return err
	}
	return s.store.Doctors.Delete(ctx, id)
}
