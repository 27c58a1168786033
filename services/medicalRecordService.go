package services

import (
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"CareDesk/utils"
	"context"
)

// MedicalRecordService has no update or delete: a new visit is a new record.
type MedicalRecordService interface {
	Create(ctx context.Context, actor policy.Actor, rec *models.MedicalRecord) error
	Get(ctx context.Context, actor policy.Actor, id string) (*models.MedicalRecord, error)
	List(ctx context.Context, actor policy.Actor, f repositories.MedicalRecordFilter) ([]models.MedicalRecord, error)
}

type medicalRecordService struct {
	store *repositories.Store
	refs  refs
}

func NewMedicalRecordService(store *repositories.Store, r refs) MedicalRecordService {
	return &medicalRecordService{store: store, refs: r}
}

func (s *medicalRecordService) Create(ctx context.Context, actor policy.Actor, rec *models.MedicalRecord) error {
	patient, err := s.refs.patient(ctx, rec.PatientID)
	if err != nil {
		return err
	}
	doctor, err := s.refs.doctor(ctx, rec.DoctorID)
	if err != nil {
		return err
	}
	res := policy.Resource{Kind: policy.KindMedicalRecords, OwnerID: patient.UserID, DoctorID: doctor.UserID}
	if err := policy.Check(actor, policy.ActionCreate, res); err != nil {
		return err
	}
	if err := utils.ValidateMedicalRecord(rec); err != nil {
		return err
	}

	rec.RecordID = models.NewID()
	rec.Patient, rec.Doctor = nil, nil
	if err := s.store.MedicalRecords.Create(ctx, rec); err != nil {
		return err
	}
	rec.Patient, rec.Doctor = patient, doctor
	return nil
}

func (s *medicalRecordService) Get(ctx context.Context, actor policy.Actor, id string) (*models.MedicalRecord, error) {
	rec, err := s.store.MedicalRecords.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.refs.recordResource(ctx, rec)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.ActionRead, res); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *medicalRecordService) List(ctx context.Context, actor policy.Actor, f repositories.MedicalRecordFilter) ([]models.MedicalRecord, error) {
	sc, ok, err := s.refs.clinicalScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nothingVisible[models.MedicalRecord](actor, policy.KindMedicalRecords, models.RoleDoctor, models.RolePatient)
	}
	if !sc.restrict(&f.PatientID, &f.DoctorID, &f.Involving) {
		return []models.MedicalRecord{}, nil
	}

	rows, err := s.store.MedicalRecords.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return visible(ctx, actor, rows, s.refs.recordResource)
}
