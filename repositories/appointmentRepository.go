package repositories

import (
	"CareDesk/database"
	"CareDesk/models"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Appointments are not cached: their status is the subject of
// compare-and-swap updates.
type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error; err != nil {
		return database.TranslateWriteError(err, "appointment")
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		First(&a, "appointment_id = ?", id).Error
	if err != nil {
		return nil, notFoundAs(err, "appointment", id)
	}
	return &a, nil
}

func (i Involving) apply(q *gorm.DB) *gorm.DB {
	switch {
	case i.IsZero():
		return q
	case i.PatientID == "":
		return q.Where("doctor_id = ?", i.DoctorID)
	case i.DoctorID == "":
		return q.Where("patient_id = ?", i.PatientID)
	}
	return q.Where("(patient_id = ? OR doctor_id = ?)", i.PatientID, i.DoctorID)
}

func (f AppointmentFilter) apply(q *gorm.DB) *gorm.DB {
	q = f.Involving.apply(q)
	if f.PatientID != "" {
		q = q.Where("patient_id = ?", f.PatientID)
	}
	if f.DoctorID != "" {
		q = q.Where("doctor_id = ?", f.DoctorID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("appointment_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("appointment_date < ?", *f.To)
	}
	return q
}

func (r *appointmentRepository) List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	q := f.apply(r.db.WithContext(ctx).Preload("Patient").Preload("Doctor"))

	var appointments []models.Appointment
	if err := paginate(q, f.Page).Order("appointment_date DESC").Find(&appointments).Error; err != nil {
		return nil, database.TranslateWriteError(err, "appointments")
	}
	return appointments, nil
}

func (r *appointmentRepository) Count(ctx context.Context, f AppointmentFilter) (int64, error) {
	var n int64
	err := f.apply(r.db.WithContext(ctx).Model(&models.Appointment{})).Count(&n).Error
	return n, database.TranslateWriteError(err, "appointments")
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id string, from, to models.AppointmentStatus, notes *string) error {
	updates := map[string]interface{}{"status": to}
	if notes != nil {
		updates["notes"] = *notes
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&models.Appointment{}).
		Where("appointment_id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return database.TranslateWriteError(res.Error, "appointment")
	}
	if res.RowsAffected == 0 {
		return missOrConflict(db, &models.Appointment{}, "appointment_id", id, "appointment")
	}
	return nil
}

type medicalRecordRepository struct {
	db *gorm.DB
}

func NewMedicalRecordRepository(db *gorm.DB) MedicalRecordRepository {
	return &medicalRecordRepository{db: db}
}

func (r *medicalRecordRepository) Create(ctx context.Context, rec *models.MedicalRecord) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return database.TranslateWriteError(err, "medical record")
	}
	return nil
}

func (r *medicalRecordRepository) GetByID(ctx context.Context, id string) (*models.MedicalRecord, error) {
	var rec models.MedicalRecord
	err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		First(&rec, "record_id = ?", id).Error
	if err != nil {
		return nil, notFoundAs(err, "medical record", id)
	}
	return &rec, nil
}

func (r *medicalRecordRepository) List(ctx context.Context, f MedicalRecordFilter) ([]models.MedicalRecord, error) {
	q := f.Involving.apply(r.db.WithContext(ctx).Preload("Patient").Preload("Doctor"))
	if f.PatientID != "" {
		q = q.Where("patient_id = ?", f.PatientID)
	}
	if f.DoctorID != "" {
		q = q.Where("doctor_id = ?", f.DoctorID)
	}

	var records []models.MedicalRecord
	if err := paginate(q, f.Page).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, database.TranslateWriteError(err, "medical records")
	}
	return records, nil
}
