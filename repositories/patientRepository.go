package repositories

import (
	"CareDesk/apperrors"
	"CareDesk/cache"
	"CareDesk/database"
	"CareDesk/models"
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	PatientCacheExpiry = 7 * 24 * time.Hour
)

func patientCacheKey(id string) string {
	return fmt.Sprintf("patient_cache:%s", id)
}

type patientRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewPatientRepository(db *gorm.DB, cache *cache.Cache) PatientRepository {
	return &patientRepository{db: db, cache: cache}
}

func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(patient).Error; err != nil {
		return database.TranslateWriteError(err, "patient")
	}
	return nil
}

func (r *patientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return readThrough(ctx, r.cache, patientCacheKey(id), PatientCacheExpiry, func(p *models.Patient) error {
		err := r.db.WithContext(ctx).Preload("Profile").First(p, "patient_id = ?", id).Error
		return notFoundAs(err, "patient", id)
	})
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).Preload("Profile").First(&patient, "user_id = ?", userID).Error
	if err != nil {
		return nil, notFoundAs(err, "patient for profile", userID)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, f PatientFilter) ([]models.Patient, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []models.Patient{}, nil
	}
	q := r.db.WithContext(ctx).Preload("Profile")
	if f.UserID != "" {
		q = q.Where("patients.user_id = ?", f.UserID)
	}
	if f.IDs != nil {
		q = q.Where("patients.patient_id IN ?", f.IDs)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		needle := "%" + strings.ToLower(search) + "%"
		q = q.Joins("JOIN profiles ON profiles.id = patients.user_id").
			Where("(LOWER(profiles.name) LIKE ? OR LOWER(profiles.email) LIKE ?)", needle, needle)
	}

	var patients []models.Patient
	if err := paginate(q, f.Page).Order("patients.created_at DESC").Find(&patients).Error; err != nil {
		return nil, database.TranslateWriteError(err, "patients")
	}
	return patients, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *models.Patient) error {
	res := r.db.WithContext(ctx).Model(&models.Patient{}).
		Where("patient_id = ?", patient.PatientID).
		Updates(map[string]interface{}{
			"dob":               patient.DOB,
			"gender":            patient.Gender,
			"phone":             patient.Phone,
			"address":           patient.Address,
			"emergency_contact": patient.EmergencyContact,
		})
	if res.Error != nil {
		return database.TranslateWriteError(res.Error, "patient")
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, patient.PatientID); err != nil {
			return err
		}
	}
	invalidate(ctx, r.cache, patientCacheKey(patient.PatientID))
	return nil
}

func (r *patientRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Patient{}, "patient_id = ?", id)
	if res.Error != nil {
		return database.TranslateDeleteError(res.Error, "patient")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("patient %s not found", id)
	}
	invalidate(ctx, r.cache, patientCacheKey(id))
	return nil
}

func (r *patientRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Patient{}).Count(&n).Error
	return n, database.TranslateWriteError(err, "patients")
}

func (r *patientRepository) CareTeam(ctx context.Context, patientID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT d.user_id FROM doctors d
		WHERE d.doctor_id IN (
			SELECT doctor_id FROM appointments WHERE patient_id = ?
			UNION
			SELECT doctor_id FROM medical_records WHERE patient_id = ?
		)`, patientID, patientID).Scan(&ids).Error
	if err != nil {
		return nil, database.TranslateWriteError(err, "care team")
	}
	return ids, nil
}

func (r *patientRepository) AttendedBy(ctx context.Context, doctorID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Raw(`
		SELECT patient_id FROM appointments WHERE doctor_id = ?
		UNION
		SELECT patient_id FROM medical_records WHERE doctor_id = ?`, doctorID, doctorID).Scan(&ids).Error
	if err != nil {
		return nil, database.TranslateWriteError(err, "attended patients")
	}
	return ids, nil
}
