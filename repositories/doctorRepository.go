package repositories

import (
	"CareDesk/apperrors"
	"CareDesk/cache"
	"CareDesk/database"
	"CareDesk/models"
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DoctorCacheExpiry = 7 * 24 * time.Hour
)

func doctorCacheKey(id string) string {
	return fmt.Sprintf("doctor_cache:%s", id)
}

type doctorRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewDoctorRepository(db *gorm.DB, cache *cache.Cache) DoctorRepository {
	return &doctorRepository{db: db, cache: cache}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(doctor).Error; err != nil {
		return database.TranslateWriteError(err, "doctor")
	}
	return nil
}

func (r *doctorRepository) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return readThrough(ctx, r.cache, doctorCacheKey(id), DoctorCacheExpiry, func(d *models.Doctor) error {
		err := r.db.WithContext(ctx).Preload("Profile").First(d, "doctor_id = ?", id).Error
		return notFoundAs(err, "doctor", id)
	})
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := r.db.WithContext(ctx).Preload("Profile").First(&doctor, "user_id = ?", userID).Error
	if err != nil {
		return nil, notFoundAs(err, "doctor for profile", userID)
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context, f DoctorFilter) ([]models.Doctor, error) {
	q := r.db.WithContext(ctx).Preload("Profile")
	if f.Specialization != "" {
		q = q.Where("specialization = ?", f.Specialization)
	}

	var doctors []models.Doctor
	if err := paginate(q, f.Page).Order("created_at DESC").Find(&doctors).Error; err != nil {
		return nil, database.TranslateWriteError(err, "doctors")
	}
	return doctors, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *models.Doctor) error {
	res := r.db.WithContext(ctx).Model(&models.Doctor{}).
		Where("doctor_id = ?", doctor.DoctorID).
		Updates(map[string]interface{}{
			"specialization": doctor.Specialization,
			"license_number": doctor.LicenseNumber,
			"schedule":       doctor.Schedule,
		})
	if res.Error != nil {
		return database.TranslateWriteError(res.Error, "doctor")
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, doctor.DoctorID); err != nil {
			return err
		}
	}
	invalidate(ctx, r.cache, doctorCacheKey(doctor.DoctorID))
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Doctor{}, "doctor_id = ?", id)
	if res.Error != nil {
		return database.TranslateDeleteError(res.Error, "doctor")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("doctor %s not found", id)
	}
	invalidate(ctx, r.cache, doctorCacheKey(id))
	return nil
}

func (r *doctorRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Doctor{}).Count(&n).Error
	return n, database.TranslateWriteError(err, "doctors")
}
