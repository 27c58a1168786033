package repositories

import (
	"CareDesk/apperrors"
	"CareDesk/cache"
	"CareDesk/database"
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const queryTimeout = 5 * time.Second

// NewGormStore wires the gorm repositories over one connection and cache.
func NewGormStore(db *gorm.DB, c *cache.Cache) *Store {
	return &Store{
		Profiles:       NewProfileRepository(db, c),
		Credentials:    NewCredentialRepository(db),
		Roles:          NewRoleRepository(db, c),
		Patients:       NewPatientRepository(db, c),
		Doctors:        NewDoctorRepository(db, c),
		Appointments:   NewAppointmentRepository(db),
		MedicalRecords: NewMedicalRecordRepository(db),
		Bills:          NewBillRepository(db),
		Medicines:      NewMedicineRepository(db),
	}
}

// readThrough serves key from the cache, falling back to load and filling
// the cache on a miss. Cache failures are logged and otherwise ignored.
func readThrough[T any](ctx context.Context, c *cache.Cache, key string, ttl time.Duration, load func(*T) error) (*T, error) {
	var v T
	found, err := c.GetJSON(ctx, key, &v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to get from cache")
	}
	if found {
		return &v, nil
	}

	if err := load(&v); err != nil {
		return nil, err
	}
	if err := c.SetJSON(ctx, key, v, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to set cache")
	}
	return &v, nil
}

func invalidate(ctx context.Context, c *cache.Cache, keys ...string) {
	if err := c.DeleteBatch(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("failed to invalidate cache")
	}
}

func paginate(q *gorm.DB, p Page) *gorm.DB {
	p = p.Normalize()
	return q.Limit(p.Limit).Offset(p.Offset)
}

// missOrConflict explains a conditional update that matched no row: the row
// is either gone or no longer in the expected state.
func missOrConflict(db *gorm.DB, model interface{}, column, id, what string) error {
	var n int64
	if err := db.Model(model).Where(column+" = ?", id).Count(&n).Error; err != nil {
		return database.TranslateWriteError(err, what)
	}
	if n == 0 {
		return apperrors.NotFound("%s %s not found", what, id)
	}
	return apperrors.Conflict("%s %s was modified concurrently", what, id)
}

func notFoundAs(err error, what, id string) error {
	if database.IsNotFound(err) {
		return apperrors.NotFound("%s %s not found", what, id)
	}
	return database.TranslateWriteError(err, what)
}
