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
	ProfileCacheExpiry = 7 * 24 * time.Hour
	RoleCacheExpiry    = 10 * time.Minute
)

func profileCacheKey(id string) string {
	return fmt.Sprintf("profile_cache:%s", id)
}

func rolesCacheKey(userID string) string {
	return fmt.Sprintf("roles_cache:%s", userID)
}

type profileRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewProfileRepository(db *gorm.DB, cache *cache.Cache) ProfileRepository {
	return &profileRepository{db: db, cache: cache}
}

func (r *profileRepository) Create(ctx context.Context, p *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return database.TranslateWriteError(err, "profile")
	}
	return nil
}

func (r *profileRepository) CreateWithCredential(ctx context.Context, p *models.Profile, c *models.Credential) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return database.TranslateWriteError(err, "profile")
		}
		c.UserID = p.ID
		c.UpdatedAt = time.Now()
		if err := tx.Create(c).Error; err != nil {
			return database.TranslateWriteError(err, "credential")
		}
		return nil
	})
	return err
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return readThrough(ctx, r.cache, profileCacheKey(id), ProfileCacheExpiry, func(p *models.Profile) error {
		err := r.db.WithContext(ctx).First(p, "id = ?", id).Error
		return notFoundAs(err, "profile", id)
	})
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).First(&p, "email = ?", email).Error; err != nil {
		return nil, notFoundAs(err, "profile", email)
	}
	return &p, nil
}

func (r *profileRepository) List(ctx context.Context, page Page) ([]models.Profile, error) {
	var profiles []models.Profile
	err := paginate(r.db.WithContext(ctx), page).Order("created_at DESC").Find(&profiles).Error
	if err != nil {
		return nil, database.TranslateWriteError(err, "profiles")
	}
	return profiles, nil
}

func (r *profileRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dependents int64
		if err := tx.Model(&models.Patient{}).Where("user_id = ?", id).Count(&dependents).Error; err != nil {
			return err
		}
		if dependents == 0 {
			if err := tx.Model(&models.Doctor{}).Where("user_id = ?", id).Count(&dependents).Error; err != nil {
				return err
			}
		}
		if dependents > 0 {
			return apperrors.ReferenceInUse("profile %s is referenced by a patient or doctor", id)
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.RoleAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Credential{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Profile{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("profile %s not found", id)
		}
		return nil
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return err
		}
		return database.TranslateDeleteError(err, "profile")
	}
	invalidate(ctx, r.cache, profileCacheKey(id), rolesCacheKey(id))
	return nil
}

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Save(ctx context.Context, c *models.Credential) error {
	c.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "updated_at"}),
	}).Create(c).Error
	return database.TranslateWriteError(err, "credential")
}

func (r *credentialRepository) Get(ctx context.Context, userID string) (*models.Credential, error) {
	var c models.Credential
	if err := r.db.WithContext(ctx).First(&c, "user_id = ?", userID).Error; err != nil {
		return nil, notFoundAs(err, "credential", userID)
	}
	return &c, nil
}

type roleRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewRoleRepository(db *gorm.DB, cache *cache.Cache) RoleRepository {
	return &roleRepository{db: db, cache: cache}
}

func (r *roleRepository) Assign(ctx context.Context, ra *models.RoleAssignment) error {
	if err := r.db.WithContext(ctx).Create(ra).Error; err != nil {
		return database.TranslateWriteError(err, "role assignment")
	}
	invalidate(ctx, r.cache, rolesCacheKey(ra.UserID))
	return nil
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (*models.RoleAssignment, error) {
	var ra models.RoleAssignment
	if err := r.db.WithContext(ctx).First(&ra, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, "role assignment", id)
	}
	return &ra, nil
}

func (r *roleRepository) Revoke(ctx context.Context, id string) error {
	ra, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&models.RoleAssignment{}, "id = ?", id)
	if res.Error != nil {
		return database.TranslateDeleteError(res.Error, "role assignment")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("role assignment %s not found", id)
	}
	invalidate(ctx, r.cache, rolesCacheKey(ra.UserID))
	return nil
}

// ListByUser reads through the roles cache.
func (r *roleRepository) ListByUser(ctx context.Context, userID string) ([]models.RoleAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	roles, err := readThrough(ctx, r.cache, rolesCacheKey(userID), RoleCacheExpiry, func(out *[]models.RoleAssignment) error {
		err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(out).Error
		return database.TranslateWriteError(err, "role assignments")
	})
	if err != nil {
		return nil, err
	}
	return *roles, nil
}
