package repositories

import (
	"CareDesk/apperrors"
	"CareDesk/database"
	"CareDesk/models"
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type medicineRepository struct {
	db *gorm.DB
}

func NewMedicineRepository(db *gorm.DB) MedicineRepository {
	return &medicineRepository{db: db}
}

func (r *medicineRepository) Create(ctx context.Context, m *models.Medicine, initial *models.StockMovement) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if initial == nil {
			return nil
		}
		initial.MedicineID = m.MedicineID
		initial.ResultingStock = m.Stock
		return tx.Omit(clause.Associations).Create(initial).Error
	})
	return database.TranslateWriteError(err, "medicine")
}

func (r *medicineRepository) GetByID(ctx context.Context, id string) (*models.Medicine, error) {
	var m models.Medicine
	if err := r.db.WithContext(ctx).First(&m, "medicine_id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, "medicine", id)
	}
	return &m, nil
}

func (r *medicineRepository) List(ctx context.Context, f MedicineFilter) ([]models.Medicine, error) {
	q := r.db.WithContext(ctx)
	if f.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Name)+"%")
	}

	var medicines []models.Medicine
	if err := paginate(q, f.Page).Order("name").Find(&medicines).Error; err != nil {
		return nil, database.TranslateWriteError(err, "medicines")
	}
	return medicines, nil
}

func (r *medicineRepository) Update(ctx context.Context, m *models.Medicine) error {
	res := r.db.WithContext(ctx).Model(&models.Medicine{}).
		Where("medicine_id = ?", m.MedicineID).
		Updates(map[string]interface{}{
			"name":         m.Name,
			"price":        m.Price,
			"manufacturer": m.Manufacturer,
			"description":  m.Description,
		})
	if res.Error != nil {
		return database.TranslateWriteError(res.Error, "medicine")
	}
	if res.RowsAffected == 0 {
		_, err := r.GetByID(ctx, m.MedicineID)
		return err
	}
	return nil
}

func (r *medicineRepository) AdjustStock(ctx context.Context, id string, expected int, mv *models.StockMovement) (*models.Medicine, error) {
	next := expected + mv.Delta
	if next < 0 {
		return nil, apperrors.InvalidValue("stock of medicine %s cannot go below zero", id)
	}

	var out models.Medicine
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Medicine{}).
			Where("medicine_id = ? AND stock = ?", id, expected).
			Update("stock", next)
		if res.Error != nil {
			return database.TranslateWriteError(res.Error, "medicine")
		}
		if res.RowsAffected == 0 {
			return missOrConflict(tx, &models.Medicine{}, "medicine_id", id, "medicine")
		}

		mv.MedicineID = id
		mv.ResultingStock = next
		if err := tx.Omit(clause.Associations).Create(mv).Error; err != nil {
			return database.TranslateWriteError(err, "stock movement")
		}
		return tx.First(&out, "medicine_id = ?", id).Error
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, database.TranslateWriteError(err, "medicine")
	}
	return &out, nil
}

func (r *medicineRepository) Movements(ctx context.Context, medicineID string, page Page) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	q := r.db.WithContext(ctx).Where("medicine_id = ?", medicineID)
	if err := paginate(q, page).Order("created_at DESC").Find(&movements).Error; err != nil {
		return nil, database.TranslateWriteError(err, "stock movements")
	}
	return movements, nil
}
