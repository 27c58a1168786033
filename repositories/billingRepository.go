package repositories

import (
	"CareDesk/database"
	"CareDesk/models"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type billRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) Create(ctx context.Context, b *models.Bill) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error; err != nil {
		return database.TranslateWriteError(err, "bill")
	}
	return nil
}

func (r *billRepository) GetByID(ctx context.Context, id string) (*models.Bill, error) {
	var b models.Bill
	if err := r.db.WithContext(ctx).Preload("Patient").First(&b, "bill_id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, "bill", id)
	}
	return &b, nil
}

func (f BillFilter) apply(q *gorm.DB) *gorm.DB {
	if f.PatientID != "" {
		q = q.Where("patient_id = ?", f.PatientID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DueBefore != nil {
		q = q.Where("due_date IS NOT NULL AND due_date < ?", *f.DueBefore)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at < ?", *f.CreatedTo)
	}
	return q
}

func (r *billRepository) List(ctx context.Context, f BillFilter) ([]models.Bill, error) {
	q := f.apply(r.db.WithContext(ctx).Preload("Patient"))

	var bills []models.Bill
	if err := paginate(q, f.Page).Order("created_at DESC").Find(&bills).Error; err != nil {
		return nil, database.TranslateWriteError(err, "bills")
	}
	return bills, nil
}

func (r *billRepository) UpdateStatus(ctx context.Context, id string, from, to models.BillStatus) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.Bill{}).
		Where("bill_id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return database.TranslateWriteError(res.Error, "bill")
	}
	if res.RowsAffected == 0 {
		return missOrConflict(db, &models.Bill{}, "bill_id", id, "bill")
	}
	return nil
}

func (r *billRepository) Summary(ctx context.Context, f BillFilter) (models.BillingSummary, error) {
	var rows []struct {
		Status models.BillStatus
		Total  float64
		N      int64
	}
	err := f.apply(r.db.WithContext(ctx).Model(&models.Bill{})).
		Select("status, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return models.BillingSummary{}, database.TranslateWriteError(err, "billing summary")
	}

	var s models.BillingSummary
	for _, row := range rows {
		s.AddGroup(row.Status, row.Total, row.N)
	}
	return s, nil
}
