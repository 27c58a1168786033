package models

import (
	"time"
)

// Bill model
type Bill struct {
	BillID      string     `gorm:"primaryKey;column:bill_id;size:36" json:"bill_id"`
	PatientID   string     `gorm:"column:patient_id;size:36;not null;index" json:"patient_id"`
	Amount      float64    `gorm:"column:amount;not null;check:amount >= 0" json:"amount"`
	Description string     `gorm:"column:description;type:text" json:"description,omitempty"`
	Status      BillStatus `gorm:"column:status;type:varchar(20);not null;index;check:status IN ('pending', 'paid', 'overdue')" json:"status"`
	DueDate     *time.Time `gorm:"column:due_date;index" json:"due_date,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Patient     *Patient   `gorm:"foreignKey:PatientID;references:PatientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"patient,omitempty"`
}

func (Bill) TableName() string {
	return "billing"
}

// PastDue reports whether an unpaid bill's due date has elapsed at now.
func (b *Bill) PastDue(now time.Time) bool {
	return b.Status == BillPending && b.DueDate != nil && b.DueDate.Before(now)
}

// BillingSummary totals bill amounts per status.
type BillingSummary struct {
	Paid    float64 `json:"paid"`
	Pending float64 `json:"pending"`
	Overdue float64 `json:"overdue"`
	Count   int64   `json:"count"`
}

// Add folds one bill into the summary.
func (s *BillingSummary) Add(status BillStatus, amount float64) {
	s.AddGroup(status, amount, 1)
}

// AddGroup folds n bills of one status totalling total.
func (s *BillingSummary) AddGroup(status BillStatus, total float64, n int64) {
	switch status {
	case BillPaid:
		s.Paid += total
	case BillPending:
		s.Pending += total
	case BillOverdue:
		s.Overdue += total
	}
	s.Count += n
}
