package models

import (
	"time"
)

const (
	inStockThreshold  = 200
	lowStockThreshold = 50
)

// Medicine model. Stock only changes through dispense and restock.
type Medicine struct {
	MedicineID   string    `gorm:"primaryKey;column:medicine_id;size:36" json:"medicine_id"`
	Name         string    `gorm:"column:name;not null;index" json:"name"`
	Stock        int       `gorm:"column:stock;not null;check:stock >= 0" json:"stock"`
	Price        float64   `gorm:"column:price;not null;check:price >= 0" json:"price"`
	Manufacturer string    `gorm:"column:manufacturer" json:"manufacturer,omitempty"`
	Description  string    `gorm:"column:description;type:text" json:"description,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Medicine) TableName() string {
	return "pharmacy"
}

// StockLevel buckets the current stock for display.
func (m *Medicine) StockLevel() string {
	switch {
	case m.Stock > inStockThreshold:
		return "in-stock"
	case m.Stock > lowStockThreshold:
		return "low-stock"
	default:
		return "critical"
	}
}

// StockMovement is one audited stock delta.
type StockMovement struct {
	MovementID     string       `gorm:"primaryKey;column:movement_id;size:36" json:"movement_id"`
	MedicineID     string       `gorm:"column:medicine_id;size:36;not null;index" json:"medicine_id"`
	Kind           MovementKind `gorm:"column:kind;type:varchar(20);not null" json:"kind"`
	Delta          int          `gorm:"column:delta;not null" json:"delta"`
	ResultingStock int          `gorm:"column:resulting_stock;not null" json:"resulting_stock"`
	ActorID        string       `gorm:"column:actor_id;size:36" json:"actor_id"`
	Reason         string       `gorm:"column:reason" json:"reason,omitempty"`
	CreatedAt      time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Medicine       *Medicine    `gorm:"foreignKey:MedicineID;references:MedicineID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}
