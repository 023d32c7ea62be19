package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovement records every stock change on a product.
// Created automatically when a sale commits or an order is voided.
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind      string    `gorm:"not null"` // "sale" | "void_restore"
	Quantity  int       `gorm:"not null"` // positive = in, negative = out
	StockBefore int     `gorm:"not null"`
	StockAfter  int     `gorm:"not null"`
	Reason      string
	ReferenceID *uuid.UUID `gorm:"type:uuid"` // order_id if applicable
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
