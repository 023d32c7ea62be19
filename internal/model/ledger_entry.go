package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is the external bookkeeping row posted asynchronously for each
// committed cash movement. The ledger worker is the only writer.
type LedgerEntry struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Account   string            `gorm:"not null;index"` // e.g. "sales:cash"
	Direction MovementDirection `gorm:"type:varchar(10);not null"`
	Amount    decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	Reference uuid.UUID         `gorm:"type:uuid;not null;index"` // originating movement
	SessionID uuid.UUID         `gorm:"type:uuid;not null;index"`
	PostedAt  time.Time
}

// TableName overrides GORM's default pluralization.
func (LedgerEntry) TableName() string { return "ledger_entries" }
