package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus is the closed set of cash session states.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// MovementDirection tells whether a movement adds to or drains the drawer.
type MovementDirection string

const (
	Inflow  MovementDirection = "inflow"
	Outflow MovementDirection = "outflow"
)

// MovementCategory classifies why a movement happened.
type MovementCategory string

const (
	CategorySale          MovementCategory = "sale"
	CategoryWithdrawal    MovementCategory = "withdrawal"
	CategoryReinforcement MovementCategory = "reinforcement"
	CategoryVoid          MovementCategory = "void"
)

// PaymentMethod is the closed set of accepted tender methods.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodDebit    PaymentMethod = "debit"
	MethodCredit   PaymentMethod = "credit"
	MethodTransfer PaymentMethod = "transfer"
)

// AllMethods lists every payment method in reporting order.
var AllMethods = []PaymentMethod{MethodCash, MethodDebit, MethodCredit, MethodTransfer}

// CashSession covers one open/close-bounded period of a terminal's drawer.
// At most one open session exists per terminal — enforced at open time.
type CashSession struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Terminal       int             `gorm:"not null;index"`
	OperatorID     uuid.UUID       `gorm:"type:uuid;not null"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ExpectedBalance is computed on close: OpeningBalance + SUM(cash movements)
	ExpectedBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CountedBalance  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Variance        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	VariancePct     *decimal.Decimal `gorm:"type:decimal(5,2)"`
	Status          SessionStatus    `gorm:"type:varchar(20);not null;default:'open'"`
	// VarianceLevel: "normal" | "warning" | "critical"
	VarianceLevel *string `gorm:"type:varchar(20)"`
	Notes         *string
	OpenedAt      time.Time
	ClosedAt      *time.Time

	Movements []CashMovement `gorm:"foreignKey:SessionID"`
}

// CashMovement is an immutable event in the drawer ledger.
// Movements are NEVER modified or deleted — voids create inverse entries.
type CashMovement struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID   uuid.UUID         `gorm:"type:uuid;index;not null"`
	Direction   MovementDirection `gorm:"type:varchar(10);not null"`
	Category    MovementCategory  `gorm:"type:varchar(20);not null"`
	Method      PaymentMethod     `gorm:"type:varchar(20);not null"`
	Amount      decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	Description string            `gorm:"not null"`
	// CreatedBy is the operator who caused the movement (sale, manual, void)
	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	// ReferenceID links to the originating order or manual operation
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

// Signed returns the amount with the direction applied.
func (m CashMovement) Signed() decimal.Decimal {
	if m.Direction == Outflow {
		return m.Amount.Neg()
	}
	return m.Amount
}
