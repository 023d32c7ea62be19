package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the closed set of persisted order states.
type OrderStatus string

const (
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is a committed sale. It only ever exists as Completed (written by the
// checkout transaction) or Cancelled (void); an in-progress sale lives in the
// cart, never here.
type Order struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TicketNumber int       `gorm:"uniqueIndex;not null"`
	SessionID    uuid.UUID `gorm:"type:uuid;index;not null"`
	OperatorID   uuid.UUID `gorm:"type:uuid;not null"`
	// ClientID nil means walk-in
	ClientID    *uuid.UUID      `gorm:"type:uuid;index"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DeliveryFee decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items    []OrderItem    `gorm:"foreignKey:OrderID"`
	Payments []OrderPayment `gorm:"foreignKey:OrderID"`
	Client   *Client        `gorm:"foreignKey:ClientID"`
	Operator *User          `gorm:"foreignKey:OperatorID"`
}

// OrderItem is a snapshot line: the unit price is the one captured when the
// item entered the cart, not the catalog price at commit time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity  int             `gorm:"not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// OrderPayment is one tender applied to the order. ReceivedAmount and
// ChangeAmount are set for cash only; Amount is always the revenue portion
// (overpayment lives in ChangeAmount, never in Amount).
type OrderPayment struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID        uuid.UUID        `gorm:"type:uuid;index;not null"`
	Method         PaymentMethod    `gorm:"type:varchar(20);not null"`
	Amount         decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	ReceivedAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ChangeAmount   *decimal.Decimal `gorm:"type:decimal(12,2)"`
}
