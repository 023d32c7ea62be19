package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"omitempty,min=1"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"` // <= 0 removes the line
}

// DiscountRequest carries exactly one of Value (absolute) or Percent.
type DiscountRequest struct {
	Value   *decimal.Decimal `json:"value"`
	Percent *decimal.Decimal `json:"percent"`
}

type DeliveryFeeRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"min=0"`
}

// SetClientRequest with a nil ClientID reverts the cart to walk-in.
type SetClientRequest struct {
	ClientID *string `json:"client_id" validate:"omitempty,uuid"`
}

type AddTenderRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash debit credit transfer"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
	// ReceivedAmount is cash only: what the customer actually handed over.
	ReceivedAmount *decimal.Decimal `json:"received_amount"`
}

type SuspendRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CartItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type TenderResponse struct {
	Method         string           `json:"method"`
	Amount         decimal.Decimal  `json:"amount"`
	ReceivedAmount *decimal.Decimal `json:"received_amount,omitempty"`
	ChangeAmount   *decimal.Decimal `json:"change_amount,omitempty"`
}

type CartResponse struct {
	ClientID     *string            `json:"client_id"`
	Items        []CartItemResponse `json:"items"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	Discount     decimal.Decimal    `json:"discount"`
	DeliveryFee  decimal.Decimal    `json:"delivery_fee"`
	Total        decimal.Decimal    `json:"total"`
	Tenders      []TenderResponse   `json:"tenders"`
	RemainingDue decimal.Decimal    `json:"remaining_due"`
}

type SuspendedOrderResponse struct {
	ID          string             `json:"id"`
	Terminal    int                `json:"terminal"`
	Items       []CartItemResponse `json:"items"`
	Discount    decimal.Decimal    `json:"discount"`
	DeliveryFee decimal.Decimal    `json:"delivery_fee"`
	ClientID    *string            `json:"client_id"`
	Total       decimal.Decimal    `json:"total"`
	Reason      string             `json:"reason"`
	SuspendedBy string             `json:"suspended_by"`
	SuspendedAt string             `json:"suspended_at"`
}
