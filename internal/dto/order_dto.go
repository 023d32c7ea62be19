package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type VoidOrderRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID           string              `json:"id"`
	TicketNumber int                 `json:"ticket_number"`
	SessionID    string              `json:"session_id"`
	ClientID     *string             `json:"client_id"`
	Items        []OrderItemResponse `json:"items"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	Discount     decimal.Decimal     `json:"discount"`
	DeliveryFee  decimal.Decimal     `json:"delivery_fee"`
	Total        decimal.Decimal     `json:"total"`
	Payments     []TenderResponse    `json:"payments"`
	Change       decimal.Decimal     `json:"change"`
	Status       string              `json:"status"`
	CreatedAt    string              `json:"created_at"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
