package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Barcode  string          `json:"barcode"   validate:"required,min=1,max=64"`
	Name     string          `json:"name"      validate:"required,min=1,max=200"`
	Category string          `json:"category"  validate:"required,min=1"`
	Price    decimal.Decimal `json:"price"     validate:"required"`
	Stock    int             `json:"stock"     validate:"min=0"`
	MinStock int             `json:"min_stock" validate:"omitempty,min=0"`
}

type CreateClientRequest struct {
	Name     string  `json:"name"     validate:"required,min=2,max=150"`
	Document *string `json:"document" validate:"omitempty,max=20"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"    validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID       string          `json:"id"`
	Barcode  string          `json:"barcode"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// PriceCheckResponse is returned by the public price check endpoint (no auth
// required).
type PriceCheckResponse struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
}

type ClientResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Document *string `json:"document"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
}
