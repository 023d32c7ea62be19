package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	Terminal       int             `json:"terminal"        validate:"required,min=1"`
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
}

type CloseSessionRequest struct {
	SessionID   string          `json:"session_id"   validate:"required,uuid"`
	CountedCash decimal.Decimal `json:"counted_cash" validate:"min=0"`
	Notes       *string         `json:"notes"`
}

type WithdrawalRequest struct {
	SessionID string          `json:"session_id" validate:"required,uuid"`
	Amount    decimal.Decimal `json:"amount"     validate:"required"`
	Reason    string          `json:"reason"     validate:"required,min=3"`
}

type ReinforcementRequest struct {
	SessionID string          `json:"session_id" validate:"required,uuid"`
	Amount    decimal.Decimal `json:"amount"     validate:"required"`
	Notes     string          `json:"notes"      validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// MethodBalances breaks an expected balance down per payment method.
// Only cash includes the opening balance.
type MethodBalances struct {
	Cash     decimal.Decimal `json:"cash"`
	Debit    decimal.Decimal `json:"debit"`
	Credit   decimal.Decimal `json:"credit"`
	Transfer decimal.Decimal `json:"transfer"`
	Total    decimal.Decimal `json:"total"`
}

type VarianceResponse struct {
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
	Level   string          `json:"level"` // normal | warning | critical
}

type CloseSessionResponse struct {
	SessionID   string           `json:"session_id"`
	Expected    MethodBalances   `json:"expected"`
	CountedCash decimal.Decimal  `json:"counted_cash"`
	Variance    VarianceResponse `json:"variance"`
	Status      string           `json:"status"`
}

type SessionReportResponse struct {
	SessionID      string            `json:"session_id"`
	Terminal       int               `json:"terminal"`
	Operator       string            `json:"operator"`
	OpeningBalance decimal.Decimal   `json:"opening_balance"`
	Expected       MethodBalances    `json:"expected"`
	CountedCash    *decimal.Decimal  `json:"counted_cash"`
	Variance       *VarianceResponse `json:"variance"`
	Status         string            `json:"status"`
	Notes          *string           `json:"notes"`
	OpenedAt       string            `json:"opened_at"`
	ClosedAt       *string           `json:"closed_at"`
}

type MovementResponse struct {
	ID          string          `json:"id"`
	Direction   string          `json:"direction"`
	Category    string          `json:"category"`
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	ReferenceID *string         `json:"reference_id"`
	CreatedAt   string          `json:"created_at"`
}
