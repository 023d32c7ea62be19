package cart

import (
	"tillpos/internal/model"

	"github.com/shopspring/decimal"
)

// Tender is one payment instrument applied toward the cart's total.
// Amount is the revenue portion — always capped to what was due when the
// tender arrived. For cash, ReceivedAmount holds what the customer handed
// over and ChangeAmount what goes back; overpayment is only ever change.
type Tender struct {
	Method         model.PaymentMethod `json:"method"`
	Amount         decimal.Decimal     `json:"amount"`
	ReceivedAmount *decimal.Decimal    `json:"received_amount,omitempty"`
	ChangeAmount   *decimal.Decimal    `json:"change_amount,omitempty"`
}

// TenderedTotal is the sum of capped tender amounts.
func (c *Cart) TenderedTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range c.Tenders {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// RemainingDue is what is still owed. Never negative: each tender was capped
// when it was accepted.
func (c *Cart) RemainingDue() decimal.Decimal {
	due := c.Total().Sub(c.TenderedTotal())
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// AddTender accepts a payment in arrival order. The recorded amount is
// min(amount, remaining due); for cash, change = max(0, received − remaining
// due before this tender). received nil on a cash tender defaults to amount.
func (c *Cart) AddTender(method model.PaymentMethod, amount decimal.Decimal, received *decimal.Decimal) (Tender, error) {
	due := c.RemainingDue()
	if due.IsZero() {
		return Tender{}, ErrNothingDue
	}

	applied := amount
	if applied.GreaterThan(due) {
		applied = due
	}

	t := Tender{Method: method, Amount: applied}
	if method == model.MethodCash {
		recv := amount
		if received != nil {
			recv = *received
		}
		change := recv.Sub(due)
		if change.IsNegative() {
			change = decimal.Zero
		}
		t.ReceivedAmount = &recv
		t.ChangeAmount = &change
	}

	c.Tenders = append(c.Tenders, t)
	return t, nil
}

// ClearTenders drops all accepted tenders so payment can restart. Used when
// the operator corrects a mis-keyed split.
func (c *Cart) ClearTenders() {
	c.Tenders = nil
}

// ChangeTotal sums change across cash tenders.
func (c *Cart) ChangeTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range c.Tenders {
		if t.ChangeAmount != nil {
			sum = sum.Add(*t.ChangeAmount)
		}
	}
	return sum
}
