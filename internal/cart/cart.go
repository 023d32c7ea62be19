// Package cart holds the in-progress sale for a terminal: its lines, discount,
// delivery fee, client and tenders. A Cart is plain state threaded through the
// services — it never touches the catalog or the database itself.
package cart

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrLineNotFound = errors.New("product is not in the cart")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrNothingDue   = errors.New("order is already fully tendered")
)

// Item is one cart line. UnitPrice is snapshotted when the product is added
// and never re-read from the catalog.
type Item struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the single in-progress sale of a terminal.
type Cart struct {
	// ClientID nil means walk-in
	ClientID    *uuid.UUID      `json:"client_id"`
	Items       []Item          `json:"items"`
	Discount    decimal.Decimal `json:"discount"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tenders     []Tender        `json:"-"`
}

func New() *Cart {
	return &Cart{
		Discount:    decimal.Zero,
		DeliveryFee: decimal.Zero,
	}
}

// AddItem merges into an existing line (same product) by incrementing its
// quantity, otherwise appends a new line at the given snapshot price.
func (c *Cart) AddItem(productID uuid.UUID, name string, unitPrice decimal.Decimal, qty int) {
	for idx := range c.Items {
		if c.Items[idx].ProductID == productID {
			c.Items[idx].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, Item{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  qty,
	})
}

// SetQuantity replaces a line's quantity; qty <= 0 removes the line.
func (c *Cart) SetQuantity(productID uuid.UUID, qty int) error {
	for idx := range c.Items {
		if c.Items[idx].ProductID == productID {
			if qty <= 0 {
				c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			} else {
				c.Items[idx].Quantity = qty
			}
			return nil
		}
	}
	return ErrLineNotFound
}

// RemoveItem drops a line entirely.
func (c *Cart) RemoveItem(productID uuid.UUID) error {
	return c.SetQuantity(productID, 0)
}

// ApplyDiscount sets an absolute discount. Values above the current subtotal
// are clamped so the item total can never go negative.
func (c *Cart) ApplyDiscount(value decimal.Decimal) {
	if sub := c.Subtotal(); value.GreaterThan(sub) {
		value = sub
	}
	c.Discount = value
}

// ApplyDiscountPercent resolves pct against the current subtotal and stores
// the resulting absolute value. The percentage is NOT re-derived when lines
// change afterwards.
func (c *Cart) ApplyDiscountPercent(pct decimal.Decimal) {
	value := c.Subtotal().Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
	c.ApplyDiscount(value)
}

func (c *Cart) SetDeliveryFee(amount decimal.Decimal) {
	c.DeliveryFee = amount
}

// SetClient attaches a client reference; nil reverts to walk-in.
func (c *Cart) SetClient(clientID *uuid.UUID) {
	c.ClientID = clientID
}

// Clear resets to an empty cart.
func (c *Cart) Clear() {
	*c = *New()
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Subtotal is the sum of line subtotals before discount and delivery fee.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// Total = max(0, subtotal − discount) + delivery fee. Always >= 0.
func (c *Cart) Total() decimal.Decimal {
	t := c.Subtotal().Sub(c.Discount)
	if t.IsNegative() {
		t = decimal.Zero
	}
	return t.Add(c.DeliveryFee)
}

// Snapshot is the serializable cart state parked by a suspend. Tenders are
// deliberately absent: payment starts over on resume.
type Snapshot struct {
	ClientID    *uuid.UUID      `json:"client_id"`
	Items       []Item          `json:"items"`
	Discount    decimal.Decimal `json:"discount"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
}

// Snapshot copies the cart's sale state.
func (c *Cart) Snapshot() Snapshot {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return Snapshot{
		ClientID:    c.ClientID,
		Items:       items,
		Discount:    c.Discount,
		DeliveryFee: c.DeliveryFee,
	}
}

// FromSnapshot rebuilds a cart from a parked snapshot.
func FromSnapshot(s Snapshot) *Cart {
	c := New()
	c.ClientID = s.ClientID
	c.Items = append(c.Items, s.Items...)
	if !s.Discount.IsZero() {
		c.Discount = s.Discount
	}
	if !s.DeliveryFee.IsZero() {
		c.DeliveryFee = s.DeliveryFee
	}
	return c
}
