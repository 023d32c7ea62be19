package service

import (
	"context"
	"fmt"

	"tillpos/internal/cart"
	"tillpos/internal/dto"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartService exposes every cart mutation for a terminal. Each operation
// first checks that the terminal's cash session is open — an idle register
// takes no sale input.
type CartService interface {
	Get(ctx context.Context, terminal int) (*dto.CartResponse, error)
	AddItem(ctx context.Context, terminal int, req dto.AddItemRequest) (*dto.CartResponse, error)
	SetQuantity(ctx context.Context, terminal int, productID uuid.UUID, qty int) (*dto.CartResponse, error)
	RemoveItem(ctx context.Context, terminal int, productID uuid.UUID) (*dto.CartResponse, error)
	ApplyDiscount(ctx context.Context, terminal int, req dto.DiscountRequest) (*dto.CartResponse, error)
	SetDeliveryFee(ctx context.Context, terminal int, amount decimal.Decimal) (*dto.CartResponse, error)
	SetClient(ctx context.Context, terminal int, req dto.SetClientRequest) (*dto.CartResponse, error)
	Clear(ctx context.Context, terminal int) error
}

type cartService struct {
	carts    *cart.Store
	products repository.ProductRepository
	clients  repository.ClientRepository
	sessions SessionService
}

func NewCartService(carts *cart.Store, products repository.ProductRepository, clients repository.ClientRepository, sessions SessionService) CartService {
	return &cartService{carts: carts, products: products, clients: clients, sessions: sessions}
}

func (s *cartService) Get(ctx context.Context, terminal int) (*dto.CartResponse, error) {
	return CartToResponse(s.carts.Get(terminal)), nil
}

// AddItem snapshots the catalog price at add-time; the line keeps that price
// even if the catalog changes before checkout.
func (s *cartService) AddItem(ctx context.Context, terminal int, req dto.AddItemRequest) (*dto.CartResponse, error) {
	if _, err := s.sessions.RequireOpen(ctx, terminal); err != nil {
		return nil, err
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s not found", req.ProductID)
	}
	if !p.Active {
		return nil, fmt.Errorf("product %q is inactive and cannot be sold", p.Name)
	}

	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}

	c := s.carts.Get(terminal)
	c.AddItem(p.ID, p.Name, p.Price, qty)
	return CartToResponse(c), nil
}

func (s *cartService) SetQuantity(ctx context.Context, terminal int, productID uuid.UUID, qty int) (*dto.CartResponse, error) {
	if _, err := s.sessions.RequireOpen(ctx, terminal); err != nil {
		return nil, err
	}
	c := s.carts.Get(terminal)
	if err := c.SetQuantity(productID, qty); err != nil {
		return nil, err
	}
	return CartToResponse(c), nil
}

func (s *cartService) RemoveItem(ctx context.Context, terminal int, productID uuid.UUID) (*dto.CartResponse, error) {
	if _, err := s.sessions.RequireOpen(ctx, terminal); err != nil {
		return nil, err
	}
	c := s.carts.Get(terminal)
	if err := c.RemoveItem(productID); err != nil {
		return nil, err
	}
	return CartToResponse(c), nil
}

// ApplyDiscount takes an absolute value or a percentage. A percentage is
// resolved against the current subtotal right here — later line changes do
// not re-derive it.
func (s *cartService) ApplyDiscount(ctx context.Context, terminal int, req dto.DiscountRequest) (*dto.CartResponse, error) {
	if _, err := s.sessions.RequireOpen(ctx, terminal); err != nil {
		return nil, err
	}

	c := s.carts.Get(terminal)
	switch {
	case req.Value != nil:
		if !req.Value.IsPositive() {
			return nil, &InvalidAmountError{Field: "discount", Amount: *req.Value}
		}
		c.ApplyDiscount(*req.Value)
	case req.Percent != nil:
		if !req.Percent.IsPositive() || req.Percent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, &InvalidAmountError{Field: "discount percent", Amount: *req.Percent}
		}
		c.ApplyDiscountPercent(*req.Percent)
	default:
		return nil, fmt.Errorf("either value or percent is required")
	}
	return CartToResponse(c), nil
}

func (s *cartService) SetDeliveryFee(ctx context.Context, terminal int, amount decimal.Decimal) (*dto.CartResponse, error) {
	if _, err := s.sessions.RequireOpen(ctx, terminal); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, &InvalidAmountError{Field: "delivery fee", Amount: amount}
	}
	c := s.carts.Get(terminal)
	c.SetDeliveryFee(amount)
	return CartToResponse(c), nil
}

func (s *cartService) SetClient(ctx context.Context, terminal int, req dto.SetClientRequest) (*dto.CartResponse, error) {
	if _, err := s.sessions.RequireOpen(ctx, terminal); err != nil {
		return nil, err
	}

	c := s.carts.Get(terminal)
	if req.ClientID == nil {
		c.SetClient(nil) // back to walk-in
		return CartToResponse(c), nil
	}

	clientID, err := uuid.Parse(*req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("invalid client_id: %w", err)
	}
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		return nil, fmt.Errorf("client %s not found", clientID)
	}
	c.SetClient(&clientID)
	return CartToResponse(c), nil
}

func (s *cartService) Clear(ctx context.Context, terminal int) error {
	s.carts.Clear(terminal)
	return nil
}

// CartToResponse renders a cart with its derived totals.
func CartToResponse(c *cart.Cart) *dto.CartResponse {
	items := make([]dto.CartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, dto.CartItemResponse{
			ProductID: it.ProductID.String(),
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
		})
	}
	tenders := make([]dto.TenderResponse, 0, len(c.Tenders))
	for _, t := range c.Tenders {
		tenders = append(tenders, dto.TenderResponse{
			Method:         string(t.Method),
			Amount:         t.Amount,
			ReceivedAmount: t.ReceivedAmount,
			ChangeAmount:   t.ChangeAmount,
		})
	}
	var clientID *string
	if c.ClientID != nil {
		v := c.ClientID.String()
		clientID = &v
	}
	return &dto.CartResponse{
		ClientID:     clientID,
		Items:        items,
		Subtotal:     c.Subtotal(),
		Discount:     c.Discount,
		DeliveryFee:  c.DeliveryFee,
		Total:        c.Total(),
		Tenders:      tenders,
		RemainingDue: c.RemainingDue(),
	}
}
