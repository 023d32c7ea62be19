package service

import (
	"context"
	"fmt"

	"tillpos/internal/cart"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/repository"
	"tillpos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutService turns a fully-tendered cart into a committed order.
// Tender accumulation happens here too, so that the handler layer never
// touches payment arithmetic.
type CheckoutService interface {
	AddTender(ctx context.Context, terminal int, req dto.AddTenderRequest) (*dto.CartResponse, error)
	ClearTenders(ctx context.Context, terminal int) (*dto.CartResponse, error)
	// FinalizeSale commits the sale. An inline tender supports the fast path:
	// a single exact payment finalizes in one call.
	FinalizeSale(ctx context.Context, operatorID uuid.UUID, terminal int, inline *dto.AddTenderRequest) (*dto.OrderResponse, error)
	VoidOrder(ctx context.Context, operatorID uuid.UUID, id uuid.UUID, reason string) error
	GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) (*dto.OrderListResponse, error)
}

type checkoutService struct {
	carts      *cart.Store
	sessions   SessionService
	orders     repository.OrderRepository
	products   repository.ProductRepository
	sessRepo   repository.SessionRepository
	stockMovs  repository.StockMovementRepository
	dispatcher *worker.Dispatcher
}

func NewCheckoutService(
	carts *cart.Store,
	sessions SessionService,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	sessRepo repository.SessionRepository,
	stockMovs repository.StockMovementRepository,
	dispatcher *worker.Dispatcher,
) CheckoutService {
	return &checkoutService{
		carts:      carts,
		sessions:   sessions,
		orders:     orders,
		products:   products,
		sessRepo:   sessRepo,
		stockMovs:  stockMovs,
		dispatcher: dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── AddTender ────────────────────────────────────────────────────────────────

func (s *checkoutService) AddTender(ctx context.Context, terminal int, req dto.AddTenderRequest) (*dto.CartResponse, error) {
	if _, err := s.sessions.RequireOpen(ctx, terminal); err != nil {
		return nil, err
	}

	c := s.carts.Get(terminal)
	if c.IsEmpty() {
		return nil, cart.ErrEmptyCart
	}
	if _, err := s.applyTender(c, req); err != nil {
		return nil, err
	}
	return CartToResponse(c), nil
}

func (s *checkoutService) applyTender(c *cart.Cart, req dto.AddTenderRequest) (cart.Tender, error) {
	if !req.Amount.IsPositive() {
		return cart.Tender{}, &InvalidAmountError{Field: "tender", Amount: req.Amount}
	}
	if req.ReceivedAmount != nil && !req.ReceivedAmount.IsPositive() {
		return cart.Tender{}, &InvalidAmountError{Field: "received", Amount: *req.ReceivedAmount}
	}
	return c.AddTender(model.PaymentMethod(req.Method), req.Amount, req.ReceivedAmount)
}

func (s *checkoutService) ClearTenders(ctx context.Context, terminal int) (*dto.CartResponse, error) {
	if _, err := s.sessions.RequireOpen(ctx, terminal); err != nil {
		return nil, err
	}
	c := s.carts.Get(terminal)
	c.ClearTenders()
	return CartToResponse(c), nil
}

// ── FinalizeSale ─────────────────────────────────────────────────────────────
// Three effects, one transaction:
//   1. persist the order (Completed) with its item snapshot and payments
//   2. conditionally decrement stock per line — any shortfall aborts the
//      whole commit with InsufficientStockError
//   3. append one sale movement per tender to the open session's ledger
// On rollback the order does not exist, the ledger is untouched, and the cart
// stays available for correction.

func (s *checkoutService) FinalizeSale(ctx context.Context, operatorID uuid.UUID, terminal int, inline *dto.AddTenderRequest) (*dto.OrderResponse, error) {
	sess, err := s.sessions.RequireOpen(ctx, terminal)
	if err != nil {
		return nil, err
	}

	c := s.carts.Get(terminal)
	if c.IsEmpty() {
		return nil, cart.ErrEmptyCart
	}

	if inline != nil {
		if _, err := s.applyTender(c, *inline); err != nil {
			return nil, err
		}
	}

	if due := c.RemainingDue(); due.IsPositive() {
		return nil, &InsufficientTenderError{RemainingDue: due}
	}

	var order model.Order
	txErr := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		ticket, err := s.orders.NextTicketNumber(ctx, tx)
		if err != nil {
			return err
		}

		order = model.Order{
			TicketNumber: ticket,
			SessionID:    sess.ID,
			OperatorID:   operatorID,
			ClientID:     c.ClientID,
			Subtotal:     c.Subtotal(),
			Discount:     c.Discount,
			DeliveryFee:  c.DeliveryFee,
			Total:        c.Total(),
			Status:       model.OrderCompleted,
		}
		for _, it := range c.Items {
			order.Items = append(order.Items, model.OrderItem{
				ProductID: it.ProductID,
				UnitPrice: it.UnitPrice,
				Quantity:  it.Quantity,
				Subtotal:  it.Subtotal(),
			})
		}
		for _, t := range c.Tenders {
			order.Payments = append(order.Payments, model.OrderPayment{
				Method:         t.Method,
				Amount:         t.Amount,
				ReceivedAmount: t.ReceivedAmount,
				ChangeAmount:   t.ChangeAmount,
			})
		}

		if err := s.orders.Create(ctx, tx, &order); err != nil {
			return err
		}

		// Conditional decrement per line. The guard (stock >= qty) is what
		// keeps two racing terminals from jointly overselling: the loser
		// updates zero rows and the whole commit rolls back here.
		for _, it := range c.Items {
			before, err := s.products.FindByIDTx(tx, it.ProductID)
			if err != nil {
				return fmt.Errorf("product %s not found", it.ProductID)
			}

			affected, err := s.products.DecrementStockTx(tx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return &InsufficientStockError{
					ProductID: it.ProductID,
					Name:      before.Name,
					Requested: it.Quantity,
					Available: before.Stock,
				}
			}

			ref := order.ID
			mov := &model.StockMovement{
				ProductID:   it.ProductID,
				Kind:        "sale",
				Quantity:    -it.Quantity,
				StockBefore: before.Stock,
				StockAfter:  before.Stock - it.Quantity,
				Reason:      fmt.Sprintf("Sale #%d", ticket),
				ReferenceID: &ref,
			}
			if err := s.stockMovs.CreateTx(tx, mov); err != nil {
				return err
			}
		}

		// One ledger movement per tender — revenue only, never the change.
		for _, t := range c.Tenders {
			mov := model.CashMovement{
				SessionID:   sess.ID,
				Direction:   model.Inflow,
				Category:    model.CategorySale,
				Method:      t.Method,
				Amount:      t.Amount,
				Description: fmt.Sprintf("Sale #%d", ticket),
				CreatedBy:   operatorID,
				ReferenceID: &order.ID,
			}
			if err := s.sessRepo.CreateMovementTx(tx, &mov); err != nil {
				return err
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	change := c.ChangeTotal()
	s.carts.Clear(terminal)

	// External bookkeeping is asynchronous and best-effort; the session
	// ledger above is the source of truth.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueLedgerPosting(ctx, worker.LedgerJob{
			OrderID:   order.ID,
			SessionID: sess.ID,
			Ticket:    order.TicketNumber,
		})
	}

	resp := orderToResponse(&order)
	resp.Change = change
	for i, it := range c.Items {
		resp.Items[i].Product = it.Name
	}
	return resp, nil
}

// ── VoidOrder ────────────────────────────────────────────────────────────────
// Restores stock and writes inverse ledger movements; the original movements
// are never modified.

func (s *checkoutService) VoidOrder(ctx context.Context, operatorID uuid.UUID, id uuid.UUID, reason string) error {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("order not found")
	}
	if order.Status == model.OrderCancelled {
		return fmt.Errorf("order is already cancelled")
	}

	return runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		for _, it := range order.Items {
			before, err := s.products.FindByIDTx(tx, it.ProductID)
			if err != nil {
				return err
			}
			if err := s.products.RestoreStockTx(tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
			ref := order.ID
			mov := &model.StockMovement{
				ProductID:   it.ProductID,
				Kind:        "void_restore",
				Quantity:    it.Quantity,
				StockBefore: before.Stock,
				StockAfter:  before.Stock + it.Quantity,
				Reason:      fmt.Sprintf("Void sale #%d — %s", order.TicketNumber, reason),
				ReferenceID: &ref,
			}
			if err := s.stockMovs.CreateTx(tx, mov); err != nil {
				return err
			}
		}

		for _, p := range order.Payments {
			mov := model.CashMovement{
				SessionID:   order.SessionID,
				Direction:   model.Outflow,
				Category:    model.CategoryVoid,
				Method:      p.Method,
				Amount:      p.Amount,
				Description: fmt.Sprintf("Void sale #%d — %s", order.TicketNumber, reason),
				CreatedBy:   operatorID,
				ReferenceID: &order.ID,
			}
			if err := s.sessRepo.CreateMovementTx(tx, &mov); err != nil {
				return err
			}
		}

		return s.orders.UpdateStatusTx(tx, id, model.OrderCancelled)
	})
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *checkoutService) GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order not found")
	}
	return orderToResponse(order), nil
}

func (s *checkoutService) ListOrders(ctx context.Context, filter repository.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Status == "" {
		filter.Status = string(model.OrderCompleted)
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, *orderToResponse(&orders[i]))
	}
	return &dto.OrderListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		name := ""
		if it.Product != nil {
			name = it.Product.Name
		}
		items = append(items, dto.OrderItemResponse{
			Product:   name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	payments := make([]dto.TenderResponse, 0, len(o.Payments))
	change := decimal.Zero
	for _, p := range o.Payments {
		payments = append(payments, dto.TenderResponse{
			Method:         string(p.Method),
			Amount:         p.Amount,
			ReceivedAmount: p.ReceivedAmount,
			ChangeAmount:   p.ChangeAmount,
		})
		if p.ChangeAmount != nil {
			change = change.Add(*p.ChangeAmount)
		}
	}
	var clientID *string
	if o.ClientID != nil {
		v := o.ClientID.String()
		clientID = &v
	}
	return &dto.OrderResponse{
		ID:           o.ID.String(),
		TicketNumber: o.TicketNumber,
		SessionID:    o.SessionID.String(),
		ClientID:     clientID,
		Items:        items,
		Subtotal:     o.Subtotal,
		Discount:     o.Discount,
		DeliveryFee:  o.DeliveryFee,
		Total:        o.Total,
		Payments:     payments,
		Change:       change,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt.Format(timeFormat),
	}
}
