package service

import (
	"context"

	"tillpos/internal/cart"
	"tillpos/internal/dto"
	"tillpos/internal/repository"

	"github.com/google/uuid"
)

// SuspendService parks and revives in-progress sales. A cart is never both
// active and suspended: suspend empties the working cart, and resume deletes
// the parked record before the cart is repopulated, so a record can be
// consumed at most once.
type SuspendService interface {
	Suspend(ctx context.Context, operatorID uuid.UUID, terminal int, reason string) (*dto.SuspendedOrderResponse, error)
	List(ctx context.Context) ([]dto.SuspendedOrderResponse, error)
	Resume(ctx context.Context, terminal int, id uuid.UUID) (*dto.CartResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) error
}

type suspendService struct {
	carts    *cart.Store
	repo     repository.SuspendedOrderRepository
	sessions SessionService
}

func NewSuspendService(carts *cart.Store, repo repository.SuspendedOrderRepository, sessions SessionService) SuspendService {
	return &suspendService{carts: carts, repo: repo, sessions: sessions}
}

func (s *suspendService) Suspend(ctx context.Context, operatorID uuid.UUID, terminal int, reason string) (*dto.SuspendedOrderResponse, error) {
	if _, err := s.sessions.RequireOpen(ctx, terminal); err != nil {
		return nil, err
	}

	c := s.carts.Get(terminal)
	if c.IsEmpty() {
		return nil, cart.ErrEmptyCart
	}

	so := &repository.SuspendedOrder{
		ID:          uuid.New(),
		Terminal:    terminal,
		Snapshot:    c.Snapshot(),
		Reason:      reason,
		SuspendedBy: operatorID,
		SuspendedAt: nowUTC(),
	}
	if err := s.repo.Save(ctx, so); err != nil {
		return nil, err
	}

	// Only empty the working cart after the snapshot is durably parked.
	s.carts.Clear(terminal)

	return suspendedToResponse(so), nil
}

func (s *suspendService) List(ctx context.Context) ([]dto.SuspendedOrderResponse, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SuspendedOrderResponse, 0, len(records))
	for i := range records {
		out = append(out, *suspendedToResponse(&records[i]))
	}
	return out, nil
}

// Resume takes the record atomically (delete-then-read as one operation) and
// only then rebuilds the cart. A second resume of the same id finds nothing.
// Catalog state is NOT re-validated here: prices were snapshotted at add-time
// and stock is enforced by the checkout transaction.
func (s *suspendService) Resume(ctx context.Context, terminal int, id uuid.UUID) (*dto.CartResponse, error) {
	if _, err := s.sessions.RequireOpen(ctx, terminal); err != nil {
		return nil, err
	}

	// The check runs before the take: a refused resume must leave the parked
	// record in place, and a live working cart is never overwritten.
	if !s.carts.Get(terminal).IsEmpty() {
		return nil, &TerminalBusyError{Terminal: terminal}
	}

	so, err := s.repo.TakeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if so == nil {
		return nil, &SuspendedOrderNotFoundError{ID: id}
	}

	c := cart.FromSnapshot(so.Snapshot)
	s.carts.Replace(terminal, c)
	return CartToResponse(c), nil
}

func (s *suspendService) Cancel(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return &SuspendedOrderNotFoundError{ID: id}
	}
	return nil
}

func suspendedToResponse(so *repository.SuspendedOrder) *dto.SuspendedOrderResponse {
	c := cart.FromSnapshot(so.Snapshot)
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
	var clientID *string
	if so.Snapshot.ClientID != nil {
		v := so.Snapshot.ClientID.String()
		clientID = &v
	}
	return &dto.SuspendedOrderResponse{
		ID:          so.ID.String(),
		Terminal:    so.Terminal,
		Items:       items,
		Discount:    so.Snapshot.Discount,
		DeliveryFee: so.Snapshot.DeliveryFee,
		ClientID:    clientID,
		Total:       c.Total(),
		Reason:      so.Reason,
		SuspendedBy: so.SuspendedBy.String(),
		SuspendedAt: so.SuspendedAt.Format(timeFormat),
	}
}
