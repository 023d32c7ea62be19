package service

import (
	"context"
	"testing"

	"tillpos/internal/cart"
	"tillpos/internal/dto"
	"tillpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	carts     *cart.Store
	sessions  SessionService
	sessRepo  *fakeSessionRepo
	products  *fakeProductRepo
	orders    *fakeOrderRepo
	stockMovs *fakeStockMovementRepo
	svc       CheckoutService
	operator  uuid.UUID
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		carts:     cart.NewStore(),
		sessRepo:  newFakeSessionRepo(),
		products:  newFakeProductRepo(),
		orders:    newFakeOrderRepo(),
		stockMovs: &fakeStockMovementRepo{},
		operator:  uuid.New(),
	}
	f.sessions = NewSessionService(f.sessRepo)
	f.svc = NewCheckoutService(f.carts, f.sessions, f.orders, f.products, f.sessRepo, f.stockMovs, nil)

	_, err := f.sessions.Open(context.Background(), f.operator, dto.OpenSessionRequest{
		Terminal:       1,
		OpeningBalance: d("100"),
	})
	require.NoError(t, err)
	return f
}

func (f *checkoutFixture) addToCart(name, price string, stock, qty int) uuid.UUID {
	id := f.products.add(name, d(price), stock)
	f.carts.Get(1).AddItem(id, name, d(price), qty)
	return id
}

func (f *checkoutFixture) saleMovements() []model.CashMovement {
	var out []model.CashMovement
	for _, m := range f.sessRepo.movements {
		if m.Category == model.CategorySale {
			out = append(out, m)
		}
	}
	return out
}

func tender(method, amount string, received *decimal.Decimal) dto.AddTenderRequest {
	return dto.AddTenderRequest{Method: method, Amount: d(amount), ReceivedAmount: received}
}

func ptr(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

// ── FinalizeSale ─────────────────────────────────────────────────────────────

func TestFinalizeSale_CashWithChange(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	productID := f.addToCart("Milk", "50", 10, 1)

	inline := tender("cash", "60", ptr("60"))
	resp, err := f.svc.FinalizeSale(ctx, f.operator, 1, &inline)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.TicketNumber)
	assert.Equal(t, string(model.OrderCompleted), resp.Status)
	assert.True(t, resp.Total.Equal(d("50")))
	assert.True(t, resp.Change.Equal(d("10")))

	// The tender is capped at the due amount; the overpayment is change.
	require.Len(t, resp.Payments, 1)
	assert.True(t, resp.Payments[0].Amount.Equal(d("50")))
	assert.True(t, resp.Payments[0].ReceivedAmount.Equal(d("60")))
	assert.True(t, resp.Payments[0].ChangeAmount.Equal(d("10")))

	// Ledger records the revenue, never the change.
	sales := f.saleMovements()
	require.Len(t, sales, 1)
	assert.Equal(t, model.Inflow, sales[0].Direction)
	assert.Equal(t, model.MethodCash, sales[0].Method)
	assert.True(t, sales[0].Amount.Equal(d("50")))
	assert.Equal(t, f.operator, sales[0].CreatedBy)

	assert.Equal(t, 9, f.products.products[productID].Stock)
	require.Len(t, f.stockMovs.movements, 1)
	assert.Equal(t, -1, f.stockMovs.movements[0].Quantity)
	assert.Equal(t, 10, f.stockMovs.movements[0].StockBefore)
	assert.Equal(t, 9, f.stockMovs.movements[0].StockAfter)

	assert.True(t, f.carts.Get(1).IsEmpty())
}

func TestFinalizeSale_SplitTender(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.addToCart("Bundle", "100", 5, 1)

	_, err := f.svc.AddTender(ctx, 1, tender("credit", "40", nil))
	require.NoError(t, err)

	inline := tender("cash", "70", ptr("70"))
	resp, err := f.svc.FinalizeSale(ctx, f.operator, 1, &inline)
	require.NoError(t, err)

	require.Len(t, resp.Payments, 2)
	assert.Equal(t, "credit", resp.Payments[0].Method)
	assert.True(t, resp.Payments[0].Amount.Equal(d("40")))
	assert.Nil(t, resp.Payments[0].ChangeAmount)
	assert.Equal(t, "cash", resp.Payments[1].Method)
	assert.True(t, resp.Payments[1].Amount.Equal(d("60")))
	assert.True(t, resp.Payments[1].ChangeAmount.Equal(d("10")))
	assert.True(t, resp.Change.Equal(d("10")))

	// One ledger movement per tender, under its own method.
	sales := f.saleMovements()
	require.Len(t, sales, 2)
	sums, err := f.sessRepo.SumMovementsByMethod(ctx, uuid.MustParse(resp.SessionID))
	require.NoError(t, err)
	assert.True(t, sums[model.MethodCredit].Equal(d("40")))
	assert.True(t, sums[model.MethodCash].Equal(d("60")))
}

func TestFinalizeSale_InsufficientTenderLeavesCartIntact(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.addToCart("Milk", "50", 10, 1)

	_, err := f.svc.AddTender(ctx, 1, tender("cash", "30", nil))
	require.NoError(t, err)

	_, err = f.svc.FinalizeSale(ctx, f.operator, 1, nil)
	var short *InsufficientTenderError
	require.ErrorAs(t, err, &short)
	assert.True(t, short.RemainingDue.Equal(d("20")))

	c := f.carts.Get(1)
	assert.False(t, c.IsEmpty())
	assert.Len(t, c.Tenders, 1)
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.saleMovements())
}

func TestFinalizeSale_InsufficientStockAborts(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	productID := f.addToCart("Scarce", "10", 1, 2)

	inline := tender("cash", "20", nil)
	_, err := f.svc.FinalizeSale(ctx, f.operator, 1, &inline)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, productID, stockErr.ProductID)
	assert.Equal(t, "Scarce", stockErr.Name)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	assert.Equal(t, 1, f.products.products[productID].Stock)
	assert.Empty(t, f.saleMovements())
	assert.False(t, f.carts.Get(1).IsEmpty(), "cart stays available for correction")
}

func TestFinalizeSale_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.FinalizeSale(context.Background(), f.operator, 1, nil)
	assert.ErrorIs(t, err, cart.ErrEmptyCart)
}

func TestFinalizeSale_RequiresOpenSession(t *testing.T) {
	f := newCheckoutFixture(t)
	f.addToCart("Milk", "50", 10, 1)
	f.carts.Get(2).AddItem(uuid.New(), "Other", d("5"), 1)

	// Terminal 2 has no open session.
	_, err := f.svc.FinalizeSale(context.Background(), f.operator, 2, nil)
	var closed *SessionClosedError
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, 2, closed.Terminal)
}

func TestFinalizeSale_TicketNumbersAreSequential(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		f.addToCart("Milk", "10", 100, 1)
		inline := tender("cash", "10", nil)
		resp, err := f.svc.FinalizeSale(ctx, f.operator, 1, &inline)
		require.NoError(t, err)
		assert.Equal(t, want, resp.TicketNumber)
	}
}

// ── AddTender ────────────────────────────────────────────────────────────────

func TestAddTender_RejectsNonPositiveAmount(t *testing.T) {
	f := newCheckoutFixture(t)
	f.addToCart("Milk", "50", 10, 1)

	_, err := f.svc.AddTender(context.Background(), 1, tender("cash", "0", nil))
	var invalid *InvalidAmountError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "tender", invalid.Field)
}

func TestAddTender_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.AddTender(context.Background(), 1, tender("cash", "10", nil))
	assert.ErrorIs(t, err, cart.ErrEmptyCart)
}

func TestClearTenders(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.addToCart("Milk", "50", 10, 1)

	_, err := f.svc.AddTender(ctx, 1, tender("cash", "30", nil))
	require.NoError(t, err)

	resp, err := f.svc.ClearTenders(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, resp.Tenders)
	assert.True(t, resp.RemainingDue.Equal(d("50")))
}

func TestClearTenders_RequiresOpenSession(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.ClearTenders(context.Background(), 2)
	var closed *SessionClosedError
	assert.ErrorAs(t, err, &closed)
}

// ── VoidOrder ────────────────────────────────────────────────────────────────

func TestVoidOrder_RestoresStockAndWritesInverseMovements(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	productID := f.addToCart("Milk", "50", 10, 2)

	inline := tender("cash", "100", nil)
	resp, err := f.svc.FinalizeSale(ctx, f.operator, 1, &inline)
	require.NoError(t, err)
	require.Equal(t, 8, f.products.products[productID].Stock)

	orderID := uuid.MustParse(resp.ID)
	supervisor := uuid.New()
	err = f.svc.VoidOrder(ctx, supervisor, orderID, "customer returned")
	require.NoError(t, err)

	assert.Equal(t, 10, f.products.products[productID].Stock)
	assert.Equal(t, model.OrderCancelled, f.orders.orders[orderID].Status)

	// The sale movement stays; the void adds an inverse one.
	var voids []model.CashMovement
	for _, m := range f.sessRepo.movements {
		if m.Category == model.CategoryVoid {
			voids = append(voids, m)
		}
	}
	require.Len(t, voids, 1)
	assert.Equal(t, model.Outflow, voids[0].Direction)
	assert.Equal(t, model.MethodCash, voids[0].Method)
	assert.True(t, voids[0].Amount.Equal(d("100")))
	assert.Equal(t, supervisor, voids[0].CreatedBy)
	require.Len(t, f.saleMovements(), 1)

	// Net session cash is back to the opening balance.
	sums, err := f.sessRepo.SumMovementsByMethod(ctx, uuid.MustParse(resp.SessionID))
	require.NoError(t, err)
	assert.True(t, sums[model.MethodCash].IsZero())

	restore := f.stockMovs.movements[len(f.stockMovs.movements)-1]
	assert.Equal(t, "void_restore", restore.Kind)
	assert.Equal(t, 2, restore.Quantity)
}

func TestVoidOrder_AlreadyCancelled(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.addToCart("Milk", "50", 10, 1)

	inline := tender("cash", "50", nil)
	resp, err := f.svc.FinalizeSale(ctx, f.operator, 1, &inline)
	require.NoError(t, err)

	orderID := uuid.MustParse(resp.ID)
	require.NoError(t, f.svc.VoidOrder(ctx, f.operator, orderID, "first"))
	assert.Error(t, f.svc.VoidOrder(ctx, f.operator, orderID, "second"))
}

func TestVoidOrder_NotFound(t *testing.T) {
	f := newCheckoutFixture(t)
	assert.Error(t, f.svc.VoidOrder(context.Background(), uuid.New(), uuid.New(), "ghost"))
}
