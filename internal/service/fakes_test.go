package service

// In-memory fakes for the repository interfaces. Their DB() accessors return
// nil, which makes runTx call the transaction body directly — good enough for
// exercising the service-level arithmetic and guards.

import (
	"context"
	"sort"

	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── session repo ─────────────────────────────────────────────────────────────

type fakeSessionRepo struct {
	sessions  map[uuid.UUID]*model.CashSession
	movements []model.CashMovement
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*model.CashSession)}
}

func (r *fakeSessionRepo) CreateSession(_ context.Context, s *model.CashSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) FindOpenByTerminal(_ context.Context, terminal int) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.Terminal == terminal && s.Status == model.SessionOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) FindOpenByOperator(_ context.Context, operatorID uuid.UUID) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.OperatorID == operatorID && s.Status == model.SessionOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) UpdateSession(_ context.Context, s *model.CashSession) error {
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) ListSessions(_ context.Context, page, limit int) ([]model.CashSession, int64, error) {
	out := make([]model.CashSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	return out, int64(len(out)), nil
}

func (r *fakeSessionRepo) CreateMovement(_ context.Context, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeSessionRepo) CreateMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	return r.CreateMovement(context.Background(), m)
}

func (r *fakeSessionRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) SumMovementsByMethod(_ context.Context, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error) {
	sums := make(map[model.PaymentMethod]decimal.Decimal, len(model.AllMethods))
	for _, m := range model.AllMethods {
		sums[m] = decimal.Zero
	}
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			sums[m.Method] = sums[m.Method].Add(m.Signed())
		}
	}
	return sums, nil
}

// ── product repo ─────────────────────────────────────────────────────────────

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *fakeProductRepo) add(name string, price decimal.Decimal, stock int) uuid.UUID {
	id := uuid.New()
	r.products[id] = &model.Product{
		ID: id, Barcode: id.String(), Name: name, Category: "test",
		Price: price, Stock: stock, Active: true,
	}
	return id
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *fakeProductRepo) FindByBarcode(_ context.Context, barcode string) (*model.Product, error) {
	for _, p := range r.products {
		if p.Barcode == barcode && p.Active {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) List(_ context.Context, _ repository.ProductFilter) ([]model.Product, int64, error) {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (int64, error) {
	p, ok := r.products[id]
	if !ok || p.Stock < qty {
		return 0, nil
	}
	p.Stock -= qty
	return 1, nil
}

func (r *fakeProductRepo) RestoreStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	if p, ok := r.products[id]; ok {
		p.Stock += qty
	}
	return nil
}

func (r *fakeProductRepo) DB() *gorm.DB { return nil }

// ── order repo ───────────────────────────────────────────────────────────────

type fakeOrderRepo struct {
	orders     map[uuid.UUID]*model.Order
	nextTicket int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, _ *gorm.DB, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status model.OrderStatus) error {
	if o, ok := r.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (r *fakeOrderRepo) NextTicketNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.nextTicket++
	return r.nextTicket, nil
}

func (r *fakeOrderRepo) List(_ context.Context, _ repository.OrderFilter) ([]model.Order, int64, error) {
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) DB() *gorm.DB { return nil }

// ── stock movement repo ──────────────────────────────────────────────────────

type fakeStockMovementRepo struct {
	movements []model.StockMovement
}

func (r *fakeStockMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeStockMovementRepo) List(_ context.Context, _ repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	return r.movements, int64(len(r.movements)), nil
}

// ── client repo ──────────────────────────────────────────────────────────────

type fakeClientRepo struct {
	clients map[uuid.UUID]*model.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[uuid.UUID]*model.Client)}
}

func (r *fakeClientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClientRepo) List(_ context.Context, _ string) ([]model.Client, error) {
	out := make([]model.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeClientRepo) Create(_ context.Context, c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.clients[c.ID] = &cp
	return nil
}

// ── suspended order repo ─────────────────────────────────────────────────────

type fakeSuspendedRepo struct {
	records map[uuid.UUID]*repository.SuspendedOrder
}

func newFakeSuspendedRepo() *fakeSuspendedRepo {
	return &fakeSuspendedRepo{records: make(map[uuid.UUID]*repository.SuspendedOrder)}
}

func (r *fakeSuspendedRepo) Save(_ context.Context, so *repository.SuspendedOrder) error {
	cp := *so
	r.records[so.ID] = &cp
	return nil
}

func (r *fakeSuspendedRepo) TakeByID(_ context.Context, id uuid.UUID) (*repository.SuspendedOrder, error) {
	so, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	delete(r.records, id)
	return so, nil
}

func (r *fakeSuspendedRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := r.records[id]; !ok {
		return false, nil
	}
	delete(r.records, id)
	return true, nil
}

func (r *fakeSuspendedRepo) ListAll(_ context.Context) ([]repository.SuspendedOrder, error) {
	out := make([]repository.SuspendedOrder, 0, len(r.records))
	for _, so := range r.records {
		out = append(out, *so)
	}
	return out, nil
}
