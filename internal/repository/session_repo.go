package repository

import (
	"context"

	"tillpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SessionRepository interface {
	CreateSession(ctx context.Context, s *model.CashSession) error
	FindOpenByTerminal(ctx context.Context, terminal int) (*model.CashSession, error)
	FindOpenByOperator(ctx context.Context, operatorID uuid.UUID) (*model.CashSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	UpdateSession(ctx context.Context, s *model.CashSession) error
	ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)
	CreateMovement(ctx context.Context, m *model.CashMovement) error
	CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	// SumMovementsByMethod returns the signed net of movements per payment
	// method (inflows positive, outflows negative).
	SumMovementsByMethod(ctx context.Context, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error)
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) CreateSession(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindOpenByTerminal(ctx context.Context, terminal int) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("terminal = ? AND status = ?", terminal, model.SessionOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindOpenByOperator(ctx context.Context, operatorID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND status = ?", operatorID, model.SessionOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Preload("Movements").First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) UpdateSession(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *sessionRepo) ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashSession{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("opened_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}

func (r *sessionRepo) CreateMovement(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *sessionRepo) CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

func (r *sessionRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *sessionRepo) SumMovementsByMethod(ctx context.Context, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error) {
	type row struct {
		Method model.PaymentMethod
		Net    decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.CashMovement{}).
		Select(`method, SUM(CASE WHEN direction = 'outflow' THEN -amount ELSE amount END) AS net`).
		Where("session_id = ?", sessionID).
		Group("method").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[model.PaymentMethod]decimal.Decimal, len(model.AllMethods))
	for _, m := range model.AllMethods {
		sums[m] = decimal.Zero
	}
	for _, rw := range rows {
		sums[rw.Method] = rw.Net
	}
	return sums, nil
}
